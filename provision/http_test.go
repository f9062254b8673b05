package provision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateRemoteRoom(t *testing.T) {
	var got createRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"roomId":"remote-7"}`))
	}))
	defer srv.Close()

	id, err := New(srv.URL).CreateRemoteRoom(context.Background(), "eu", map[string]string{"tier": "gold"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "remote-7" {
		t.Fatalf("id = %q", id)
	}
	if got.Region != "eu" || got.Metadata["tier"] != "gold" {
		t.Fatalf("request = %+v", got)
	}
}

func TestCreateRemoteRoomDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	id, err := New(srv.URL).CreateRemoteRoom(context.Background(), "", nil)
	if err != nil || id != "" {
		t.Fatalf("id=%q err=%v, want empty and nil", id, err)
	}
}

func TestCreateRemoteRoomServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateRemoteRoom(context.Background(), "", nil)
	if err == nil || !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "no capacity") {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateRemoteRoomHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(srv.URL).CreateRemoteRoom(ctx, "", nil); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
