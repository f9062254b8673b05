package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/lib/pq"

	"slether-arena/game"
)

type fakeExecer struct {
	mu      sync.Mutex
	queries []string
	args    [][]any
	block   chan struct{}
	err     error
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return nil, f.err
}

func (f *fakeExecer) snapshot() ([]string, [][]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...), append([][]any(nil), f.args...)
}

func TestKillLogWritesInOrder(t *testing.T) {
	db := &fakeExecer{}
	k := NewKillLog(db, 16)
	k.LogJoin("room", "p1", "Alice", 5)
	k.LogKill("room", game.KillEvent{KillerID: "p1", KillerName: "Alice", VictimID: "p2", VictimName: "Bob", Bounty: 4.5, VictimLength: 30})
	k.LogSession("p1", 4.5, 1)
	k.Close()

	queries, args := db.snapshot()
	if len(queries) != 3 {
		t.Fatalf("writes = %d, want 3", len(queries))
	}
	for i, table := range []string{"session_joins", "kills", "session_results"} {
		if !strings.Contains(queries[i], table) {
			t.Fatalf("write %d = %q, want insert into %s", i, queries[i], table)
		}
	}
	if got := args[1][5]; got != 4.5 {
		t.Fatalf("bounty arg = %v", got)
	}
}

func TestKillLogDropsWhenFull(t *testing.T) {
	db := &fakeExecer{block: make(chan struct{})}
	k := NewKillLog(db, 1)
	// First write is picked up by the worker and blocks; second fills the queue.
	for i := 0; i < 10; i++ {
		k.LogSession(fmt.Sprintf("p%d", i), 0, 0)
	}
	close(db.block)
	k.Close()

	queries, _ := db.snapshot()
	if len(queries) == 0 || len(queries) > 2 {
		t.Fatalf("writes = %d, want 1 or 2", len(queries))
	}
}

func TestKillLogSurvivesExecErrors(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection reset")}
	k := NewKillLog(db, 4)
	k.LogSession("p1", 1, 1)
	k.LogSession("p2", 2, 2)
	k.Close()
	if queries, _ := db.snapshot(); len(queries) != 2 {
		t.Fatalf("writes = %d, want 2", len(queries))
	}
}

func TestKillLogDropsWritesAfterClose(t *testing.T) {
	db := &fakeExecer{}
	k := NewKillLog(db, 4)
	k.LogSession("p1", 1, 1)
	k.Close()
	k.LogSession("p2", 2, 2)
	k.LogKill("room", game.KillEvent{VictimID: "p3"})
	k.Close()
	if queries, _ := db.snapshot(); len(queries) != 1 {
		t.Fatalf("writes = %d, want 1", len(queries))
	}
}

func TestKillLogCloseRacesWriters(t *testing.T) {
	k := NewKillLog(&fakeExecer{}, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				k.LogSession("p", 1, 1)
			}
		}()
	}
	k.Close()
	wg.Wait()
}

func TestIsUndefinedTable(t *testing.T) {
	if !isUndefinedTable(&pq.Error{Code: "42P01"}) {
		t.Fatalf("42P01 not recognised")
	}
	if !isUndefinedTable(fmt.Errorf("query: %w", &pq.Error{Code: "42P01"})) {
		t.Fatalf("wrapped 42P01 not recognised")
	}
	if isUndefinedTable(&pq.Error{Code: "23505"}) {
		t.Fatalf("unique violation treated as missing table")
	}
	if isUndefinedTable(errors.New("boom")) {
		t.Fatalf("plain error treated as missing table")
	}
}
