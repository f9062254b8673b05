package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPProvisioner registers rooms with an external orchestrator over a JSON webhook:
// POST {"region": ..., "metadata": {...}} and expect {"roomId": "..."} back.
type HTTPProvisioner struct {
	Endpoint string
	Client   *http.Client
}

// New creates a provisioner for endpoint with a bounded HTTP client
func New(endpoint string) *HTTPProvisioner {
	return &HTTPProvisioner{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type createRequest struct {
	Region   string            `json:"region"`
	Metadata map[string]string `json:"metadata"`
}

type createResponse struct {
	RoomID string `json:"roomId"`
}

// CreateRemoteRoom asks the orchestrator for a room. A 204 means it declined
// and yields an empty id with no error.
func (p *HTTPProvisioner) CreateRemoteRoom(ctx context.Context, regionHint string, metadata map[string]string) (string, error) {
	body, err := json.Marshal(createRequest{Region: regionHint, Metadata: metadata})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build provision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("provision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("provisioner returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode provision response: %w", err)
	}
	return out.RoomID, nil
}
