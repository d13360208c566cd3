package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fitlink/fitstats/internal/ingest"
)

// Client sends training sessions to the FitStats ingest endpoint.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the FitStats server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// SendSessions POSTs a batch of sessions to the server's ingest endpoint.
// Retries up to 3 times with exponential backoff on failure; 400 responses
// are not retried, since resending an invalid batch cannot succeed.
func (c *Client) SendSessions(sessions []ingest.SessionPayload) (*ingest.Result, error) {
	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("marshaling sessions: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * c.backoff)
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+"/api/v1/ingest/", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating ingest request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var result ingest.Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding ingest result: %w", err)
			}
			return &result, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
		if resp.StatusCode == http.StatusBadRequest {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
