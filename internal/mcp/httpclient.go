package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitlink/fitstats/internal/models"
	"github.com/fitlink/fitstats/internal/stats"
)

// HTTPClient implements DataSource by calling the FitStats REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) Statistics(ctx context.Context, _ int, exerciseFilter string) (*stats.Statistics, error) {
	params := url.Values{}
	if exerciseFilter != "" {
		params.Set("exerciseId", exerciseFilter)
	}

	body, err := c.get(ctx, "/api/v1/statistics", params)
	if err != nil {
		return nil, err
	}

	var statistics stats.Statistics
	if err := json.Unmarshal(body, &statistics); err != nil {
		return nil, fmt.Errorf("httpclient: decode statistics: %w", err)
	}
	return &statistics, nil
}

// Improvement always requests the full trajectories; reducing to the
// ranked top 5 is the tool handler's concern.
func (c *HTTPClient) Improvement(ctx context.Context, _ int) ([]stats.Improvement, error) {
	params := url.Values{}
	params.Set("showAll", "true")

	body, err := c.get(ctx, "/api/v1/statistics/improvement", params)
	if err != nil {
		return nil, err
	}

	var improvements []stats.Improvement
	if err := json.Unmarshal(body, &improvements); err != nil {
		return nil, fmt.Errorf("httpclient: decode improvement: %w", err)
	}
	return improvements, nil
}

func (c *HTTPClient) WeightHistory(ctx context.Context, _ int) ([]stats.WeightPoint, error) {
	body, err := c.get(ctx, "/api/v1/statistics/weight-history", nil)
	if err != nil {
		return nil, err
	}

	var points []stats.WeightPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("httpclient: decode weight history: %w", err)
	}
	return points, nil
}

func (c *HTTPClient) Sessions(ctx context.Context, _ int) ([]models.TrainingSession, error) {
	body, err := c.get(ctx, "/api/v1/sessions", nil)
	if err != nil {
		return nil, err
	}

	var sessions []models.TrainingSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}
