package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Exercise is one entry of the external exercise catalog (ExerciseDB).
// Performances reference these by ID; Target is the muscle group used for
// the muscleGroups rollup.
type Exercise struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Target    string `json:"target"`
	BodyPart  string `json:"bodyPart"`
	Equipment string `json:"equipment"`
}

// Client fetches exercise metadata from the ExerciseDB API. Results are not
// cached across requests; callers fetch once per statistics request and
// look up in memory from there.
type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	httpClient *http.Client
}

// NewClient creates a catalog client. apiHost is sent as the RapidAPI host
// header and derived values must match the base URL's host.
func NewClient(baseURL, apiKey, apiHost string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiHost:    apiHost,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchAll retrieves the full exercise list.
func (c *Client) FetchAll(ctx context.Context) ([]Exercise, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/exercises", nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch exercises: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: fetch exercises returned %d: %s", resp.StatusCode, body)
	}

	var exercises []Exercise
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("catalog: decode exercises: %w", err)
	}
	return exercises, nil
}

// FetchByID resolves a single exercise, or nil when the catalog does not
// know the id. The upstream API has no by-id endpoint worth the extra
// round-trip, so this scans the full list.
func (c *Client) FetchByID(ctx context.Context, id string) (*Exercise, error) {
	all, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// FilterByTarget returns the exercises whose target muscle matches target,
// case-insensitively. An empty target returns the input unchanged.
func FilterByTarget(exercises []Exercise, target string) []Exercise {
	if target == "" {
		return exercises
	}
	var out []Exercise
	for _, e := range exercises {
		if strings.EqualFold(e.Target, target) {
			out = append(out, e)
		}
	}
	return out
}

// SortedTargets returns the distinct lowercased target muscles, sorted.
func SortedTargets(exercises []Exercise) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, e := range exercises {
		if e.Target == "" {
			continue
		}
		t := strings.ToLower(e.Target)
		if !seen[t] {
			seen[t] = true
			targets = append(targets, t)
		}
	}
	sort.Strings(targets)
	return targets
}
