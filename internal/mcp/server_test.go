package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fitlink/fitstats/internal/models"
	"github.com/fitlink/fitstats/internal/stats"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// fakeDataSource satisfies DataSource with canned data for handler tests.
type fakeDataSource struct {
	statistics   *stats.Statistics
	improvements []stats.Improvement
	weights      []stats.WeightPoint
	sessions     []models.TrainingSession
	err          error
}

func (f *fakeDataSource) Statistics(context.Context, int, string) (*stats.Statistics, error) {
	return f.statistics, f.err
}

func (f *fakeDataSource) Improvement(context.Context, int) ([]stats.Improvement, error) {
	return f.improvements, f.err
}

func (f *fakeDataSource) WeightHistory(context.Context, int) ([]stats.WeightPoint, error) {
	return f.weights, f.err
}

func (f *fakeDataSource) Sessions(context.Context, int) ([]models.TrainingSession, error) {
	return f.sessions, f.err
}

func testHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// TestGetExerciseImprovementTopFive verifies the default tool response is
// the ranked top 5 in the reduced shape.
func TestGetExerciseImprovementTopFive(t *testing.T) {
	var improvements []stats.Improvement
	for i, imp := range []float64{5, 40, 10, 25, 0, 15} {
		improvements = append(improvements, stats.Improvement{
			ExerciseID:  string(rune('a' + i)),
			Improvement: imp,
			Progress:    []stats.ProgressEntry{},
		})
	}

	h := testHandlers(&fakeDataSource{improvements: improvements})
	result, err := h.getExerciseImprovement(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got []stats.ImprovementSummary
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d entries, want 5", len(got))
	}
	wantOrder := []string{"b", "d", "f", "c", "a"}
	for i, want := range wantOrder {
		if got[i].ExerciseID != want {
			t.Errorf("rank %d = %q, want %q", i, got[i].ExerciseID, want)
		}
	}
}

// TestGetExerciseImprovementShowAll verifies show_all=true returns the
// full trajectories without ranking.
func TestGetExerciseImprovementShowAll(t *testing.T) {
	improvements := []stats.Improvement{
		{ExerciseID: "a", Improvement: 5, Progress: []stats.ProgressEntry{{Date: "2025-03-01", Weight: 80}}},
		{ExerciseID: "b", Improvement: 40, Progress: []stats.ProgressEntry{}},
	}

	h := testHandlers(&fakeDataSource{improvements: improvements})
	result, err := h.getExerciseImprovement(context.Background(), callRequest(map[string]any{"show_all": true}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got []stats.Improvement
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].ExerciseID != "a" {
		t.Errorf("first entry = %q, want %q (input order)", got[0].ExerciseID, "a")
	}
	if len(got[0].Progress) != 1 {
		t.Errorf("progress points = %d, want 1", len(got[0].Progress))
	}
}

// TestGetStatisticsError verifies data source failures become tool errors,
// not transport errors.
func TestGetStatisticsError(t *testing.T) {
	h := testHandlers(&fakeDataSource{err: errors.New("connection refused")})
	result, err := h.getStatistics(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result")
	}
}

// TestGetSessionsLimit verifies the limit argument keeps only the most
// recent sessions.
func TestGetSessionsLimit(t *testing.T) {
	sessions := []models.TrainingSession{{ID: 1}, {ID: 2}, {ID: 3}}

	h := testHandlers(&fakeDataSource{sessions: sessions})
	result, err := h.getSessions(context.Background(), callRequest(map[string]any{"limit": 2}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got []models.TrainingSession
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("ids = [%d, %d], want [2, 3]", got[0].ID, got[1].ID)
	}
}

// TestRecentSessionsFiltersWindow verifies the resource only includes
// sessions from the last 14 days.
func TestRecentSessionsFiltersWindow(t *testing.T) {
	now := time.Now()
	sessions := []models.TrainingSession{
		{ID: 1, StartedAt: now.AddDate(0, 0, -30)},
		{ID: 2, StartedAt: now.AddDate(0, 0, -3)},
	}

	h := testHandlers(&fakeDataSource{sessions: sessions})
	var req mcp.ReadResourceRequest
	req.Params.URI = "fitstats://recent_sessions"

	contents, err := h.recentSessions(context.Background(), req)
	if err != nil {
		t.Fatalf("resource error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	text := contents[0].(mcp.TextResourceContents).Text
	var got []models.TrainingSession
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("got %d sessions, want only the recent one", len(got))
	}
	if strings.Contains(text, `"id":1,`) {
		t.Error("old session leaked into recent_sessions")
	}
}
