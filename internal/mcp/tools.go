package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fitlink/fitstats/internal/stats"
)

const topImprovementLimit = 5

// --- Tool definitions ---

var toolGetStatistics = mcp.NewTool("get_statistics",
	mcp.WithDescription("Full aggregated training statistics: totals, weekly session/weight rollups, current week and month activity, best lift per exercise, days trained, routine usage, exercise frequency, muscle group distribution, and body-weight history."),
	mcp.WithString("exercise_id", mcp.Description("Optional exercise id. When set, the response includes that exercise's weight progression over time.")),
)

var toolGetExerciseImprovement = mcp.NewTool("get_exercise_improvement",
	mcp.WithDescription("Per-exercise improvement trends: relative weight change from the first to the most recent performance. Defaults to the top 5 most improved exercises."),
	mcp.WithBoolean("show_all", mcp.Description("Return every exercise with its full progress trajectory instead of the ranked top 5.")),
)

var toolGetWeightHistory = mcp.NewTool("get_weight_history",
	mcp.WithDescription("The user's body-weight change log as date/weight points in chronological order."),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Raw training sessions with per-exercise sets, in creation order."),
	mcp.WithNumber("limit", mcp.Description("Return only the most recent N sessions. Defaults to all.")),
)

// --- Tool handlers ---

func (h *handlers) getStatistics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	exerciseFilter := req.GetString("exercise_id", "")

	statistics, err := h.ds.Statistics(ctx, uid, exerciseFilter)
	if err != nil {
		h.log.Error("mcp get_statistics", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(statistics)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseImprovement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	showAll := req.GetBool("show_all", false)

	improvements, err := h.ds.Improvement(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_exercise_improvement", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	var payload any = improvements
	if !showAll {
		payload = stats.TopImprovements(improvements, topImprovementLimit)
	}

	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeightHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	points, err := h.ds.WeightHistory(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_weight_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	sessions, err := h.ds.Sessions(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if limit := req.GetInt("limit", 0); limit > 0 && len(sessions) > limit {
		sessions = sessions[len(sessions)-limit:]
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
