package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitStats", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitStats training statistics server. Query aggregated training statistics, per-exercise improvement trends, body-weight history, and raw training sessions. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetStatistics, Handler: h.getStatistics},
		server.ServerTool{Tool: toolGetExerciseImprovement, Handler: h.getExerciseImprovement},
		server.ServerTool{Tool: toolGetWeightHistory, Handler: h.getWeightHistory},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"fitstats://recent_sessions",
	"Recent Training Sessions",
	mcp.WithResourceDescription("Training sessions from the last 14 days, with per-exercise sets"),
	mcp.WithMIMEType("application/json"),
)
