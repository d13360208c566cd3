package mcp

import (
	"context"

	"github.com/fitlink/fitstats/internal/models"
	"github.com/fitlink/fitstats/internal/stats"
	"github.com/fitlink/fitstats/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (stats service +
// database) and HTTPClient (remote via REST API) both satisfy this interface.
type DataSource interface {
	Statistics(ctx context.Context, userID int, exerciseFilter string) (*stats.Statistics, error)
	Improvement(ctx context.Context, userID int) ([]stats.Improvement, error)
	WeightHistory(ctx context.Context, userID int) ([]stats.WeightPoint, error)
	Sessions(ctx context.Context, userID int) ([]models.TrainingSession, error)
}

// Local serves MCP tools straight from the statistics service and the
// database, for the in-process MCP mode.
type Local struct {
	Stats *stats.Service
	DB    *storage.DB
}

// Compile-time check: *Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

func (l *Local) Statistics(ctx context.Context, userID int, exerciseFilter string) (*stats.Statistics, error) {
	return l.Stats.Statistics(ctx, userID, exerciseFilter)
}

func (l *Local) Improvement(ctx context.Context, userID int) ([]stats.Improvement, error) {
	return l.Stats.Improvement(ctx, userID)
}

func (l *Local) WeightHistory(ctx context.Context, userID int) ([]stats.WeightPoint, error) {
	return l.Stats.WeightHistory(ctx, userID)
}

func (l *Local) Sessions(ctx context.Context, userID int) ([]models.TrainingSession, error) {
	return l.DB.FetchSessionsForUser(ctx, userID)
}
