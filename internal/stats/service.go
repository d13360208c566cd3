package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitlink/fitstats/internal/catalog"
	"github.com/fitlink/fitstats/internal/models"
)

// Store is the slice of the training-log and profile stores the statistics
// engine reads from. *storage.DB satisfies it.
type Store interface {
	FetchSessionsForUser(ctx context.Context, userID int) ([]models.TrainingSession, error)
	FetchPerformancesForUser(ctx context.Context, userID int) ([]models.PerformanceEntry, error)
	FetchWeightLogsForUser(ctx context.Context, userID int) ([]models.WeightLog, error)
	GetUserWeight(ctx context.Context, userID int) (*float64, error)
}

// Catalog resolves exercise metadata. *catalog.Client satisfies it.
type Catalog interface {
	FetchAll(ctx context.Context) ([]catalog.Exercise, error)
}

// Service runs the statistics queries. Each request loads its own snapshot
// of the user's history and reduces it in memory; there is no shared
// mutable state between requests.
type Service struct {
	store   Store
	catalog Catalog
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. The stores and the catalog client are
// injected here rather than reached through globals.
func NewService(store Store, cat Catalog, log *slog.Logger) *Service {
	return &Service{store: store, catalog: cat, log: log, now: time.Now}
}

// Statistics computes the full statistics response for a user, optionally
// populating per-exercise progress for exerciseFilter.
//
// Catalog unavailability is recovered here: muscle groups degrade to empty
// and everything else is still returned.
func (s *Service) Statistics(ctx context.Context, userID int, exerciseFilter string) (*Statistics, error) {
	logs, err := s.store.FetchSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching sessions: %w", err)
	}
	weightLogs, err := s.store.FetchWeightLogsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching weight logs: %w", err)
	}

	exercises, err := s.catalog.FetchAll(ctx)
	if err != nil {
		s.log.Warn("exercise catalog unavailable, omitting muscle groups", "error", err)
		exercises = nil
	}

	st := Extract(logs, s.now(), exerciseFilter, exercises)
	st.WeightHistory = FormatWeightHistory(weightLogs)
	return st, nil
}

// Improvement computes the full per-exercise improvement trajectories for
// a user. Callers wanting the ranked top-5 reduce the result with
// TopImprovements.
func (s *Service) Improvement(ctx context.Context, userID int) ([]Improvement, error) {
	entries, err := s.store.FetchPerformancesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching performances: %w", err)
	}
	bodyWeight, err := s.store.GetUserWeight(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching body weight: %w", err)
	}
	return AnalyzeImprovement(entries, bodyWeight), nil
}

// WeightHistory returns the user's body-weight change log as a time series.
func (s *Service) WeightHistory(ctx context.Context, userID int) ([]WeightPoint, error) {
	logs, err := s.store.FetchWeightLogsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching weight logs: %w", err)
	}
	return FormatWeightHistory(logs), nil
}
