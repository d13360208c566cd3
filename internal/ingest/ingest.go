// Package ingest validates incoming training sessions and derives the
// stored fields (duration, total weight, calories) exactly once, at
// creation time. Sessions are immutable afterwards.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitlink/fitstats/internal/models"
	"github.com/fitlink/fitstats/internal/storage"
)

// Calorie estimate constants: kcal = 0.0175 × MET × bodyWeightKg × minutes,
// with a fixed MET of 6 for strength training.
const (
	calorieFactor = 0.0175
	strengthMET   = 6
)

// ErrInvalidSession marks payload validation failures; handlers translate
// it to a 400.
var ErrInvalidSession = errors.New("invalid session")

// SessionPayload is one training session as submitted by a client or the
// import tool.
type SessionPayload struct {
	RoutineID *int64            `json:"routineId,omitempty"`
	StartedAt time.Time         `json:"startedAt"`
	EndedAt   time.Time         `json:"endedAt"`
	Exercises []ExercisePayload `json:"exercises"`
}

// ExercisePayload is one exercise's sets within a submitted session.
type ExercisePayload struct {
	ExerciseID   string    `json:"exerciseId"`
	Name         string    `json:"name"`
	Reps         []int     `json:"reps"`
	Weights      []float64 `json:"weights"`
	IsBodyweight bool      `json:"isBodyweight"`
}

// Result holds the outcome of an ingest operation. SessionsSkipped counts
// sessions that were already on record and left untouched.
type Result struct {
	SessionsReceived     int    `json:"sessions_received"`
	SessionsInserted     int    `json:"sessions_inserted"`
	SessionsSkipped      int    `json:"sessions_skipped"`
	PerformancesInserted int    `json:"performances_inserted"`
	Message              string `json:"message,omitempty"`
}

// BuildSession validates a payload and derives the stored session fields.
// bodyWeightKg is the user's current stored weight; calories are only
// estimated when it is present.
func BuildSession(userID int, p SessionPayload, bodyWeightKg *float64) (models.TrainingSession, error) {
	var zero models.TrainingSession

	if p.StartedAt.IsZero() || p.EndedAt.IsZero() {
		return zero, fmt.Errorf("%w: startedAt and endedAt are required", ErrInvalidSession)
	}
	if p.EndedAt.Before(p.StartedAt) {
		return zero, fmt.Errorf("%w: endedAt before startedAt", ErrInvalidSession)
	}
	if len(p.Exercises) == 0 {
		return zero, fmt.Errorf("%w: at least one exercise is required", ErrInvalidSession)
	}

	totalWeight := 0.0
	performances := make([]models.ExercisePerformance, 0, len(p.Exercises))
	for i, e := range p.Exercises {
		if e.ExerciseID == "" || e.Name == "" {
			return zero, fmt.Errorf("%w: exercise %d missing id or name", ErrInvalidSession, i)
		}
		if len(e.Reps) != len(e.Weights) {
			return zero, fmt.Errorf("%w: exercise %d has %d reps but %d weights", ErrInvalidSession, i, len(e.Reps), len(e.Weights))
		}
		for j := range e.Reps {
			if e.Reps[j] <= 0 {
				return zero, fmt.Errorf("%w: exercise %d set %d has non-positive reps", ErrInvalidSession, i, j)
			}
			if e.Weights[j] < 0 {
				return zero, fmt.Errorf("%w: exercise %d set %d has negative weight", ErrInvalidSession, i, j)
			}
			// Bodyweight sets never count toward total moved weight.
			if !e.IsBodyweight {
				totalWeight += float64(e.Reps[j]) * e.Weights[j]
			}
		}
		performances = append(performances, models.ExercisePerformance{
			ExerciseID:   e.ExerciseID,
			Name:         e.Name,
			Reps:         e.Reps,
			Weights:      e.Weights,
			IsBodyweight: e.IsBodyweight,
		})
	}

	durationSec := int(p.EndedAt.Sub(p.StartedAt).Seconds())

	return models.TrainingSession{
		UserID:         userID,
		RoutineID:      p.RoutineID,
		StartedAt:      p.StartedAt,
		EndedAt:        p.EndedAt,
		DurationSec:    durationSec,
		TotalWeight:    totalWeight,
		CaloriesBurned: estimateCalories(bodyWeightKg, durationSec),
		Performances:   performances,
	}, nil
}

// estimateCalories returns nil when the user has no recorded body weight:
// absence of the input propagates as absence of the estimate, not as zero.
func estimateCalories(bodyWeightKg *float64, durationSec int) *float64 {
	if bodyWeightKg == nil || *bodyWeightKg == 0 {
		return nil
	}
	minutes := float64(durationSec) / 60
	kcal := calorieFactor * strengthMET * *bodyWeightKg * minutes
	return &kcal
}

// Store is the slice of the session store ingest writes to. *storage.DB
// satisfies it.
type Store interface {
	GetUserWeight(ctx context.Context, userID int) (*float64, error)
	InsertSession(ctx context.Context, s models.TrainingSession) (int64, bool, error)
	InsertIngestLog(ctx context.Context, log storage.IngestLog) (int64, error)
}

// Provider stores validated sessions and writes an audit row per ingest
// operation.
type Provider struct {
	db  Store
	log *slog.Logger
}

// NewProvider creates a session ingest provider.
func NewProvider(db Store, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest validates and stores a batch of sessions for a user. The whole
// batch is rejected before any write on the first invalid payload. Each
// session then commits atomically with its performances; sessions whose
// (user, startedAt, endedAt) window is already on record are skipped, not
// duplicated, so re-sending a batch after a mid-batch failure or a lost
// acknowledgement is safe.
func (p *Provider) Ingest(ctx context.Context, userID int, payloads []SessionPayload, source string) (*Result, error) {
	started := time.Now()
	result := &Result{SessionsReceived: len(payloads)}

	bodyWeight, err := p.db.GetUserWeight(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching body weight: %w", err)
	}

	sessions := make([]models.TrainingSession, 0, len(payloads))
	for _, payload := range payloads {
		s, err := BuildSession(userID, payload, bodyWeight)
		if err != nil {
			p.logIngest(userID, source, result, err, started)
			return nil, err
		}
		sessions = append(sessions, s)
	}

	for _, s := range sessions {
		_, inserted, err := p.db.InsertSession(ctx, s)
		if err != nil {
			p.logIngest(userID, source, result, err, started)
			return nil, fmt.Errorf("storing session: %w", err)
		}
		if !inserted {
			result.SessionsSkipped++
			continue
		}
		result.SessionsInserted++
		result.PerformancesInserted += len(s.Performances)
	}

	p.logIngest(userID, source, result, nil, started)
	return result, nil
}

func (p *Provider) logIngest(userID int, source string, result *Result, ingestErr error, started time.Time) {
	status := "success"
	var errMsg *string
	if ingestErr != nil {
		status = "error"
		msg := ingestErr.Error()
		errMsg = &msg
	}
	durationMs := int(time.Since(started).Milliseconds())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := p.db.InsertIngestLog(ctx, storage.IngestLog{
		UserID:               userID,
		Source:               source,
		Status:               status,
		SessionsReceived:     result.SessionsReceived,
		SessionsInserted:     result.SessionsInserted,
		PerformancesInserted: result.PerformancesInserted,
		DurationMs:           &durationMs,
		ErrorMessage:         errMsg,
	}); err != nil {
		p.log.Error("failed to log ingest", "source", source, "error", err)
	}
}
