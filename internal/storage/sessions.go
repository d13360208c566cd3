package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fitlink/fitstats/internal/models"
)

// ErrNotFound is returned when a requested session does not exist or is
// owned by another user.
var ErrNotFound = errors.New("not found")

// FetchSessionsForUser loads the user's complete session history, each
// session with its nested performances and the linked routine's current
// title. The statistics aggregator reduces this set in memory, so the
// query is deliberately unfiltered.
func (db *DB) FetchSessionsForUser(ctx context.Context, userID int) ([]models.TrainingSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.user_id, s.routine_id, r.title, s.started_at, s.ended_at,
		 s.duration_sec, s.total_weight, s.calories_burned, s.created_at
		 FROM sessions s
		 LEFT JOIN routines r ON r.id = s.routine_id
		 WHERE s.user_id = $1
		 ORDER BY s.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.TrainingSession
	index := make(map[int64]int)
	for rows.Next() {
		var s models.TrainingSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoutineID, &s.RoutineTitle,
			&s.StartedAt, &s.EndedAt, &s.DurationSec, &s.TotalWeight,
			&s.CaloriesBurned, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	perfRows, err := db.Pool.Query(ctx,
		`SELECT p.id, p.session_id, p.exercise_id, p.name, p.reps, p.weights, p.is_bodyweight
		 FROM performances p
		 JOIN sessions s ON s.id = p.session_id
		 WHERE s.user_id = $1
		 ORDER BY p.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying performances: %w", err)
	}
	defer perfRows.Close()

	for perfRows.Next() {
		var p models.ExercisePerformance
		if err := perfRows.Scan(&p.ID, &p.SessionID, &p.ExerciseID, &p.Name,
			&p.Reps, &p.Weights, &p.IsBodyweight); err != nil {
			return nil, fmt.Errorf("scanning performance: %w", err)
		}
		if i, ok := index[p.SessionID]; ok {
			sessions[i].Performances = append(sessions[i].Performances, p)
		}
	}
	return sessions, perfRows.Err()
}

// FetchPerformancesForUser returns the user's performances flattened across
// sessions, each carrying its parent session's start time, in ascending
// performance-id order. That is creation order, which can diverge from
// StartedAt order when sessions are back-dated; the improvement analyzer
// depends on it.
func (db *DB) FetchPerformancesForUser(ctx context.Context, userID int) ([]models.PerformanceEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT p.id, p.exercise_id, p.name, p.weights, p.is_bodyweight, s.started_at
		 FROM performances p
		 JOIN sessions s ON s.id = p.session_id
		 WHERE s.user_id = $1
		 ORDER BY p.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying performances: %w", err)
	}
	defer rows.Close()

	var entries []models.PerformanceEntry
	for rows.Next() {
		var e models.PerformanceEntry
		if err := rows.Scan(&e.ID, &e.ExerciseID, &e.Name, &e.Weights,
			&e.IsBodyweight, &e.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning performance entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetSession retrieves a single session with its performances.
func (db *DB) GetSession(ctx context.Context, sessionID int64, userID int) (*models.TrainingSession, error) {
	var s models.TrainingSession
	err := db.Pool.QueryRow(ctx,
		`SELECT s.id, s.user_id, s.routine_id, r.title, s.started_at, s.ended_at,
		 s.duration_sec, s.total_weight, s.calories_burned, s.created_at
		 FROM sessions s
		 LEFT JOIN routines r ON r.id = s.routine_id
		 WHERE s.id = $1 AND s.user_id = $2`, sessionID, userID,
	).Scan(&s.ID, &s.UserID, &s.RoutineID, &s.RoutineTitle, &s.StartedAt,
		&s.EndedAt, &s.DurationSec, &s.TotalWeight, &s.CaloriesBurned, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, session_id, exercise_id, name, reps, weights, is_bodyweight
		 FROM performances WHERE session_id = $1 ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying performances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ExercisePerformance
		if err := rows.Scan(&p.ID, &p.SessionID, &p.ExerciseID, &p.Name,
			&p.Reps, &p.Weights, &p.IsBodyweight); err != nil {
			return nil, fmt.Errorf("scanning performance: %w", err)
		}
		s.Performances = append(s.Performances, p)
	}
	return &s, rows.Err()
}

// InsertSession stores a session and its performances atomically. The
// second return reports whether a row was inserted: a session matching an
// already stored (user, started_at, ended_at) window is skipped, so
// re-sending a batch after a lost acknowledgement cannot duplicate
// sessions. The derived fields (duration, total weight, calories) arrive
// precomputed from ingest and are stored as-is.
func (db *DB) InsertSession(ctx context.Context, s models.TrainingSession) (int64, bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("beginning session insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sessions (user_id, routine_id, started_at, ended_at,
		 duration_sec, total_weight, calories_burned)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id, started_at, ended_at) DO NOTHING
		 RETURNING id`,
		s.UserID, s.RoutineID, s.StartedAt, s.EndedAt,
		s.DurationSec, s.TotalWeight, s.CaloriesBurned,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("inserting session: %w", err)
	}

	for _, p := range s.Performances {
		if _, err := tx.Exec(ctx,
			`INSERT INTO performances (session_id, exercise_id, name, reps, weights, is_bodyweight)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			id, p.ExerciseID, p.Name, p.Reps, p.Weights, p.IsBodyweight); err != nil {
			return 0, false, fmt.Errorf("inserting performance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("committing session insert: %w", err)
	}
	return id, true, nil
}

// DeleteSession removes a session; performances cascade with it.
func (db *DB) DeleteSession(ctx context.Context, sessionID int64, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
