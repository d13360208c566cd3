package storage

import (
	"context"
	"fmt"
	"time"
)

// IngestLog records one ingest operation's outcome for auditing.
type IngestLog struct {
	ID                   int64     `json:"id"`
	UserID               int       `json:"user_id"`
	CreatedAt            time.Time `json:"created_at"`
	Source               string    `json:"source"`
	Status               string    `json:"status"`
	SessionsReceived     int       `json:"sessions_received"`
	SessionsInserted     int       `json:"sessions_inserted"`
	PerformancesInserted int       `json:"performances_inserted"`
	DurationMs           *int      `json:"duration_ms"`
	ErrorMessage         *string   `json:"error_message"`
}

// InsertIngestLog creates a new ingest log entry and returns its ID.
func (db *DB) InsertIngestLog(ctx context.Context, log IngestLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO ingest_logs (user_id, source, status, sessions_received,
		 sessions_inserted, performances_inserted, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.SessionsReceived,
		log.SessionsInserted, log.PerformancesInserted, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting ingest log: %w", err)
	}
	return id, nil
}

// QueryIngestLogs returns the most recent ingest logs for a user.
func (db *DB) QueryIngestLogs(ctx context.Context, userID, limit int) ([]IngestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, status, sessions_received,
		 sessions_inserted, performances_inserted, duration_ms, error_message
		 FROM ingest_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingest logs: %w", err)
	}
	defer rows.Close()

	var result []IngestLog
	for rows.Next() {
		var l IngestLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Status,
			&l.SessionsReceived, &l.SessionsInserted, &l.PerformancesInserted,
			&l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning ingest log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
