package storage

import (
	"context"
	"fmt"

	"github.com/fitlink/fitstats/internal/models"
)

// FetchWeightLogsForUser returns the user's body-weight change log,
// ascending by date. The weight-history formatter emits these in the same
// order without filtering.
func (db *DB) FetchWeightLogsForUser(ctx context.Context, userID int) ([]models.WeightLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, value, date
		 FROM weight_logs
		 WHERE user_id = $1
		 ORDER BY date ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying weight logs: %w", err)
	}
	defer rows.Close()

	var logs []models.WeightLog
	for rows.Next() {
		var l models.WeightLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Value, &l.Date); err != nil {
			return nil, fmt.Errorf("scanning weight log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
