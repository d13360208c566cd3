package storage

import (
	"context"
	"fmt"
)

// GetOrCreateUser finds or creates a user by Tailscale login name.
// Returns the user ID. Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	return id, err
}

// GetUserWeight returns the user's current stored body weight in kg, or nil
// when none has been recorded. Calorie estimation and bodyweight-exercise
// resolution both read this current value, never a historical snapshot.
func (db *DB) GetUserWeight(ctx context.Context, userID int) (*float64, error) {
	var weight *float64
	err := db.Pool.QueryRow(ctx,
		`SELECT weight_kg FROM users WHERE id = $1`, userID,
	).Scan(&weight)
	if err != nil {
		return nil, fmt.Errorf("querying user weight: %w", err)
	}
	return weight, nil
}

// SetUserWeight records a body-weight submission. The weight_logs row is
// appended only when the value differs from the currently stored weight,
// keeping the log a change log rather than a periodic one. Returns whether
// anything changed.
func (db *DB) SetUserWeight(ctx context.Context, userID int, valueKg float64) (bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning weight update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current *float64
	if err := tx.QueryRow(ctx,
		`SELECT weight_kg FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&current); err != nil {
		return false, fmt.Errorf("querying current weight: %w", err)
	}

	if current != nil && *current == valueKg {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET weight_kg = $2 WHERE id = $1`, userID, valueKg); err != nil {
		return false, fmt.Errorf("updating weight: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO weight_logs (user_id, value) VALUES ($1, $2)`, userID, valueKg); err != nil {
		return false, fmt.Errorf("appending weight log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing weight update: %w", err)
	}
	return true, nil
}
