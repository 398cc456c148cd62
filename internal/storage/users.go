package storage

import (
	"context"
	"fmt"
)

// UpsertUser inserts or refreshes a user by Tailscale login and returns the id.
func (db *DB) UpsertUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (login, display_name) VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE SET display_name = EXCLUDED.display_name
		 RETURNING id`,
		login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user: %w", err)
	}
	return id, nil
}
