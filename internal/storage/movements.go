package storage

import (
	"context"
	"fmt"

	"github.com/claude/matlog/internal/models"
)

// SearchMovements filters the technique glossary by name substring,
// case-insensitive. Synchronous; debouncing is the caller's concern.
func (db *DB) SearchMovements(ctx context.Context, query string, limit int) ([]models.Movement, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, category FROM movements
		 WHERE name ILIKE '%' || $1 || '%'
		 ORDER BY name
		 LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching movements: %w", err)
	}
	defer rows.Close()

	var out []models.Movement
	for rows.Next() {
		var m models.Movement
		if err := rows.Scan(&m.ID, &m.Name, &m.Category); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
