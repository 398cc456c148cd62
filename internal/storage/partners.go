package storage

import (
	"context"
	"fmt"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

// ListPartnerSources returns the three raw contact lists for a user. The
// lists are returned un-merged; deduplication belongs to partners.Merge.
func (db *DB) ListPartnerSources(ctx context.Context, userID int) (manual, instructors, social []models.Partner, err error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT person_id, name, source, belt_rank
		 FROM partner_contacts
		 WHERE user_id = $1
		 ORDER BY source, name`,
		userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("querying partner contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Partner
		var personID *uuid.UUID
		if err := rows.Scan(&personID, &p.Name, &p.Source, &p.BeltRank); err != nil {
			return nil, nil, nil, fmt.Errorf("scanning partner contact: %w", err)
		}
		if personID != nil {
			p.ID = *personID
		}
		switch p.Source {
		case models.SourceInstructor:
			instructors = append(instructors, p)
		case models.SourceSocial:
			social = append(social, p)
		default:
			manual = append(manual, p)
		}
	}
	return manual, instructors, social, rows.Err()
}
