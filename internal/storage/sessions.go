package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a session does not exist for the user.
var ErrNotFound = errors.New("storage: not found")

// SaveSession persists the session and its ledgers in one transaction.
// Rolls, techniques and partner links are replaced wholesale: they have no
// identity outside the session, so a full rewrite is simpler and keeps the
// stored ledgers exactly what the editor produced. All-or-nothing.
func (db *DB) SaveSession(ctx context.Context, s *models.Session) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, date, time_of_day, class_type, gym_name, location,
		 duration_minutes, intensity, mode, roll_count, submissions_for, submissions_against,
		 strain, calories, avg_heart_rate, max_heart_rate, wearable_workout_id, needs_review,
		 created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		 ON CONFLICT (id) DO UPDATE SET
		   date = EXCLUDED.date, time_of_day = EXCLUDED.time_of_day,
		   class_type = EXCLUDED.class_type, gym_name = EXCLUDED.gym_name,
		   location = EXCLUDED.location, duration_minutes = EXCLUDED.duration_minutes,
		   intensity = EXCLUDED.intensity, mode = EXCLUDED.mode,
		   roll_count = EXCLUDED.roll_count, submissions_for = EXCLUDED.submissions_for,
		   submissions_against = EXCLUDED.submissions_against,
		   strain = EXCLUDED.strain, calories = EXCLUDED.calories,
		   avg_heart_rate = EXCLUDED.avg_heart_rate, max_heart_rate = EXCLUDED.max_heart_rate,
		   wearable_workout_id = EXCLUDED.wearable_workout_id,
		   needs_review = EXCLUDED.needs_review, updated_at = EXCLUDED.updated_at`,
		s.ID, s.UserID, s.Date, s.TimeOfDay, s.ClassType, s.GymName, s.Location,
		s.DurationMinutes, s.Intensity, s.Mode, s.RollCount, s.SubmissionsFor, s.SubmissionsAgainst,
		s.Strain, s.Calories, s.AvgHeartRate, s.MaxHeartRate, s.WearableWorkoutID, s.NeedsReview,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	for _, table := range []string{"technique_media", "techniques", "rolls", "session_partners"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE session_id = $1", s.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, pid := range s.PartnerIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO session_partners (session_id, partner_id, position) VALUES ($1,$2,$3)`,
			s.ID, pid, i)
		if err != nil {
			return fmt.Errorf("inserting session partner: %w", err)
		}
	}

	for _, r := range s.Rolls {
		_, err := tx.Exec(ctx,
			`INSERT INTO rolls (session_id, roll_number, partner_id, partner_name,
			 duration_minutes, submissions_for, submissions_against, notes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			s.ID, r.RollNumber, r.PartnerID, r.PartnerName,
			r.DurationMinutes, r.SubmissionsFor, r.SubmissionsAgainst, r.Notes)
		if err != nil {
			return fmt.Errorf("inserting roll %d: %w", r.RollNumber, err)
		}
	}

	for _, t := range s.Techniques {
		_, err := tx.Exec(ctx,
			`INSERT INTO techniques (session_id, technique_number, movement_id, movement_name, notes)
			 VALUES ($1,$2,$3,$4,$5)`,
			s.ID, t.TechniqueNumber, t.MovementID, t.MovementName, t.Notes)
		if err != nil {
			return fmt.Errorf("inserting technique %d: %w", t.TechniqueNumber, err)
		}
		for pos, m := range t.Media {
			_, err := tx.Exec(ctx,
				`INSERT INTO technique_media (session_id, technique_number, position, media_type, url, title)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				s.ID, t.TechniqueNumber, pos, m.Type, m.URL, m.Title)
			if err != nil {
				return fmt.Errorf("inserting technique media: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

// GetSession loads a session with its rolls, techniques and partner links.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID, userID int) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx, sessionColumns+` FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if err := db.loadPartnerLinks(ctx, s); err != nil {
		return nil, err
	}
	if err := db.loadRolls(ctx, s); err != nil {
		return nil, err
	}
	if err := db.loadTechniques(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSession removes a session; rolls, techniques and partner links go
// with it via ON DELETE CASCADE.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QuerySessions retrieves session rows (no ledgers) in a date range.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		sessionColumns+` FROM sessions
		 WHERE date >= $1 AND date < $2 AND user_id = $3
		 ORDER BY date DESC, created_at DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// QueryUnmatchedSessions retrieves sessions in a date range that have no
// confirmed wearable match yet. Used by the batch reconciler.
func (db *DB) QueryUnmatchedSessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		sessionColumns+` FROM sessions
		 WHERE date >= $1 AND date < $2 AND user_id = $3 AND wearable_workout_id IS NULL
		 ORDER BY date ASC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying unmatched sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const sessionColumns = `SELECT id, user_id, date, time_of_day, class_type, gym_name, location,
 duration_minutes, intensity, mode, roll_count, submissions_for, submissions_against,
 strain, calories, avg_heart_rate, max_heart_rate, wearable_workout_id, needs_review,
 created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.Date, &s.TimeOfDay, &s.ClassType, &s.GymName, &s.Location,
		&s.DurationMinutes, &s.Intensity, &s.Mode, &s.RollCount, &s.SubmissionsFor, &s.SubmissionsAgainst,
		&s.Strain, &s.Calories, &s.AvgHeartRate, &s.MaxHeartRate, &s.WearableWorkoutID, &s.NeedsReview,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) loadPartnerLinks(ctx context.Context, s *models.Session) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT partner_id FROM session_partners WHERE session_id = $1 ORDER BY position`, s.ID)
	if err != nil {
		return fmt.Errorf("querying session partners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid uuid.UUID
		if err := rows.Scan(&pid); err != nil {
			return fmt.Errorf("scanning session partner: %w", err)
		}
		s.PartnerIDs = append(s.PartnerIDs, pid)
	}
	return rows.Err()
}

func (db *DB) loadRolls(ctx context.Context, s *models.Session) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT roll_number, partner_id, partner_name, duration_minutes,
		 submissions_for, submissions_against, notes
		 FROM rolls WHERE session_id = $1 ORDER BY roll_number`, s.ID)
	if err != nil {
		return fmt.Errorf("querying rolls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Roll
		if err := rows.Scan(&r.RollNumber, &r.PartnerID, &r.PartnerName, &r.DurationMinutes,
			&r.SubmissionsFor, &r.SubmissionsAgainst, &r.Notes); err != nil {
			return fmt.Errorf("scanning roll: %w", err)
		}
		s.Rolls = append(s.Rolls, r)
	}
	return rows.Err()
}

func (db *DB) loadTechniques(ctx context.Context, s *models.Session) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT technique_number, movement_id, movement_name, notes
		 FROM techniques WHERE session_id = $1 ORDER BY technique_number`, s.ID)
	if err != nil {
		return fmt.Errorf("querying techniques: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Technique
		if err := rows.Scan(&t.TechniqueNumber, &t.MovementID, &t.MovementName, &t.Notes); err != nil {
			return fmt.Errorf("scanning technique: %w", err)
		}
		s.Techniques = append(s.Techniques, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(s.Techniques) == 0 {
		return nil
	}

	mediaRows, err := db.Pool.Query(ctx,
		`SELECT technique_number, media_type, url, title
		 FROM technique_media WHERE session_id = $1 ORDER BY technique_number, position`, s.ID)
	if err != nil {
		return fmt.Errorf("querying technique media: %w", err)
	}
	defer mediaRows.Close()

	byNumber := make(map[int]int, len(s.Techniques))
	for i, t := range s.Techniques {
		byNumber[t.TechniqueNumber] = i
	}

	for mediaRows.Next() {
		var n int
		var m models.MediaRef
		if err := mediaRows.Scan(&n, &m.Type, &m.URL, &m.Title); err != nil {
			return fmt.Errorf("scanning technique media: %w", err)
		}
		if i, ok := byNumber[n]; ok {
			s.Techniques[i].Media = append(s.Techniques[i].Media, m)
		}
	}
	return mediaRows.Err()
}
