package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertWearableWorkout inserts a wearable workout record. Returns true if
// inserted, false if the record was already known (re-ingest is a no-op).
func (db *DB) InsertWearableWorkout(ctx context.Context, w models.WearableWorkout) (bool, error) {
	zones, err := json.Marshal(w.Zones)
	if err != nil {
		return false, fmt.Errorf("encoding zone durations: %w", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO wearable_workouts (id, user_id, start_time, end_time, strain, calories,
		 avg_heart_rate, max_heart_rate, zone_durations)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT DO NOTHING`,
		w.ID, w.UserID, w.StartTime, w.EndTime, w.Strain, w.Calories,
		w.AvgHeartRate, w.MaxHeartRate, zones)
	if err != nil {
		return false, fmt.Errorf("inserting wearable workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryWearableWorkouts retrieves workout records whose start falls in a
// time range.
func (db *DB) QueryWearableWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.WearableWorkout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, start_time, end_time, strain, calories,
		 avg_heart_rate, max_heart_rate, zone_durations
		 FROM wearable_workouts
		 WHERE start_time >= $1 AND start_time < $2 AND user_id = $3
		 ORDER BY start_time ASC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying wearable workouts: %w", err)
	}
	defer rows.Close()

	var out []models.WearableWorkout
	for rows.Next() {
		w, err := scanWearableWorkout(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetWearableWorkout retrieves one workout record by id.
func (db *DB) GetWearableWorkout(ctx context.Context, id uuid.UUID, userID int) (*models.WearableWorkout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, start_time, end_time, strain, calories,
		 avg_heart_rate, max_heart_rate, zone_durations
		 FROM wearable_workouts WHERE id = $1 AND user_id = $2`,
		id, userID)
	w, err := scanWearableWorkout(row.Scan)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWearableWorkout(scan func(dest ...any) error) (models.WearableWorkout, error) {
	var w models.WearableWorkout
	var zones []byte
	if err := scan(&w.ID, &w.UserID, &w.StartTime, &w.EndTime, &w.Strain, &w.Calories,
		&w.AvgHeartRate, &w.MaxHeartRate, &zones); err != nil {
		return w, fmt.Errorf("scanning wearable workout: %w", err)
	}
	if len(zones) > 0 {
		if err := json.Unmarshal(zones, &w.Zones); err != nil {
			return w, fmt.Errorf("decoding zone durations: %w", err)
		}
	}
	return w, nil
}

// ConfirmedWorkoutIDs maps workout id -> session id for every confirmed
// match owned by the user. Used to keep one workout from matching two
// sessions.
func (db *DB) ConfirmedWorkoutIDs(ctx context.Context, userID int) (map[uuid.UUID]uuid.UUID, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT wearable_workout_id, id FROM sessions
		 WHERE user_id = $1 AND wearable_workout_id IS NOT NULL`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying confirmed matches: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]uuid.UUID)
	for rows.Next() {
		var workoutID, sessionID uuid.UUID
		if err := rows.Scan(&workoutID, &sessionID); err != nil {
			return nil, fmt.Errorf("scanning confirmed match: %w", err)
		}
		out[workoutID] = sessionID
	}
	return out, rows.Err()
}

// ApplyMatch writes a confirmed match's wearable metrics onto the session row.
func (db *DB) ApplyMatch(ctx context.Context, s *models.Session, w models.WearableWorkout, needsReview bool) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions
		 SET wearable_workout_id = $1, strain = $2, calories = $3,
		     avg_heart_rate = $4, max_heart_rate = $5, needs_review = $6,
		     updated_at = now()
		 WHERE id = $7 AND user_id = $8`,
		w.ID, w.Strain, w.Calories, w.AvgHeartRate, w.MaxHeartRate, needsReview,
		s.ID, s.UserID)
	if err != nil {
		return fmt.Errorf("applying match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearMatch removes a session's wearable association and blanks the
// copied metrics, freeing the workout for matching again.
func (db *DB) ClearMatch(ctx context.Context, sessionID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions
		 SET wearable_workout_id = NULL, strain = NULL, calories = NULL,
		     avg_heart_rate = NULL, max_heart_rate = NULL, needs_review = FALSE,
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	if err != nil {
		return fmt.Errorf("clearing match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetZonesForSessions returns each matched session's workout record, keyed
// by session id. Sessions without a confirmed match are simply absent.
func (db *DB) GetZonesForSessions(ctx context.Context, sessionIDs []uuid.UUID, userID int) (map[uuid.UUID]models.WearableWorkout, error) {
	if len(sessionIDs) == 0 {
		return map[uuid.UUID]models.WearableWorkout{}, nil
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, w.id, w.user_id, w.start_time, w.end_time, w.strain, w.calories,
		 w.avg_heart_rate, w.max_heart_rate, w.zone_durations
		 FROM sessions s
		 JOIN wearable_workouts w ON w.id = s.wearable_workout_id
		 WHERE s.id = ANY($1) AND s.user_id = $2`,
		sessionIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("querying session zones: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.WearableWorkout)
	for rows.Next() {
		var sessionID uuid.UUID
		var w models.WearableWorkout
		var zones []byte
		if err := rows.Scan(&sessionID, &w.ID, &w.UserID, &w.StartTime, &w.EndTime,
			&w.Strain, &w.Calories, &w.AvgHeartRate, &w.MaxHeartRate, &zones); err != nil {
			return nil, fmt.Errorf("scanning session zones: %w", err)
		}
		if len(zones) > 0 {
			if err := json.Unmarshal(zones, &w.Zones); err != nil {
				return nil, fmt.Errorf("decoding zone durations: %w", err)
			}
		}
		out[sessionID] = w
	}
	return out, rows.Err()
}

// GrantedScopes returns the wearable integration scopes currently granted
// for a user. An empty slice means nothing is granted.
func (db *DB) GrantedScopes(ctx context.Context, userID int) ([]string, error) {
	var scopes []string
	err := db.Pool.QueryRow(ctx,
		`SELECT scopes FROM wearable_scopes WHERE user_id = $1`, userID).Scan(&scopes)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row yet means no grants recorded.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying granted scopes: %w", err)
	}
	return scopes, nil
}

// SetGrantedScopes records the scope list reported by the wearable
// integration after (re-)authorization.
func (db *DB) SetGrantedScopes(ctx context.Context, userID int, scopes []string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO wearable_scopes (user_id, scopes, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET scopes = EXCLUDED.scopes, updated_at = now()`,
		userID, scopes)
	if err != nil {
		return fmt.Errorf("storing granted scopes: %w", err)
	}
	return nil
}
