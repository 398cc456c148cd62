package models

import (
	"time"

	"github.com/google/uuid"
)

// ZoneDurations maps heart-rate zone name to minutes spent in that zone.
type ZoneDurations map[string]float64

// WearableWorkout is an externally reported workout record (WHOOP). It is
// read-only to this system: reconciliation copies its metrics onto a
// matched session but never mutates the record itself.
type WearableWorkout struct {
	ID           uuid.UUID     `json:"id"`
	UserID       int           `json:"user_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Strain       float64       `json:"strain"`
	Calories     float64       `json:"calories"`
	AvgHeartRate *float64      `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *float64      `json:"max_heart_rate,omitempty"`
	Zones        ZoneDurations `json:"zone_durations,omitempty"`
}

// DurationMinutes returns the workout's reported length in minutes.
func (w WearableWorkout) DurationMinutes() float64 {
	return w.EndTime.Sub(w.StartTime).Minutes()
}

// Match pairs a wearable workout with a logged session. It is ephemeral:
// once confirmed, the association lives on the session's wearable fields
// and the Match itself is discardable.
type Match struct {
	SessionID uuid.UUID `json:"session_id"`
	WorkoutID uuid.UUID `json:"workout_id"`
	Score     float64   `json:"score"`
	Confirmed bool      `json:"confirmed"`
}
