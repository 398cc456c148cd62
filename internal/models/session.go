package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionMode selects how roll data is recorded: aggregate totals only,
// or an explicit per-roll ledger.
type SessionMode string

const (
	ModeSimple   SessionMode = "simple"
	ModeDetailed SessionMode = "detailed"
)

// ClassType is the kind of class a session was logged under.
type ClassType string

const (
	ClassGi          ClassType = "gi"
	ClassNoGi        ClassType = "nogi"
	ClassOpenMat     ClassType = "open_mat"
	ClassDrilling    ClassType = "drilling"
	ClassPrivate     ClassType = "private"
	ClassCompetition ClassType = "competition"
)

// Session is one logged training session. Aggregate fields (RollCount,
// SubmissionsFor, SubmissionsAgainst) are always present; in detailed mode
// they are derived from Rolls and recomputed on every save rather than
// trusted from the client.
type Session struct {
	ID              uuid.UUID   `json:"id"`
	UserID          int         `json:"user_id"`
	Date            time.Time   `json:"date"`
	TimeOfDay       *string     `json:"time_of_day,omitempty"` // "15:04", local to the gym
	ClassType       ClassType   `json:"class_type"`
	GymName         string      `json:"gym_name"`
	Location        *string     `json:"location,omitempty"`
	DurationMinutes int         `json:"duration_minutes"`
	Intensity       int         `json:"intensity"` // 1-5
	Mode            SessionMode `json:"mode"`

	RollCount          int `json:"roll_count"`
	SubmissionsFor     int `json:"submissions_for"`
	SubmissionsAgainst int `json:"submissions_against"`

	// PartnerIDs is used in simple mode only; Rolls in detailed mode only.
	// Techniques are recorded independently of the mode.
	PartnerIDs []uuid.UUID `json:"partner_ids,omitempty"`
	Rolls      []Roll      `json:"rolls,omitempty"`
	Techniques []Technique `json:"techniques,omitempty"`

	Strain            *float64   `json:"strain,omitempty"`
	Calories          *float64   `json:"calories,omitempty"`
	AvgHeartRate      *float64   `json:"avg_heart_rate,omitempty"`
	MaxHeartRate      *float64   `json:"max_heart_rate,omitempty"`
	WearableWorkoutID *uuid.UUID `json:"wearable_workout_id,omitempty"`
	NeedsReview       bool       `json:"needs_review"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roll is one timed sparring round within a session. Submissions are sets
// of movement ids, not counts, so the client can show and remove
// individual tags.
type Roll struct {
	RollNumber         int         `json:"roll_number"`
	PartnerID          *uuid.UUID  `json:"partner_id,omitempty"`
	PartnerName        *string     `json:"partner_name,omitempty"`
	DurationMinutes    int         `json:"duration_minutes"`
	SubmissionsFor     []uuid.UUID `json:"submissions_for,omitempty"`
	SubmissionsAgainst []uuid.UUID `json:"submissions_against,omitempty"`
	Notes              *string     `json:"notes,omitempty"`
}

// MediaType distinguishes reference media attached to a technique entry.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

// MediaRef is one reference link attached to a technique entry.
type MediaRef struct {
	Type  MediaType `json:"type"`
	URL   string    `json:"url"`
	Title *string   `json:"title,omitempty"`
}

// Technique is one studied-technique entry. MovementName is a denormalized
// snapshot of the glossary name at tagging time; entries with no resolved
// MovementID are drafts and are dropped from the save payload.
type Technique struct {
	TechniqueNumber int        `json:"technique_number"`
	MovementID      *uuid.UUID `json:"movement_id,omitempty"`
	MovementName    string     `json:"movement_name"`
	Notes           *string    `json:"notes,omitempty"`
	Media           []MediaRef `json:"media,omitempty"`
}

// Movement is one entry in the technique glossary.
type Movement struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
}
