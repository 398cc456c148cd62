// Package session owns the session entity during an edit: mode switching,
// aggregate derivation from the roll ledger, field validation, and the
// all-or-nothing save through the session store.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/claude/matlog/internal/ledger"
	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

// Store is the persistence collaborator. *storage.DB satisfies it.
type Store interface {
	GetSession(ctx context.Context, id uuid.UUID, userID int) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID, userID int) error
}

// ValidationError reports missing or invalid session fields, one message
// per field. It is recoverable: nothing is persisted when it is returned.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "invalid session: " + strings.Join(names, ", ")
}

// Editor wraps one session and its ledgers for the duration of an edit.
// Both ledgers are retained in memory regardless of mode, so switching
// detailed -> simple -> detailed within one edit loses nothing; the mode
// only decides what the save payload carries.
type Editor struct {
	meta       models.Session
	Rolls      *ledger.RollLedger
	Techniques *ledger.TechniqueLedger
	store      Store
}

// NewEditor starts an edit over s. For a new session s.ID may be zero; an
// id is assigned on the first save.
func NewEditor(store Store, s models.Session) *Editor {
	e := &Editor{
		meta:       s,
		Rolls:      ledger.NewRollLedger(s.Rolls),
		Techniques: ledger.NewTechniqueLedger(s.Techniques),
		store:      store,
	}
	e.meta.Rolls = nil
	e.meta.Techniques = nil
	if e.meta.Mode == "" {
		e.meta.Mode = models.ModeSimple
	}
	return e
}

// Meta returns the session's scalar fields as currently edited.
func (e *Editor) Meta() models.Session { return e.meta }

// SetMeta replaces the session's scalar fields. Ledgers, mode and derived
// aggregates are owned by the editor and ignored on the way in.
func (e *Editor) SetMeta(s models.Session) {
	mode := e.meta.Mode
	id, userID := e.meta.ID, e.meta.UserID
	e.meta = s
	e.meta.Rolls = nil
	e.meta.Techniques = nil
	e.meta.Mode = mode
	e.meta.ID, e.meta.UserID = id, userID
}

// SetMode switches between simple and detailed recording. Roll data is
// never discarded here.
func (e *Editor) SetMode(m models.SessionMode) {
	e.meta.Mode = m
}

// RecomputeAggregates derives the aggregate counters from the roll ledger.
// In simple mode the user-entered aggregates are left alone.
func (e *Editor) RecomputeAggregates() {
	if e.meta.Mode != models.ModeDetailed {
		return
	}
	rolls := e.Rolls.Rolls()
	e.meta.RollCount = len(rolls)
	e.meta.SubmissionsFor = 0
	e.meta.SubmissionsAgainst = 0
	for _, r := range rolls {
		e.meta.SubmissionsFor += len(r.SubmissionsFor)
		e.meta.SubmissionsAgainst += len(r.SubmissionsAgainst)
	}
}

// Validate checks required fields. A nil return means the session is
// saveable.
func (e *Editor) Validate() *ValidationError {
	fields := make(map[string]string)
	if e.meta.Date.IsZero() {
		fields["date"] = "date is required"
	}
	if e.meta.ClassType == "" {
		fields["class_type"] = "class type is required"
	}
	if e.meta.GymName == "" {
		fields["gym_name"] = "gym name is required"
	}
	if e.meta.DurationMinutes <= 0 {
		fields["duration_minutes"] = "duration must be positive"
	}
	if e.meta.Intensity < 1 || e.meta.Intensity > 5 {
		fields["intensity"] = "intensity must be between 1 and 5"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// BuildPayload assembles the session as it should be persisted: the roll
// ledger and partner list are mutually exclusive by mode, techniques are
// included either way with drafts filtered out.
func (e *Editor) BuildPayload() models.Session {
	s := e.meta
	s.Techniques = e.Techniques.Payload()
	switch s.Mode {
	case models.ModeDetailed:
		s.Rolls = e.Rolls.Payload()
		s.PartnerIDs = nil
	default:
		s.Rolls = nil
	}
	return s
}

// Save recomputes aggregates, validates, and persists in one store call.
// It never partially persists: a validation failure or store error leaves
// the stored session untouched.
func (e *Editor) Save(ctx context.Context) (*models.Session, error) {
	e.RecomputeAggregates()
	if verr := e.Validate(); verr != nil {
		return nil, verr
	}

	payload := e.BuildPayload()
	if payload.ID == uuid.Nil {
		payload.ID = uuid.New()
	}

	if err := e.store.SaveSession(ctx, &payload); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	e.meta.ID = payload.ID
	return &payload, nil
}
