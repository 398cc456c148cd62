// Package reconcile matches externally reported wearable workouts (WHOOP)
// to logged sessions. Matching is proposal-based: candidates are scored
// and returned for user confirmation; only a single high-confidence
// candidate may be pre-selected, and even then it is flagged for review.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

const (
	// candidateWindow bounds how far a workout's start may drift from the
	// session's estimated start before it is excluded outright rather than
	// scored. Keeps an unrelated morning workout from ever ranking against
	// an evening class.
	candidateWindow = 4 * time.Hour

	// autoApplyThreshold is the minimum score for pre-selecting a match
	// without user action. Applied only when exactly one candidate clears it.
	autoApplyThreshold = 0.85

	startWeight    = 0.7
	durationWeight = 0.3
)

// ErrReauthorizationRequired signals that the wearable integration's
// granted scopes no longer cover what sync needs. The caller prompts
// re-authorization; sync simply does not proceed.
var ErrReauthorizationRequired = errors.New("wearable reauthorization required")

// MatchStore is the persistence surface the reconciler needs.
// *storage.DB satisfies it.
type MatchStore interface {
	// ConfirmedWorkoutIDs maps workout id -> session id for every
	// confirmed match owned by the user.
	ConfirmedWorkoutIDs(ctx context.Context, userID int) (map[uuid.UUID]uuid.UUID, error)
	ApplyMatch(ctx context.Context, s *models.Session, w models.WearableWorkout, needsReview bool) error
	ClearMatch(ctx context.Context, sessionID uuid.UUID, userID int) error
}

// Reconciler proposes and records session/workout matches.
type Reconciler struct {
	store MatchStore
	log   *slog.Logger
}

// New creates a Reconciler.
func New(store MatchStore, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// FindCandidates scores workouts against the session and returns matches
// sorted by descending score. Workouts starting outside the candidate
// window, and workouts already confirmed-matched to another session, are
// excluded. An empty result is a valid outcome, not an error.
func (r *Reconciler) FindCandidates(ctx context.Context, s models.Session, workouts []models.WearableWorkout) ([]models.Match, error) {
	taken, err := r.store.ConfirmedWorkoutIDs(ctx, s.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading confirmed matches: %w", err)
	}
	return scoreCandidates(s, workouts, taken), nil
}

// scoreCandidates is the pure core of FindCandidates.
func scoreCandidates(s models.Session, workouts []models.WearableWorkout, taken map[uuid.UUID]uuid.UUID) []models.Match {
	est := EstimateStart(s)

	var out []models.Match
	for _, w := range workouts {
		if owner, ok := taken[w.ID]; ok && owner != s.ID {
			continue
		}
		gap := absDuration(w.StartTime.Sub(est))
		if gap > candidateWindow {
			continue
		}
		out = append(out, models.Match{
			SessionID: s.ID,
			WorkoutID: w.ID,
			Score:     score(gap, float64(s.DurationMinutes), w.DurationMinutes()),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// score combines temporal proximity (weighted most heavily) with the
// overlap ratio between stated and reported duration. Both terms are in
// [0, 1], so the combined score is too.
func score(startGap time.Duration, sessionMinutes, workoutMinutes float64) float64 {
	proximity := 1 - startGap.Minutes()/candidateWindow.Minutes()
	if proximity < 0 {
		proximity = 0
	}

	var overlap float64
	if sessionMinutes > 0 && workoutMinutes > 0 {
		overlap = sessionMinutes / workoutMinutes
		if overlap > 1 {
			overlap = 1 / overlap
		}
	}

	return startWeight*proximity + durationWeight*overlap
}

// AutoSelect returns the candidate to pre-select, if any: exactly one
// candidate must clear the high-confidence threshold. The caller still
// records it with needs_review set so the user can reject it.
func AutoSelect(candidates []models.Match) (models.Match, bool) {
	var picked models.Match
	var n int
	for _, c := range candidates {
		if c.Score >= autoApplyThreshold {
			picked = c
			n++
		}
	}
	if n != 1 {
		return models.Match{}, false
	}
	return picked, true
}

// EstimateStart derives the session's start instant from its date and
// optional time of day. A session with no time is assumed to start midday,
// which keeps the candidate window centered on the only day we know about.
func EstimateStart(s models.Session) time.Time {
	d := s.Date
	hour, minute := 12, 0
	if s.TimeOfDay != nil {
		if t, err := time.Parse("15:04", *s.TimeOfDay); err == nil {
			hour, minute = t.Hour(), t.Minute()
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

// Confirm records a match: the session's wearable fields are set from the
// workout and the association persisted. Confirming the already-recorded
// pair again is a no-op, so re-invocation after a transient failure is
// always safe. Confirming a different workout replaces the association.
func (r *Reconciler) Confirm(ctx context.Context, s *models.Session, w models.WearableWorkout, needsReview bool) error {
	if s.WearableWorkoutID != nil && *s.WearableWorkoutID == w.ID {
		return nil
	}

	if err := r.store.ApplyMatch(ctx, s, w, needsReview); err != nil {
		return fmt.Errorf("applying match: %w", err)
	}

	applyWorkout(s, w, needsReview)
	r.log.Info("wearable match confirmed",
		"session_id", s.ID, "workout_id", w.ID, "needs_review", needsReview)
	return nil
}

// Clear removes the session's wearable association and blanks the copied
// metrics, making the workout eligible for matching again.
func (r *Reconciler) Clear(ctx context.Context, sessionID uuid.UUID, userID int) error {
	if err := r.store.ClearMatch(ctx, sessionID, userID); err != nil {
		return fmt.Errorf("clearing match: %w", err)
	}
	r.log.Info("wearable match cleared", "session_id", sessionID)
	return nil
}

// NeedsReauthorization reports whether any required scope is missing from
// the granted set. Pure set difference; no network.
func NeedsReauthorization(granted, required []string) bool {
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := have[s]; !ok {
			return true
		}
	}
	return false
}

func applyWorkout(s *models.Session, w models.WearableWorkout, needsReview bool) {
	id := w.ID
	strain, calories := w.Strain, w.Calories
	s.WearableWorkoutID = &id
	s.Strain = &strain
	s.Calories = &calories
	s.AvgHeartRate = w.AvgHeartRate
	s.MaxHeartRate = w.MaxHeartRate
	s.NeedsReview = needsReview
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
