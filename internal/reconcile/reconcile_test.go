package reconcile

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

// fakeMatchStore implements MatchStore in memory.
type fakeMatchStore struct {
	taken      map[uuid.UUID]uuid.UUID
	applied    int
	cleared    int
	lastReview bool
}

func (f *fakeMatchStore) ConfirmedWorkoutIDs(ctx context.Context, userID int) (map[uuid.UUID]uuid.UUID, error) {
	return f.taken, nil
}

func (f *fakeMatchStore) ApplyMatch(ctx context.Context, s *models.Session, w models.WearableWorkout, needsReview bool) error {
	f.applied++
	f.lastReview = needsReview
	return nil
}

func (f *fakeMatchStore) ClearMatch(ctx context.Context, sessionID uuid.UUID, userID int) error {
	f.cleared++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func timeptr(s string) *string { return &s }

func workout(start time.Time, minutes int) models.WearableWorkout {
	return models.WearableWorkout{
		ID:        uuid.New(),
		UserID:    1,
		StartTime: start,
		EndTime:   start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestFindCandidatesEveningClass(t *testing.T) {
	// A 90-minute class at 18:00. The tracked workout runs 17:55-19:30; a
	// morning run the same day must not appear as a candidate at all.
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s := models.Session{
		ID:              uuid.New(),
		UserID:          1,
		Date:            day,
		TimeOfDay:       timeptr("18:00"),
		DurationMinutes: 90,
	}

	evening := workout(time.Date(2026, 3, 10, 17, 55, 0, 0, time.UTC), 95)
	morning := workout(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 45)

	r := New(&fakeMatchStore{}, testLogger())
	got, err := r.FindCandidates(context.Background(), s, []models.WearableWorkout{morning, evening})
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1 (morning workout outside window)", len(got))
	}
	if got[0].WorkoutID != evening.ID {
		t.Errorf("top candidate = %s, want evening workout %s", got[0].WorkoutID, evening.ID)
	}
	if got[0].Score < autoApplyThreshold {
		t.Errorf("near-exact match scored %.3f, want >= %.2f", got[0].Score, autoApplyThreshold)
	}
}

func TestFindCandidatesSortedByScore(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s := models.Session{
		ID:              uuid.New(),
		UserID:          1,
		Date:            day,
		TimeOfDay:       timeptr("18:00"),
		DurationMinutes: 60,
	}

	near := workout(time.Date(2026, 3, 10, 18, 5, 0, 0, time.UTC), 60)
	far := workout(time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC), 60)

	r := New(&fakeMatchStore{}, testLogger())
	got, err := r.FindCandidates(context.Background(), s, []models.WearableWorkout{far, near})
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].WorkoutID != near.ID {
		t.Errorf("candidates not sorted by score: first = %s", got[0].WorkoutID)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("scores not descending: %.3f then %.3f", got[0].Score, got[1].Score)
	}
}

func TestFindCandidatesExcludesTakenWorkouts(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s := models.Session{
		ID:              uuid.New(),
		UserID:          1,
		Date:            day,
		TimeOfDay:       timeptr("18:00"),
		DurationMinutes: 60,
	}
	w := workout(time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC), 60)

	// Already confirmed against another session.
	store := &fakeMatchStore{taken: map[uuid.UUID]uuid.UUID{w.ID: uuid.New()}}
	r := New(store, testLogger())

	got, err := r.FindCandidates(context.Background(), s, []models.WearableWorkout{w})
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("candidates = %d, want 0 (workout taken by another session)", len(got))
	}

	// Taken by this same session: still a candidate, so re-running the
	// proposal after confirmation is stable.
	store.taken[w.ID] = s.ID
	got, err = r.FindCandidates(context.Background(), s, []models.WearableWorkout{w})
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1 (own confirmed workout stays visible)", len(got))
	}
}

func TestEstimateStart(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		timeOfDay *string
		wantHour  int
		wantMin   int
	}{
		{"explicit time", timeptr("18:30"), 18, 30},
		{"no time defaults to midday", nil, 12, 0},
		{"unparseable time defaults to midday", timeptr("evening"), 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateStart(models.Session{Date: day, TimeOfDay: tt.timeOfDay})
			if got.Hour() != tt.wantHour || got.Minute() != tt.wantMin {
				t.Errorf("EstimateStart = %02d:%02d, want %02d:%02d",
					got.Hour(), got.Minute(), tt.wantHour, tt.wantMin)
			}
			if !got.Truncate(24 * time.Hour).Equal(day) {
				t.Errorf("EstimateStart moved off the session date: %v", got)
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		gap            time.Duration
		sessionMinutes float64
		workoutMinutes float64
		want           float64
	}{
		{"perfect", 0, 90, 90, 1.0},
		{"exact start, half duration", 0, 45, 90, 0.7 + 0.3*0.5},
		{"window edge, exact duration", candidateWindow, 90, 90, 0.3},
		{"no duration data", 0, 0, 90, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := score(tt.gap, tt.sessionMinutes, tt.workoutMinutes)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("score = %.6f, want %.6f", got, tt.want)
			}
		})
	}
}

func TestAutoSelect(t *testing.T) {
	high := models.Match{WorkoutID: uuid.New(), Score: 0.92}
	alsoHigh := models.Match{WorkoutID: uuid.New(), Score: 0.88}
	low := models.Match{WorkoutID: uuid.New(), Score: 0.4}

	tests := []struct {
		name       string
		candidates []models.Match
		wantOK     bool
		wantID     uuid.UUID
	}{
		{"single high-confidence", []models.Match{high, low}, true, high.WorkoutID},
		{"two above threshold is ambiguous", []models.Match{high, alsoHigh}, false, uuid.Nil},
		{"none above threshold", []models.Match{low}, false, uuid.Nil},
		{"empty", nil, false, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AutoSelect(tt.candidates)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.WorkoutID != tt.wantID {
				t.Errorf("picked %s, want %s", got.WorkoutID, tt.wantID)
			}
		})
	}
}

func TestConfirmAppliesWorkout(t *testing.T) {
	store := &fakeMatchStore{}
	r := New(store, testLogger())

	s := models.Session{ID: uuid.New(), UserID: 1}
	avg, max := 152.0, 181.0
	w := models.WearableWorkout{
		ID:           uuid.New(),
		Strain:       14.2,
		Calories:     812,
		AvgHeartRate: &avg,
		MaxHeartRate: &max,
	}

	if err := r.Confirm(context.Background(), &s, w, true); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if s.WearableWorkoutID == nil || *s.WearableWorkoutID != w.ID {
		t.Fatalf("WearableWorkoutID = %v, want %s", s.WearableWorkoutID, w.ID)
	}
	if s.Strain == nil || *s.Strain != 14.2 {
		t.Errorf("Strain = %v, want 14.2", s.Strain)
	}
	if !s.NeedsReview {
		t.Error("NeedsReview not set on auto-applied match")
	}
	if !store.lastReview {
		t.Error("store did not receive needs_review flag")
	}
}

func TestConfirmIdempotent(t *testing.T) {
	store := &fakeMatchStore{}
	r := New(store, testLogger())

	s := models.Session{ID: uuid.New(), UserID: 1}
	w := models.WearableWorkout{ID: uuid.New(), Strain: 10}

	if err := r.Confirm(context.Background(), &s, w, false); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	if err := r.Confirm(context.Background(), &s, w, false); err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if store.applied != 1 {
		t.Errorf("ApplyMatch called %d times, want 1 (same pair is a no-op)", store.applied)
	}

	// A different workout replaces the association.
	other := models.WearableWorkout{ID: uuid.New(), Strain: 12}
	if err := r.Confirm(context.Background(), &s, other, false); err != nil {
		t.Fatalf("replace Confirm: %v", err)
	}
	if store.applied != 2 {
		t.Errorf("ApplyMatch called %d times, want 2", store.applied)
	}
	if *s.WearableWorkoutID != other.ID {
		t.Errorf("association not replaced: %s", *s.WearableWorkoutID)
	}
}

func TestClear(t *testing.T) {
	store := &fakeMatchStore{}
	r := New(store, testLogger())

	if err := r.Clear(context.Background(), uuid.New(), 1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.cleared != 1 {
		t.Errorf("ClearMatch called %d times, want 1", store.cleared)
	}
}

func TestNeedsReauthorization(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required []string
		want     bool
	}{
		{"all granted", []string{"read:workout", "read:recovery"}, []string{"read:workout", "read:recovery"}, false},
		{"extra grants are fine", []string{"read:workout", "read:recovery", "read:sleep"}, []string{"read:workout"}, false},
		{"missing one", []string{"read:workout"}, []string{"read:workout", "read:recovery"}, true},
		{"nothing granted", nil, []string{"read:workout"}, true},
		{"nothing required", []string{"read:workout"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsReauthorization(tt.granted, tt.required); got != tt.want {
				t.Errorf("NeedsReauthorization(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}
