package models

import (
	"testing"
	"time"
)

func TestWearableWorkoutDurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 10, 17, 55, 0, 0, time.UTC)
	w := WearableWorkout{
		StartTime: start,
		EndTime:   start.Add(95 * time.Minute),
	}
	if got := w.DurationMinutes(); got != 95 {
		t.Errorf("DurationMinutes() = %v, want 95", got)
	}
}
