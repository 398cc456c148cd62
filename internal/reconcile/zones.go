package reconcile

import (
	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

// SummarizeZones copies each matched workout's heart-rate zone durations,
// keyed by session id. Sessions without a matched workout are omitted, not
// zero-filled, so callers can tell "no data" from "zero minutes in every
// zone". Pure aggregation; batch entries are independent.
func SummarizeZones(sessionIDs []uuid.UUID, workoutsBySession map[uuid.UUID]models.WearableWorkout) map[uuid.UUID]models.ZoneDurations {
	out := make(map[uuid.UUID]models.ZoneDurations, len(sessionIDs))
	for _, id := range sessionIDs {
		w, ok := workoutsBySession[id]
		if !ok {
			continue
		}
		zones := make(models.ZoneDurations, len(w.Zones))
		for name, minutes := range w.Zones {
			zones[name] = minutes
		}
		out[id] = zones
	}
	return out
}
