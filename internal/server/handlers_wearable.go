package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/matlog/internal/models"
	"github.com/claude/matlog/internal/reconcile"
	"github.com/claude/matlog/internal/storage"
	"github.com/google/uuid"
)

// wearableIngestPayload is what the wearable-integration collaborator
// posts after pulling from the vendor: already-deserialized workout
// records plus the scope list it was granted.
type wearableIngestPayload struct {
	Workouts      []models.WearableWorkout `json:"workouts"`
	GrantedScopes []string                 `json:"granted_scopes,omitempty"`
}

// wearableIngestResult mirrors the ingest counters back to the caller.
type wearableIngestResult struct {
	WorkoutsReceived int `json:"workouts_received"`
	WorkoutsInserted int `json:"workouts_inserted"`
}

func (s *Server) handleWearableIngest(w http.ResponseWriter, r *http.Request) {
	var payload wearableIngestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	uid := userIDFromContext(r)
	result := wearableIngestResult{WorkoutsReceived: len(payload.Workouts)}

	for _, workout := range payload.Workouts {
		workout.UserID = uid
		inserted, err := s.db.InsertWearableWorkout(r.Context(), workout)
		if err != nil {
			s.log.Error("wearable ingest error", "workout_id", workout.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if inserted {
			result.WorkoutsInserted++
		}
	}

	if payload.GrantedScopes != nil {
		if err := s.db.SetGrantedScopes(r.Context(), uid, payload.GrantedScopes); err != nil {
			s.log.Error("storing granted scopes failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	uid := userIDFromContext(r)
	sess, err := s.db.GetSession(r.Context(), id, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Pull workouts for the whole session day plus slack on both sides;
	// the reconciler applies the real window.
	est := reconcile.EstimateStart(*sess)
	workouts, err := s.db.QueryWearableWorkouts(r.Context(), est.Add(-24*time.Hour), est.Add(24*time.Hour), uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	candidates, err := s.rec.FindCandidates(r.Context(), *sess, workouts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if candidates == nil {
		// No correlating workout is an expected outcome, not an error.
		candidates = []models.Match{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleConfirmMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var body struct {
		WorkoutID uuid.UUID `json:"workout_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.WorkoutID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workout_id required"})
		return
	}

	uid := userIDFromContext(r)
	sess, err := s.db.GetSession(r.Context(), id, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	workout, err := s.db.GetWearableWorkout(r.Context(), body.WorkoutID, uid)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}

	// A user-confirmed match needs no further review.
	if err := s.rec.Confirm(r.Context(), sess, *workout, false); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleClearMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := s.rec.Clear(r.Context(), id, userIDFromContext(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	uid := userIDFromContext(r)
	sessions, err := s.db.QuerySessions(r.Context(), start, end, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	ids := make([]uuid.UUID, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}

	workouts, err := s.db.GetZonesForSessions(r.Context(), ids, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, reconcile.SummarizeZones(ids, workouts))
}

func (s *Server) handleWearableStatus(w http.ResponseWriter, r *http.Request) {
	granted, err := s.db.GrantedScopes(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"granted_scopes":        granted,
		"required_scopes":       s.requiredScopes,
		"needs_reauthorization": reconcile.NeedsReauthorization(granted, s.requiredScopes),
	})
}
