// matlog-sync runs wearable reconciliation as a batch over a time window:
// for every session without a confirmed match it scores the stored
// wearable workouts and, when exactly one candidate clears the confidence
// threshold, pre-applies it flagged for review. Everything it does is
// idempotent, so re-running after a failure is safe.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/claude/matlog/internal/config"
	"github.com/claude/matlog/internal/reconcile"
	"github.com/claude/matlog/internal/storage"
	"github.com/claude/matlog/internal/syncstate"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	stateDir := flag.String("state-dir", ".matlog-sync", "directory for the sync state database")
	windowDays := flag.Int("window", 0, "days to look back (0 = config default)")
	userID := flag.Int("user", 1, "user id to reconcile")
	dryRun := flag.Bool("dry-run", false, "score candidates but apply nothing")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	days := *windowDays
	if days == 0 {
		days = cfg.Wearable.SyncWindowDays
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Sync does not proceed with insufficient scopes; the user has to
	// re-authorize the integration first.
	granted, err := db.GrantedScopes(ctx, *userID)
	if err != nil {
		log.Error("failed to load granted scopes", "error", err)
		os.Exit(1)
	}
	if reconcile.NeedsReauthorization(granted, cfg.Wearable.RequiredScopes) {
		log.Error("wearable integration needs re-authorization",
			"granted", granted, "required", cfg.Wearable.RequiredScopes)
		os.Exit(2)
	}

	state, err := syncstate.Open(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	log.Info("reconciling window", "start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	sessions, err := db.QueryUnmatchedSessions(ctx, start, end, *userID)
	if err != nil {
		log.Error("failed to load sessions", "error", err)
		os.Exit(1)
	}

	// Pad the workout window by a day on each side so sessions near the
	// edges still see their workouts.
	workouts, err := db.QueryWearableWorkouts(ctx, start.AddDate(0, 0, -1), end.AddDate(0, 0, 1), *userID)
	if err != nil {
		log.Error("failed to load workouts", "error", err)
		os.Exit(1)
	}
	log.Info("loaded", "sessions", len(sessions), "workouts", len(workouts))

	rec := reconcile.New(db, log)
	var applied, skipped, unmatched int

	for i := range sessions {
		sess := &sessions[i]

		done, err := state.IsProcessed(sess.ID)
		if err != nil {
			log.Error("state lookup failed", "session_id", sess.ID, "error", err)
			os.Exit(1)
		}
		if done {
			skipped++
			continue
		}

		candidates, err := rec.FindCandidates(ctx, *sess, workouts)
		if err != nil {
			log.Error("candidate lookup failed", "session_id", sess.ID, "error", err)
			os.Exit(1)
		}

		match, ok := reconcile.AutoSelect(candidates)
		if !ok {
			// No single high-confidence candidate: leave it for the user.
			unmatched++
			if err := state.MarkProcessed(sess.ID, nil, 0, false); err != nil {
				log.Error("state update failed", "session_id", sess.ID, "error", err)
				os.Exit(1)
			}
			continue
		}

		if *dryRun {
			log.Info("would apply", "session_id", sess.ID, "workout_id", match.WorkoutID, "score", match.Score)
			continue
		}

		workout, err := db.GetWearableWorkout(ctx, match.WorkoutID, *userID)
		if err != nil {
			log.Error("workout load failed", "workout_id", match.WorkoutID, "error", err)
			os.Exit(1)
		}

		// Auto-applied matches always carry needs_review so the user can
		// reject them.
		if err := rec.Confirm(ctx, sess, *workout, true); err != nil {
			log.Error("confirm failed", "session_id", sess.ID, "error", err)
			os.Exit(1)
		}
		if err := state.MarkProcessed(sess.ID, &match.WorkoutID, match.Score, true); err != nil {
			log.Error("state update failed", "session_id", sess.ID, "error", err)
			os.Exit(1)
		}
		applied++
	}

	log.Info("reconcile complete", "applied", applied, "skipped", skipped, "unmatched", unmatched)
}
