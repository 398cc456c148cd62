// Package syncstate tracks matlog-sync's progress in a local SQLite
// database, so repeated runs over overlapping windows skip sessions that
// were already reconciled instead of re-proposing the same matches.
package syncstate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// StateDB records which sessions the batch reconciler has processed.
type StateDB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite state database at dir/state.db.
func Open(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS reconciled_sessions (
		session_id   TEXT PRIMARY KEY,
		workout_id   TEXT,
		score        REAL,
		auto_applied INTEGER NOT NULL DEFAULT 0,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsProcessed checks whether a session was already handled by a previous run.
func (s *StateDB) IsProcessed(sessionID uuid.UUID) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reconciled_sessions WHERE session_id = ?`,
		sessionID.String(),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed records the outcome for a session. workoutID is nil when
// no candidate was auto-applied.
func (s *StateDB) MarkProcessed(sessionID uuid.UUID, workoutID *uuid.UUID, score float64, autoApplied bool) error {
	var wid *string
	if workoutID != nil {
		str := workoutID.String()
		wid = &str
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO reconciled_sessions (session_id, workout_id, score, auto_applied)
		 VALUES (?, ?, ?, ?)`,
		sessionID.String(), wid, score, autoApplied,
	)
	return err
}

// Forget removes a session's record so the next run reconsiders it. Used
// after a match is cleared.
func (s *StateDB) Forget(sessionID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM reconciled_sessions WHERE session_id = ?`, sessionID.String())
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
