package syncstate

import (
	"testing"

	"github.com/google/uuid"
)

func openTemp(t *testing.T) *StateDB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMarkAndCheckProcessed(t *testing.T) {
	db := openTemp(t)
	sessionID := uuid.New()

	done, err := db.IsProcessed(sessionID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if done {
		t.Fatal("fresh session reported as processed")
	}

	wid := uuid.New()
	if err := db.MarkProcessed(sessionID, &wid, 0.91, true); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	done, err = db.IsProcessed(sessionID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !done {
		t.Error("marked session not reported as processed")
	}
}

func TestMarkProcessedNoMatch(t *testing.T) {
	db := openTemp(t)
	sessionID := uuid.New()

	// A run that found no auto-applicable candidate still records the
	// session so later runs skip it.
	if err := db.MarkProcessed(sessionID, nil, 0, false); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	done, err := db.IsProcessed(sessionID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !done {
		t.Error("no-match outcome not recorded")
	}
}

func TestMarkProcessedReplaces(t *testing.T) {
	db := openTemp(t)
	sessionID := uuid.New()

	if err := db.MarkProcessed(sessionID, nil, 0, false); err != nil {
		t.Fatalf("first MarkProcessed: %v", err)
	}
	wid := uuid.New()
	if err := db.MarkProcessed(sessionID, &wid, 0.88, true); err != nil {
		t.Fatalf("second MarkProcessed: %v", err)
	}
}

func TestForget(t *testing.T) {
	db := openTemp(t)
	sessionID := uuid.New()

	if err := db.MarkProcessed(sessionID, nil, 0, false); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := db.Forget(sessionID); err != nil {
		t.Fatalf("Forget: %v", err)
	}

	done, err := db.IsProcessed(sessionID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if done {
		t.Error("forgotten session still reported as processed")
	}
}
