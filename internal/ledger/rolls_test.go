package ledger

import (
	"testing"

	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

func TestRollLedgerRenumberOnRemove(t *testing.T) {
	note1, note2, note3 := "first", "second", "third"
	l := NewRollLedger([]models.Roll{
		{Notes: &note1},
		{Notes: &note2},
		{Notes: &note3},
	})

	// Remove the middle roll: the former third roll becomes number 2.
	if err := l.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt(1): %v", err)
	}

	rolls := l.Rolls()
	if len(rolls) != 2 {
		t.Fatalf("len = %d, want 2", len(rolls))
	}
	for i, r := range rolls {
		if r.RollNumber != i+1 {
			t.Errorf("rolls[%d].RollNumber = %d, want %d", i, r.RollNumber, i+1)
		}
	}
	if rolls[0].Notes == nil || *rolls[0].Notes != "first" {
		t.Errorf("rolls[0].Notes = %v, want first", rolls[0].Notes)
	}
	if rolls[1].Notes == nil || *rolls[1].Notes != "third" {
		t.Errorf("rolls[1].Notes = %v, want third", rolls[1].Notes)
	}
}

func TestRollLedgerAddAssignsNextNumber(t *testing.T) {
	l := NewRollLedger(nil)
	for want := 1; want <= 3; want++ {
		r := l.Add()
		if r.RollNumber != want {
			t.Errorf("Add() assigned number %d, want %d", r.RollNumber, want)
		}
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}

func TestRollLedgerSeedRenumbers(t *testing.T) {
	// Stored numbering may be stale (e.g. hand-edited rows); seeding fixes it.
	l := NewRollLedger([]models.Roll{
		{RollNumber: 4},
		{RollNumber: 9},
	})
	for i, r := range l.Rolls() {
		if r.RollNumber != i+1 {
			t.Errorf("rolls[%d].RollNumber = %d, want %d", i, r.RollNumber, i+1)
		}
	}
}

func TestRollLedgerRemoveOutOfRange(t *testing.T) {
	l := NewRollLedger([]models.Roll{{}, {}})
	before := l.Rolls()

	for _, i := range []int{-1, 2, 10} {
		if err := l.RemoveAt(i); err != ErrOutOfRange {
			t.Errorf("RemoveAt(%d) = %v, want ErrOutOfRange", i, err)
		}
	}

	after := l.Rolls()
	if len(after) != len(before) {
		t.Fatalf("failed remove mutated ledger: %d -> %d entries", len(before), len(after))
	}
}

func TestRollLedgerUpdatePreservesNumber(t *testing.T) {
	l := NewRollLedger([]models.Roll{{}, {}})

	err := l.UpdateAt(1, func(r *models.Roll) {
		r.DurationMinutes = 6
		r.RollNumber = 99 // patches must not control numbering
	})
	if err != nil {
		t.Fatalf("UpdateAt: %v", err)
	}

	rolls := l.Rolls()
	if rolls[1].RollNumber != 2 {
		t.Errorf("RollNumber = %d, want 2", rolls[1].RollNumber)
	}
	if rolls[1].DurationMinutes != 6 {
		t.Errorf("DurationMinutes = %d, want 6", rolls[1].DurationMinutes)
	}
}

func TestRollLedgerToggleInvolution(t *testing.T) {
	l := NewRollLedger([]models.Roll{{}})
	armbar := uuid.New()

	if err := l.Toggle(0, SideFor, armbar); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if got := l.Rolls()[0].SubmissionsFor; len(got) != 1 || got[0] != armbar {
		t.Fatalf("after first toggle SubmissionsFor = %v, want [%s]", got, armbar)
	}

	if err := l.Toggle(0, SideFor, armbar); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if got := l.Rolls()[0].SubmissionsFor; len(got) != 0 {
		t.Errorf("after second toggle SubmissionsFor = %v, want empty", got)
	}
}

func TestRollLedgerToggleSidesIndependent(t *testing.T) {
	l := NewRollLedger([]models.Roll{{}})
	choke := uuid.New()

	if err := l.Toggle(0, SideFor, choke); err != nil {
		t.Fatalf("toggle for: %v", err)
	}
	if err := l.Toggle(0, SideAgainst, choke); err != nil {
		t.Fatalf("toggle against: %v", err)
	}

	r := l.Rolls()[0]
	if len(r.SubmissionsFor) != 1 || len(r.SubmissionsAgainst) != 1 {
		t.Errorf("sides not independent: for=%v against=%v", r.SubmissionsFor, r.SubmissionsAgainst)
	}
}

func TestRollLedgerRollsReturnsCopy(t *testing.T) {
	l := NewRollLedger([]models.Roll{{}})
	out := l.Rolls()
	out[0].DurationMinutes = 42

	if l.Rolls()[0].DurationMinutes != 0 {
		t.Error("mutating Rolls() result leaked into the ledger")
	}
}
