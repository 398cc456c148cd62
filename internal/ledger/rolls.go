package ledger

import (
	"github.com/claude/matlog/internal/models"
	"github.com/google/uuid"
)

// Side selects which submission set of a roll a toggle applies to.
type Side string

const (
	SideFor     Side = "for"
	SideAgainst Side = "against"
)

// RollLedger holds the ordered rolls of one session. RollNumber is always
// contiguous 1..N; callers never manage numbering themselves.
type RollLedger struct {
	rolls []models.Roll
}

// NewRollLedger seeds a ledger from a loaded session's rolls. The input is
// copied and renumbered.
func NewRollLedger(rolls []models.Roll) *RollLedger {
	l := &RollLedger{rolls: make([]models.Roll, len(rolls))}
	copy(l.rolls, rolls)
	l.renumber()
	return l
}

// Len returns the number of rolls.
func (l *RollLedger) Len() int { return len(l.rolls) }

// Rolls returns a copy of the current entries.
func (l *RollLedger) Rolls() []models.Roll {
	out := make([]models.Roll, len(l.rolls))
	copy(out, l.rolls)
	return out
}

// Add appends a blank roll and returns it with its assigned number.
func (l *RollLedger) Add() models.Roll {
	l.rolls = append(l.rolls, models.Roll{})
	l.renumber()
	return l.rolls[len(l.rolls)-1]
}

// RemoveAt deletes the roll at index i and renumbers the rest. Returns
// ErrOutOfRange without mutating anything if i is out of bounds.
func (l *RollLedger) RemoveAt(i int) error {
	if i < 0 || i >= len(l.rolls) {
		return ErrOutOfRange
	}
	l.rolls = append(l.rolls[:i], l.rolls[i+1:]...)
	l.renumber()
	return nil
}

// UpdateAt applies patch to the roll at index i. The roll's number is
// owned by the ledger and survives any patch.
func (l *RollLedger) UpdateAt(i int, patch func(*models.Roll)) error {
	if i < 0 || i >= len(l.rolls) {
		return ErrOutOfRange
	}
	n := l.rolls[i].RollNumber
	patch(&l.rolls[i])
	l.rolls[i].RollNumber = n
	return nil
}

// Toggle flips the presence of a movement id in the given submission set:
// present is removed, absent is added. There is no separate add/remove.
func (l *RollLedger) Toggle(i int, side Side, movementID uuid.UUID) error {
	if i < 0 || i >= len(l.rolls) {
		return ErrOutOfRange
	}
	r := &l.rolls[i]
	switch side {
	case SideAgainst:
		r.SubmissionsAgainst = toggleID(r.SubmissionsAgainst, movementID)
	default:
		r.SubmissionsFor = toggleID(r.SubmissionsFor, movementID)
	}
	return nil
}

// Payload returns the rolls as they should be persisted.
func (l *RollLedger) Payload() []models.Roll {
	return l.Rolls()
}

func (l *RollLedger) renumber() {
	for i := range l.rolls {
		l.rolls[i].RollNumber = i + 1
	}
}

func toggleID(set []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range set {
		if existing == id {
			return append(set[:i], set[i+1:]...)
		}
	}
	return append(set, id)
}
