package ledger

import "github.com/claude/matlog/internal/models"

// TechniqueLedger holds the ordered studied-technique entries of one
// session. Numbering follows the same contiguous 1..N rule as rolls.
type TechniqueLedger struct {
	entries []models.Technique
}

// NewTechniqueLedger seeds a ledger from a loaded session's techniques.
func NewTechniqueLedger(entries []models.Technique) *TechniqueLedger {
	l := &TechniqueLedger{entries: make([]models.Technique, len(entries))}
	copy(l.entries, entries)
	l.renumber()
	return l
}

// Len returns the number of entries, drafts included.
func (l *TechniqueLedger) Len() int { return len(l.entries) }

// Entries returns a copy of the current entries, drafts included.
func (l *TechniqueLedger) Entries() []models.Technique {
	out := make([]models.Technique, len(l.entries))
	copy(out, l.entries)
	return out
}

// Add appends a blank entry and returns it with its assigned number.
func (l *TechniqueLedger) Add() models.Technique {
	l.entries = append(l.entries, models.Technique{})
	l.renumber()
	return l.entries[len(l.entries)-1]
}

// RemoveAt deletes the entry at index i and renumbers the rest. Returns
// ErrOutOfRange without mutating anything if i is out of bounds.
func (l *TechniqueLedger) RemoveAt(i int) error {
	if i < 0 || i >= len(l.entries) {
		return ErrOutOfRange
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.renumber()
	return nil
}

// UpdateAt applies patch to the entry at index i, preserving its number.
func (l *TechniqueLedger) UpdateAt(i int, patch func(*models.Technique)) error {
	if i < 0 || i >= len(l.entries) {
		return ErrOutOfRange
	}
	n := l.entries[i].TechniqueNumber
	patch(&l.entries[i])
	l.entries[i].TechniqueNumber = n
	return nil
}

// Payload returns the entries to persist. Drafts with no resolved movement
// id are dropped silently, not rejected: the user may still finish them in
// a later edit. The surviving entries are renumbered so the persisted
// payload is itself contiguous.
func (l *TechniqueLedger) Payload() []models.Technique {
	out := make([]models.Technique, 0, len(l.entries))
	for _, e := range l.entries {
		if e.MovementID == nil {
			continue
		}
		e.TechniqueNumber = len(out) + 1
		out = append(out, e)
	}
	return out
}

func (l *TechniqueLedger) renumber() {
	for i := range l.entries {
		l.entries[i].TechniqueNumber = i + 1
	}
}
