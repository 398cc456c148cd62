// Package ledger owns the ordered per-session collections of sparring
// rolls and studied techniques. Entries have no identity outside their
// parent session: ledgers are created from a loaded session, mutated in
// memory during an edit, and persisted as a whole in the session's save
// transaction.
package ledger

import "errors"

// ErrOutOfRange reports a ledger index outside [0, Len). It indicates a
// caller bug; the ledger's state is left unchanged.
var ErrOutOfRange = errors.New("ledger: index out of range")
