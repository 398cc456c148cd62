package models

import "github.com/google/uuid"

// PartnerSource identifies which contact list a partner record came from.
type PartnerSource string

const (
	SourceManual     PartnerSource = "manual"
	SourceInstructor PartnerSource = "instructor"
	SourceSocial     PartnerSource = "social"
)

// Partner is one entry in the partner directory. ID is the person's stable
// account id; uuid.Nil means the entry has no stable id yet (a social-graph
// mirror before friendship confirmation).
type Partner struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Source   PartnerSource `json:"source"`
	BeltRank *string       `json:"belt_rank,omitempty"`
}
