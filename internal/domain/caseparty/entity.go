// internal/domain/caseparty/entity.go
package caseparty

import (
	"caseflow-service/internal/domain/notification"
)

// Party is one case-linked identity. The graph is owned by the excluded
// case-management subsystem; we only ever read a snapshot of it.
type Party struct {
	ID   string                     `json:"id"`
	Name string                     `json:"name,omitempty"`
	Role notification.RecipientType `json:"role"`
}

// Participant is a caller-supplied audience member for events where the
// case-management layer already knows who to notify (hearings, evidence,
// orders). Label is injected into the message and metadata as the
// participant's role in the proceeding ("witness", "prosecutor", ...).
type Participant struct {
	Party
	Label string `json:"label,omitempty"`
}

// Graph is an immutable snapshot of the parties attached to a case at
// resolution time. Later changes to the case are not observed.
type Graph struct {
	Complainant       *Party  `json:"complainant,omitempty"`
	Officers          []Party `json:"officers,omitempty"`
	Judge             *Party  `json:"judge,omitempty"`
	DefenseLawyer     *Party  `json:"defense_lawyer,omitempty"`
	ProsecutionLawyer *Party  `json:"prosecution_lawyer,omitempty"`
}
