// internal/service/fanout/event.go
package fanout

import (
	"time"

	"caseflow-service/internal/domain/caseparty"
	"caseflow-service/internal/domain/notification"
)

// EventKind is the closed set of case-lifecycle events that fan out to
// notifications.
type EventKind string

const (
	EventCaseCreated           EventKind = "case_created"
	EventCaseAssigned          EventKind = "case_assigned"
	EventCaseClosed            EventKind = "case_closed"
	EventFIRRegistered         EventKind = "fir_registered"
	EventFIRRejected           EventKind = "fir_rejected"
	EventHearingScheduled      EventKind = "hearing_scheduled"
	EventLawyerRequestDecision EventKind = "lawyer_request_decision"
	EventEvidenceSubmitted     EventKind = "evidence_submitted"
	EventDocumentFiled         EventKind = "document_filed"
	EventStatusChanged         EventKind = "status_changed"
	EventOrderPassed           EventKind = "order_passed"
	EventJudgmentPassed        EventKind = "judgment_passed"
	EventSummonIssued          EventKind = "summon_issued"
	EventComplaintSubmitted    EventKind = "complaint_submitted"
	EventComplaintAssigned     EventKind = "complaint_assigned"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventCaseCreated, EventCaseAssigned, EventCaseClosed,
		EventFIRRegistered, EventFIRRejected, EventHearingScheduled,
		EventLawyerRequestDecision, EventEvidenceSubmitted, EventDocumentFiled,
		EventStatusChanged, EventOrderPassed, EventJudgmentPassed,
		EventSummonIssued, EventComplaintSubmitted, EventComplaintAssigned:
		return true
	}
	return false
}

// Decision is the outcome of a lawyer representation request.
type Decision string

const (
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
	DecisionPending  Decision = "PENDING"
)

// Event is the payload handed to the resolver by a case-action handler. Only
// the fields relevant to the event kind need to be populated.
type Event struct {
	Kind    EventKind `json:"kind"`
	ActorID string    `json:"actor_id,omitempty"`

	CaseID     string `json:"case_id,omitempty"`
	CaseNumber string `json:"case_number,omitempty"`

	ComplaintID string `json:"complaint_id,omitempty"`
	FIRID       string `json:"fir_id,omitempty"`
	FIRNumber   string `json:"fir_number,omitempty"`

	Status    string `json:"status,omitempty"`     // StatusChanged: new status
	OldStatus string `json:"old_status,omitempty"` // StatusChanged: previous status
	Verdict   string `json:"verdict,omitempty"`    // CaseClosed
	Summary   string `json:"summary,omitempty"`    // evidence/document/order/judgment detail

	Decision Decision         `json:"decision,omitempty"` // LawyerRequestDecision
	Citizen  *caseparty.Party `json:"citizen,omitempty"`  // LawyerRequestDecision: requester
	Lawyer   *caseparty.Party `json:"lawyer,omitempty"`   // LawyerRequestDecision: lawyer

	Assignee *caseparty.Participant `json:"assignee,omitempty"` // CaseAssigned / ComplaintAssigned

	HearingAt time.Time `json:"hearing_at,omitempty"` // HearingScheduled

	// Caller-supplied audience for events where court scheduling or the
	// case-graph query already determined who to notify.
	Participants []caseparty.Participant `json:"participants,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Target is one resolved recipient of the event, ready to be persisted and
// pushed.
type Target struct {
	RecipientID   string
	RecipientType notification.RecipientType
	RoleInCase    string
	Title         string
	Message       string
	Type          notification.Type
	Priority      notification.Priority
	Metadata      map[string]interface{}
	ExpiresAt     *time.Time
}
