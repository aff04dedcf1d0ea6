// internal/domain/notification/entity.go
package notification

import (
	"database/sql"
	"time"

	xerrors "caseflow-service/internal/pkg/errors"
)

// RecipientType identifies which kind of case party a notification is
// addressed to. Together with RecipientID it forms the delivery key.
type RecipientType string

const (
	RecipientCitizen RecipientType = "CITIZEN"
	RecipientPolice  RecipientType = "POLICE"
	RecipientJudge   RecipientType = "JUDGE"
	RecipientLawyer  RecipientType = "LAWYER"
)

// Topic returns the role-group topic name for this recipient type.
func (rt RecipientType) Topic() string {
	switch rt {
	case RecipientCitizen:
		return "citizen"
	case RecipientPolice:
		return "police"
	case RecipientJudge:
		return "judge"
	case RecipientLawyer:
		return "lawyer"
	}
	return ""
}

func (rt RecipientType) Valid() bool {
	switch rt {
	case RecipientCitizen, RecipientPolice, RecipientJudge, RecipientLawyer:
		return true
	}
	return false
}

// Type is the closed enum of notification event kinds.
type Type string

const (
	TypeCaseCreated           Type = "CASE_CREATED"
	TypeCaseAssigned          Type = "CASE_ASSIGNED"
	TypeCaseAccepted          Type = "CASE_ACCEPTED"
	TypeCaseClosed            Type = "CASE_CLOSED"
	TypeHearingScheduled      Type = "HEARING_SCHEDULED"
	TypeEvidenceSubmitted     Type = "EVIDENCE_SUBMITTED"
	TypeDocumentFiled         Type = "DOCUMENT_FILED"
	TypeLawyerRequestAccepted Type = "LAWYER_REQUEST_ACCEPTED"
	TypeLawyerRequestRejected Type = "LAWYER_REQUEST_REJECTED"
	TypeLawyerRequestPending  Type = "LAWYER_REQUEST_PENDING"
	TypeComplaintSubmitted    Type = "COMPLAINT_SUBMITTED"
	TypeComplaintAssigned     Type = "COMPLAINT_ASSIGNED"
	TypeFIRRegistered         Type = "FIR_REGISTERED"
	TypeFIRSubmitted          Type = "FIR_SUBMITTED"
	TypeFIRRejected           Type = "FIR_REJECTED"
	TypeStatusChanged         Type = "STATUS_CHANGED"
	TypeOrderPassed           Type = "ORDER_PASSED"
	TypeJudgmentPassed        Type = "JUDGMENT_PASSED"
	TypeSummonIssued          Type = "SUMMON_ISSUED"
	TypeSystemUpdate          Type = "SYSTEM_UPDATE"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCaseCreated, TypeCaseAssigned, TypeCaseAccepted, TypeCaseClosed,
		TypeHearingScheduled, TypeEvidenceSubmitted, TypeDocumentFiled,
		TypeLawyerRequestAccepted, TypeLawyerRequestRejected, TypeLawyerRequestPending,
		TypeComplaintSubmitted, TypeComplaintAssigned,
		TypeFIRRegistered, TypeFIRSubmitted, TypeFIRRejected,
		TypeStatusChanged, TypeOrderPassed, TypeJudgmentPassed,
		TypeSummonIssued, TypeSystemUpdate:
		return true
	}
	return false
}

// Priority is informational only; it never affects delivery guarantees.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is one persisted row per (event, recipient) pair. Immutable
// after creation except for IsRead/ReadAt; removed only by the expiry sweep.
type Notification struct {
	ID            string                 `json:"id" db:"id"`
	RecipientID   string                 `json:"recipient_id" db:"recipient_id"`
	RecipientType RecipientType          `json:"recipient_type" db:"recipient_type"`
	Title         string                 `json:"title" db:"title"`
	Message       string                 `json:"message" db:"message"`
	Type          Type                   `json:"type" db:"type"`
	CaseID        string                 `json:"case_id,omitempty" db:"case_id"`
	ComplaintID   string                 `json:"complaint_id,omitempty" db:"complaint_id"`
	FIRID         string                 `json:"fir_id,omitempty" db:"fir_id"`
	IsRead        bool                   `json:"is_read" db:"is_read"`
	Priority      Priority               `json:"priority" db:"priority"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	ReadAt        sql.NullTime           `json:"read_at,omitempty" db:"read_at"`
	ExpiresAt     sql.NullTime           `json:"expires_at,omitempty" db:"expires_at"`
}

// DTOs

type CreateNotificationRequest struct {
	RecipientID   string                 `json:"recipient_id" binding:"required"`
	RecipientType RecipientType          `json:"recipient_type" binding:"required"`
	Title         string                 `json:"title" binding:"required,max=255"`
	Message       string                 `json:"message" binding:"required"`
	Type          Type                   `json:"type" binding:"required"`
	CaseID        string                 `json:"case_id,omitempty"`
	ComplaintID   string                 `json:"complaint_id,omitempty"`
	FIRID         string                 `json:"fir_id,omitempty"`
	Priority      Priority               `json:"priority,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ExpiresAt     *time.Time             `json:"expires_at,omitempty"`
}

// Validate enforces the required fields and closed enums before a record is
// allowed anywhere near the store.
func (r *CreateNotificationRequest) Validate() error {
	if r.RecipientID == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "recipient_id is required")
	}
	if !r.RecipientType.Valid() {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "unknown recipient_type")
	}
	if r.Title == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "title is required")
	}
	if r.Message == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "message is required")
	}
	if !r.Type.Valid() {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "unknown notification type")
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "unknown priority")
	}
	return nil
}

type NotificationListFilters struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"limit" binding:"omitempty,min=1,max=100"`
}

// PaginationInfo is the envelope the REST layer hands back to reconnecting
// clients paging through missed notifications.
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type NotificationListResponse struct {
	Items      []Notification `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
