// internal/service/fanout/resolver.go
package fanout

import (
	"fmt"
	"strings"

	"caseflow-service/internal/domain/caseparty"
	"caseflow-service/internal/domain/notification"
)

// Resolve expands one case-lifecycle event into the ordered list of
// per-recipient notification targets. It is a pure transform: no I/O, no
// clock reads beyond what the event carries.
//
// Targets are emitted in a stable order (complainant, officers in party-graph
// order, judge, defense lawyer, prosecuting lawyer, then supplied
// participants) so that downstream persistence and delivery order is
// deterministic. The exclusion filter is always applied last, regardless of
// event kind, which guarantees the acting user never gets self-notified.
func Resolve(ev Event, parties caseparty.Graph, exclude []string) []Target {
	var targets []Target

	switch ev.Kind {
	case EventCaseCreated:
		targets = resolveCaseCreated(ev, parties)
	case EventCaseAssigned:
		targets = resolveCaseAssigned(ev, parties)
	case EventCaseClosed:
		targets = resolveCaseClosed(ev, parties)
	case EventFIRRegistered:
		targets = resolveFIRRegistered(ev, parties)
	case EventFIRRejected:
		targets = resolveFIRRejected(ev, parties)
	case EventHearingScheduled:
		targets = resolveHearingScheduled(ev)
	case EventLawyerRequestDecision:
		targets = resolveLawyerRequestDecision(ev)
	case EventEvidenceSubmitted:
		targets = resolveParticipantEvent(ev, notification.TypeEvidenceSubmitted, notification.PriorityNormal,
			"New evidence submitted", "New evidence has been submitted")
	case EventDocumentFiled:
		targets = resolveParticipantEvent(ev, notification.TypeDocumentFiled, notification.PriorityNormal,
			"Document filed", "A document has been filed")
	case EventStatusChanged:
		targets = resolveStatusChanged(ev)
	case EventOrderPassed:
		targets = resolveParticipantEvent(ev, notification.TypeOrderPassed, notification.PriorityHigh,
			"Order passed", "The court has passed an order")
	case EventJudgmentPassed:
		targets = resolveParticipantEvent(ev, notification.TypeJudgmentPassed, notification.PriorityHigh,
			"Judgment passed", "The court has delivered its judgment")
	case EventSummonIssued:
		targets = resolveParticipantEvent(ev, notification.TypeSummonIssued, notification.PriorityUrgent,
			"Summon issued", "A summon has been issued")
	case EventComplaintSubmitted:
		targets = resolveComplaintSubmitted(ev)
	case EventComplaintAssigned:
		targets = resolveComplaintAssigned(ev, parties)
	}

	return applyExclusions(targets, exclude)
}

func resolveCaseCreated(ev Event, parties caseparty.Graph) []Target {
	title := "New case registered"
	var targets []Target

	if p := parties.Complainant; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientCitizen,
			RoleInCase:    "complainant",
			Title:         title,
			Message:       fmt.Sprintf("Your case %s has been registered with the court", ev.CaseNumber),
			Type:          notification.TypeCaseCreated,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "complainant"),
		})
	}
	for _, officer := range parties.Officers {
		targets = append(targets, Target{
			RecipientID:   officer.ID,
			RecipientType: notification.RecipientPolice,
			RoleInCase:    "investigating_officer",
			Title:         title,
			Message:       fmt.Sprintf("Case %s under your investigation has been registered with the court", ev.CaseNumber),
			Type:          notification.TypeCaseCreated,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "investigating_officer"),
		})
	}
	if p := parties.Judge; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientJudge,
			RoleInCase:    "judge",
			Title:         title,
			Message:       fmt.Sprintf("Case %s has been assigned to your court", ev.CaseNumber),
			Type:          notification.TypeCaseCreated,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "judge"),
		})
	}

	return targets
}

func resolveCaseAssigned(ev Event, parties caseparty.Graph) []Target {
	var targets []Target

	if p := parties.Complainant; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientCitizen,
			RoleInCase:    "complainant",
			Title:         "Case assigned",
			Message:       fmt.Sprintf("Your case %s has been assigned for hearing", ev.CaseNumber),
			Type:          notification.TypeCaseAssigned,
			Priority:      notification.PriorityNormal,
			Metadata:      caseMetadata(ev, "complainant"),
		})
	}
	if a := ev.Assignee; a != nil {
		targets = append(targets, Target{
			RecipientID:   a.ID,
			RecipientType: a.Role,
			RoleInCase:    a.Label,
			Title:         "Case assigned to you",
			Message:       fmt.Sprintf("Case %s has been assigned to you", ev.CaseNumber),
			Type:          notification.TypeCaseAssigned,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, a.Label),
		})
	}

	return targets
}

func resolveCaseClosed(ev Event, parties caseparty.Graph) []Target {
	title := "Case closed"
	message := fmt.Sprintf("Case %s has been closed", ev.CaseNumber)
	if ev.Verdict != "" {
		message = fmt.Sprintf("Case %s has been closed. Verdict: %s", ev.CaseNumber, ev.Verdict)
	}

	var targets []Target
	if p := parties.Complainant; p != nil {
		targets = append(targets, newGraphTarget(*p, notification.RecipientCitizen, "complainant", title, message, ev))
	}
	for _, officer := range parties.Officers {
		targets = append(targets, newGraphTarget(officer, notification.RecipientPolice, "investigating_officer", title, message, ev))
	}
	if p := parties.DefenseLawyer; p != nil {
		targets = append(targets, newGraphTarget(*p, notification.RecipientLawyer, "defense_lawyer", title, message, ev))
	}
	if p := parties.ProsecutionLawyer; p != nil {
		targets = append(targets, newGraphTarget(*p, notification.RecipientLawyer, "prosecuting_lawyer", title, message, ev))
	}

	return targets
}

func resolveFIRRegistered(ev Event, parties caseparty.Graph) []Target {
	var targets []Target

	if p := parties.Complainant; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientCitizen,
			RoleInCase:    "complainant",
			Title:         "FIR registered",
			Message:       fmt.Sprintf("FIR %s has been registered for your complaint", ev.FIRNumber),
			Type:          notification.TypeFIRRegistered,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "complainant"),
		})
	}
	if p := parties.Judge; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientJudge,
			RoleInCase:    "judge",
			Title:         "FIR submitted",
			Message:       fmt.Sprintf("FIR %s has been submitted for judicial review", ev.FIRNumber),
			Type:          notification.TypeFIRSubmitted,
			Priority:      notification.PriorityNormal,
			Metadata:      caseMetadata(ev, "judge"),
		})
	}

	return targets
}

func resolveFIRRejected(ev Event, parties caseparty.Graph) []Target {
	var targets []Target

	if p := parties.Complainant; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientCitizen,
			RoleInCase:    "complainant",
			Title:         "FIR rejected",
			Message:       fmt.Sprintf("FIR %s for your complaint has been rejected", ev.FIRNumber),
			Type:          notification.TypeFIRRejected,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "complainant"),
		})
	}
	for _, officer := range parties.Officers {
		targets = append(targets, Target{
			RecipientID:   officer.ID,
			RecipientType: notification.RecipientPolice,
			RoleInCase:    "investigating_officer",
			Title:         "FIR rejected",
			Message:       fmt.Sprintf("FIR %s has been rejected and returned for revision", ev.FIRNumber),
			Type:          notification.TypeFIRRejected,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "investigating_officer"),
		})
	}

	return targets
}

// resolveHearingScheduled notifies every supplied participant; court
// scheduling may include ad hoc attendees beyond the party graph. The
// notification expires at the hearing time: once the hearing has passed it
// is no longer actionable and the sweep removes it.
func resolveHearingScheduled(ev Event) []Target {
	targets := make([]Target, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		md := caseMetadata(ev, p.Label)
		md["hearing_at"] = ev.HearingAt
		t := Target{
			RecipientID:   p.ID,
			RecipientType: p.Role,
			RoleInCase:    p.Label,
			Title:         "Hearing scheduled",
			Message: fmt.Sprintf("A hearing for case %s has been scheduled on %s",
				ev.CaseNumber, ev.HearingAt.Format("02 Jan 2006 15:04")),
			Type:     notification.TypeHearingScheduled,
			Priority: notification.PriorityUrgent,
			Metadata: md,
		}
		if !ev.HearingAt.IsZero() {
			at := ev.HearingAt
			t.ExpiresAt = &at
		}
		targets = append(targets, t)
	}
	return targets
}

func resolveLawyerRequestDecision(ev Event) []Target {
	var targets []Target

	citizenType, citizenMsg := citizenDecisionText(ev)
	if ev.Citizen != nil {
		targets = append(targets, Target{
			RecipientID:   ev.Citizen.ID,
			RecipientType: notification.RecipientCitizen,
			RoleInCase:    "complainant",
			Title:         "Lawyer request update",
			Message:       citizenMsg,
			Type:          citizenType,
			Priority:      notification.PriorityNormal,
			Metadata:      caseMetadata(ev, "complainant"),
		})
	}

	if ev.Lawyer != nil {
		lawyerType, lawyerMsg := lawyerDecisionText(ev)
		targets = append(targets, Target{
			RecipientID:   ev.Lawyer.ID,
			RecipientType: notification.RecipientLawyer,
			RoleInCase:    "lawyer",
			Title:         "Representation request " + strings.ToLower(string(ev.Decision)),
			Message:       lawyerMsg,
			Type:          lawyerType,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, "lawyer"),
		})
	}

	return targets
}

func citizenDecisionText(ev Event) (notification.Type, string) {
	switch ev.Decision {
	case DecisionAccepted:
		return notification.TypeLawyerRequestAccepted,
			fmt.Sprintf("Your lawyer request for case %s has been accepted", ev.CaseNumber)
	case DecisionRejected:
		return notification.TypeLawyerRequestRejected,
			fmt.Sprintf("Your lawyer request for case %s has been rejected", ev.CaseNumber)
	default:
		return notification.TypeLawyerRequestPending,
			fmt.Sprintf("Your lawyer request for case %s is pending review", ev.CaseNumber)
	}
}

func lawyerDecisionText(ev Event) (notification.Type, string) {
	switch ev.Decision {
	case DecisionAccepted:
		return notification.TypeCaseAccepted,
			fmt.Sprintf("You have accepted representation for case %s", ev.CaseNumber)
	case DecisionRejected:
		return notification.TypeLawyerRequestRejected,
			fmt.Sprintf("You have declined representation for case %s", ev.CaseNumber)
	default:
		return notification.TypeLawyerRequestPending,
			fmt.Sprintf("A representation request for case %s is awaiting your decision", ev.CaseNumber)
	}
}

func resolveStatusChanged(ev Event) []Target {
	targets := make([]Target, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		md := caseMetadata(ev, p.Label)
		md["status"] = ev.Status
		if ev.OldStatus != "" {
			md["old_status"] = ev.OldStatus
		}
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: p.Role,
			RoleInCase:    p.Label,
			Title:         "Case status changed",
			Message:       fmt.Sprintf("Status of case %s changed to %s (%s)", ev.CaseNumber, ev.Status, roleLabel(p.Label)),
			Type:          notification.TypeStatusChanged,
			Priority:      notification.PriorityNormal,
			Metadata:      md,
		})
	}
	return targets
}

// resolveParticipantEvent covers the events whose audience is supplied by the
// caller, with each participant's role label woven into the message.
func resolveParticipantEvent(ev Event, typ notification.Type, priority notification.Priority, title, base string) []Target {
	targets := make([]Target, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		message := fmt.Sprintf("%s in case %s (%s)", base, ev.CaseNumber, roleLabel(p.Label))
		if ev.Summary != "" {
			message = fmt.Sprintf("%s in case %s: %s (%s)", base, ev.CaseNumber, ev.Summary, roleLabel(p.Label))
		}
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: p.Role,
			RoleInCase:    p.Label,
			Title:         title,
			Message:       message,
			Type:          typ,
			Priority:      priority,
			Metadata:      caseMetadata(ev, p.Label),
		})
	}
	return targets
}

func resolveComplaintSubmitted(ev Event) []Target {
	targets := make([]Target, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: p.Role,
			RoleInCase:    p.Label,
			Title:         "New complaint submitted",
			Message:       "A new citizen complaint has been submitted for review",
			Type:          notification.TypeComplaintSubmitted,
			Priority:      notification.PriorityNormal,
			Metadata:      caseMetadata(ev, p.Label),
		})
	}
	return targets
}

func resolveComplaintAssigned(ev Event, parties caseparty.Graph) []Target {
	var targets []Target

	if p := parties.Complainant; p != nil {
		targets = append(targets, Target{
			RecipientID:   p.ID,
			RecipientType: notification.RecipientCitizen,
			RoleInCase:    "complainant",
			Title:         "Complaint assigned",
			Message:       "Your complaint has been assigned to an investigating officer",
			Type:          notification.TypeComplaintAssigned,
			Priority:      notification.PriorityNormal,
			Metadata:      caseMetadata(ev, "complainant"),
		})
	}
	if a := ev.Assignee; a != nil {
		targets = append(targets, Target{
			RecipientID:   a.ID,
			RecipientType: a.Role,
			RoleInCase:    a.Label,
			Title:         "Complaint assigned to you",
			Message:       "A citizen complaint has been assigned to you for investigation",
			Type:          notification.TypeComplaintAssigned,
			Priority:      notification.PriorityHigh,
			Metadata:      caseMetadata(ev, a.Label),
		})
	}

	return targets
}

// applyExclusions drops any target whose recipient appears in the exclusion
// list. It runs after every per-event rule.
func applyExclusions(targets []Target, exclude []string) []Target {
	if len(exclude) == 0 || len(targets) == 0 {
		return targets
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	filtered := targets[:0]
	for _, t := range targets {
		if _, skip := excluded[t.RecipientID]; skip {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func newGraphTarget(p caseparty.Party, rt notification.RecipientType, role, title, message string, ev Event) Target {
	return Target{
		RecipientID:   p.ID,
		RecipientType: rt,
		RoleInCase:    role,
		Title:         title,
		Message:       message,
		Type:          notification.TypeCaseClosed,
		Priority:      notification.PriorityHigh,
		Metadata:      caseMetadata(ev, role),
	}
}

func caseMetadata(ev Event, role string) map[string]interface{} {
	md := make(map[string]interface{}, len(ev.Metadata)+4)
	for k, v := range ev.Metadata {
		md[k] = v
	}
	if ev.CaseNumber != "" {
		md["case_number"] = ev.CaseNumber
	}
	if ev.FIRNumber != "" {
		md["fir_number"] = ev.FIRNumber
	}
	if role != "" {
		md["role"] = role
	}
	return md
}

func roleLabel(label string) string {
	if label == "" {
		return "participant"
	}
	return strings.ReplaceAll(label, "_", " ")
}
