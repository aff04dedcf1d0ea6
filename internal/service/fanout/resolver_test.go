// internal/service/fanout/resolver_test.go
package fanout

import (
	"strings"
	"testing"
	"time"

	"caseflow-service/internal/domain/caseparty"
	"caseflow-service/internal/domain/notification"
)

func fullGraph() caseparty.Graph {
	return caseparty.Graph{
		Complainant: &caseparty.Party{ID: "cit-1", Name: "Asha", Role: notification.RecipientCitizen},
		Officers: []caseparty.Party{
			{ID: "pol-1", Name: "Officer One", Role: notification.RecipientPolice},
			{ID: "pol-2", Name: "Officer Two", Role: notification.RecipientPolice},
		},
		Judge:             &caseparty.Party{ID: "jud-1", Role: notification.RecipientJudge},
		DefenseLawyer:     &caseparty.Party{ID: "law-1", Role: notification.RecipientLawyer},
		ProsecutionLawyer: &caseparty.Party{ID: "law-2", Role: notification.RecipientLawyer},
	}
}

func recipientIDs(targets []Target) []string {
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.RecipientID)
	}
	return ids
}

func assertIDs(t *testing.T, targets []Target, want ...string) {
	t.Helper()
	got := recipientIDs(targets)
	if len(got) != len(want) {
		t.Fatalf("got %d targets %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("target[%d] = %s, want %s (full order %v)", i, got[i], want[i], got)
		}
	}
}

func TestResolveCaseCreated(t *testing.T) {
	ev := Event{Kind: EventCaseCreated, CaseID: "case-1", CaseNumber: "CR-2026-042"}

	t.Run("notifies complainant, officers and judge in stable order", func(t *testing.T) {
		targets := Resolve(ev, fullGraph(), nil)
		assertIDs(t, targets, "cit-1", "pol-1", "pol-2", "jud-1")

		for _, target := range targets {
			if target.Type != notification.TypeCaseCreated {
				t.Errorf("target %s type = %s, want CASE_CREATED", target.RecipientID, target.Type)
			}
			if target.Priority != notification.PriorityHigh {
				t.Errorf("target %s priority = %s, want high", target.RecipientID, target.Priority)
			}
			if target.Metadata["case_number"] != "CR-2026-042" {
				t.Errorf("target %s missing case_number metadata", target.RecipientID)
			}
		}
	})

	t.Run("missing parties are skipped without placeholders", func(t *testing.T) {
		targets := Resolve(ev, caseparty.Graph{
			Officers: []caseparty.Party{{ID: "pol-1", Role: notification.RecipientPolice}},
		}, nil)
		assertIDs(t, targets, "pol-1")
	})

	t.Run("empty graph resolves to nothing", func(t *testing.T) {
		if targets := Resolve(ev, caseparty.Graph{}, nil); len(targets) != 0 {
			t.Fatalf("got %d targets, want 0", len(targets))
		}
	})
}

func TestResolveFIRRegistered(t *testing.T) {
	ev := Event{
		Kind:       EventFIRRegistered,
		FIRID:      "fir-9",
		FIRNumber:  "FIR-2026-009",
		CaseNumber: "CR-2026-042",
	}
	targets := Resolve(ev, fullGraph(), nil)

	t.Run("complainant gets registration confirmation", func(t *testing.T) {
		assertIDs(t, targets, "cit-1", "jud-1")

		citizen := targets[0]
		if citizen.Type != notification.TypeFIRRegistered {
			t.Errorf("citizen type = %s, want FIR_REGISTERED", citizen.Type)
		}
		if citizen.Priority != notification.PriorityHigh {
			t.Errorf("citizen priority = %s, want high", citizen.Priority)
		}
		want := "FIR FIR-2026-009 has been registered for your complaint"
		if citizen.Message != want {
			t.Errorf("citizen message = %q, want %q", citizen.Message, want)
		}
	})

	t.Run("judge gets review notice at normal priority", func(t *testing.T) {
		judge := targets[1]
		if judge.Type != notification.TypeFIRSubmitted {
			t.Errorf("judge type = %s, want FIR_SUBMITTED", judge.Type)
		}
		if judge.Priority != notification.PriorityNormal {
			t.Errorf("judge priority = %s, want normal", judge.Priority)
		}
	})

	t.Run("officers are not in the audience", func(t *testing.T) {
		for _, target := range targets {
			if target.RecipientType == notification.RecipientPolice {
				t.Errorf("unexpected police target %s", target.RecipientID)
			}
		}
	})
}

func TestResolveLawyerRequestDecision(t *testing.T) {
	base := Event{
		Kind:       EventLawyerRequestDecision,
		CaseNumber: "CR-2026-042",
		Citizen:    &caseparty.Party{ID: "cit-1", Role: notification.RecipientCitizen},
		Lawyer:     &caseparty.Party{ID: "law-1", Role: notification.RecipientLawyer},
	}

	t.Run("accepted notifies both sides with distinct types", func(t *testing.T) {
		ev := base
		ev.Decision = DecisionAccepted

		targets := Resolve(ev, caseparty.Graph{}, nil)
		assertIDs(t, targets, "cit-1", "law-1")

		if targets[0].Type != notification.TypeLawyerRequestAccepted {
			t.Errorf("citizen type = %s, want LAWYER_REQUEST_ACCEPTED", targets[0].Type)
		}
		if targets[1].Type != notification.TypeCaseAccepted {
			t.Errorf("lawyer type = %s, want CASE_ACCEPTED", targets[1].Type)
		}

		if !strings.Contains(targets[0].Message, "accepted") {
			t.Errorf("citizen message %q must mention acceptance", targets[0].Message)
		}
		if !strings.Contains(targets[1].Message, "CR-2026-042") {
			t.Errorf("lawyer message %q must carry the case number", targets[1].Message)
		}
	})

	t.Run("rejected notifies both sides with rejection", func(t *testing.T) {
		ev := base
		ev.Decision = DecisionRejected

		targets := Resolve(ev, caseparty.Graph{}, nil)
		for _, target := range targets {
			if target.Type != notification.TypeLawyerRequestRejected {
				t.Errorf("target %s type = %s, want LAWYER_REQUEST_REJECTED", target.RecipientID, target.Type)
			}
		}
	})
}

func TestResolveHearingScheduled(t *testing.T) {
	hearingAt := time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC)
	ev := Event{
		Kind:       EventHearingScheduled,
		CaseNumber: "CR-2026-042",
		HearingAt:  hearingAt,
		Participants: []caseparty.Participant{
			{Party: caseparty.Party{ID: "cit-1", Role: notification.RecipientCitizen}, Label: "complainant"},
			{Party: caseparty.Party{ID: "law-1", Role: notification.RecipientLawyer}, Label: "defense_lawyer"},
			{Party: caseparty.Party{ID: "wit-1", Role: notification.RecipientCitizen}, Label: "witness"},
		},
	}

	targets := Resolve(ev, caseparty.Graph{}, nil)
	assertIDs(t, targets, "cit-1", "law-1", "wit-1")

	for _, target := range targets {
		if target.Priority != notification.PriorityUrgent {
			t.Errorf("target %s priority = %s, want urgent", target.RecipientID, target.Priority)
		}
		if target.ExpiresAt == nil || !target.ExpiresAt.Equal(hearingAt) {
			t.Errorf("target %s expiry = %v, want hearing time", target.RecipientID, target.ExpiresAt)
		}
		if got, ok := target.Metadata["hearing_at"].(time.Time); !ok || !got.Equal(hearingAt) {
			t.Errorf("target %s missing hearing_at metadata", target.RecipientID)
		}
	}
}

func TestResolveCaseClosed(t *testing.T) {
	ev := Event{Kind: EventCaseClosed, CaseNumber: "CR-2026-042", Verdict: "acquitted"}

	targets := Resolve(ev, fullGraph(), nil)
	assertIDs(t, targets, "cit-1", "pol-1", "pol-2", "law-1", "law-2")

	want := "Case CR-2026-042 has been closed. Verdict: acquitted"
	for _, target := range targets {
		if target.Message != want {
			t.Errorf("target %s message = %q, want %q", target.RecipientID, target.Message, want)
		}
		if target.Type != notification.TypeCaseClosed {
			t.Errorf("target %s type = %s, want CASE_CLOSED", target.RecipientID, target.Type)
		}
	}
}

func TestResolveParticipantEvents(t *testing.T) {
	participants := []caseparty.Participant{
		{Party: caseparty.Party{ID: "cit-1", Role: notification.RecipientCitizen}, Label: "complainant"},
		{Party: caseparty.Party{ID: "law-1", Role: notification.RecipientLawyer}, Label: "defense_lawyer"},
	}

	cases := []struct {
		kind     EventKind
		typ      notification.Type
		priority notification.Priority
	}{
		{EventEvidenceSubmitted, notification.TypeEvidenceSubmitted, notification.PriorityNormal},
		{EventDocumentFiled, notification.TypeDocumentFiled, notification.PriorityNormal},
		{EventOrderPassed, notification.TypeOrderPassed, notification.PriorityHigh},
		{EventJudgmentPassed, notification.TypeJudgmentPassed, notification.PriorityHigh},
		{EventSummonIssued, notification.TypeSummonIssued, notification.PriorityUrgent},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			targets := Resolve(Event{
				Kind:         tc.kind,
				CaseNumber:   "CR-2026-042",
				Participants: participants,
			}, caseparty.Graph{}, nil)

			assertIDs(t, targets, "cit-1", "law-1")
			for _, target := range targets {
				if target.Type != tc.typ {
					t.Errorf("type = %s, want %s", target.Type, tc.typ)
				}
				if target.Priority != tc.priority {
					t.Errorf("priority = %s, want %s", target.Priority, tc.priority)
				}
			}
		})
	}
}

func TestResolveStatusChanged(t *testing.T) {
	targets := Resolve(Event{
		Kind:       EventStatusChanged,
		CaseNumber: "CR-2026-042",
		Status:     "UNDER_TRIAL",
		OldStatus:  "FILED",
		Participants: []caseparty.Participant{
			{Party: caseparty.Party{ID: "cit-1", Role: notification.RecipientCitizen}, Label: "complainant"},
		},
	}, caseparty.Graph{}, nil)

	assertIDs(t, targets, "cit-1")
	if targets[0].Metadata["status"] != "UNDER_TRIAL" {
		t.Errorf("status metadata = %v, want UNDER_TRIAL", targets[0].Metadata["status"])
	}
	if targets[0].Metadata["old_status"] != "FILED" {
		t.Errorf("old_status metadata = %v, want FILED", targets[0].Metadata["old_status"])
	}
}

func TestExclusions(t *testing.T) {
	ev := Event{Kind: EventCaseCreated, CaseNumber: "CR-2026-042"}

	t.Run("excluded recipients are filtered from every rule", func(t *testing.T) {
		targets := Resolve(ev, fullGraph(), []string{"pol-1", "jud-1"})
		assertIDs(t, targets, "cit-1", "pol-2")
	})

	t.Run("excluding everyone yields an empty fan-out", func(t *testing.T) {
		targets := Resolve(ev, fullGraph(), []string{"cit-1", "pol-1", "pol-2", "jud-1"})
		if len(targets) != 0 {
			t.Fatalf("got %d targets, want 0", len(targets))
		}
	})

	t.Run("unknown exclusion ids are ignored", func(t *testing.T) {
		targets := Resolve(ev, fullGraph(), []string{"nobody"})
		assertIDs(t, targets, "cit-1", "pol-1", "pol-2", "jud-1")
	})
}

func TestResolveUnknownKind(t *testing.T) {
	targets := Resolve(Event{Kind: "case_teleported"}, fullGraph(), nil)
	if len(targets) != 0 {
		t.Fatalf("got %d targets for unknown kind, want 0", len(targets))
	}
}
