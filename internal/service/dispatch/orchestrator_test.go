// internal/service/dispatch/orchestrator_test.go
package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"caseflow-service/internal/domain/caseparty"
	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
	xerrors "caseflow-service/internal/pkg/errors"
	"caseflow-service/internal/service/fanout"
)

// fakeStore persists in memory and records call order against the gateway.
type fakeStore struct {
	created []*notification.Notification
	calls   *[]string

	failFor   map[string]error
	fatalErr  error
	fatalOnID string
}

func (f *fakeStore) Create(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, "store:"+req.RecipientID)
	}
	if err, ok := f.failFor[req.RecipientID]; ok {
		return nil, err
	}
	if f.fatalErr != nil && (f.fatalOnID == "" || f.fatalOnID == req.RecipientID) {
		return nil, f.fatalErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	n := &notification.Notification{
		ID:            "n-" + req.RecipientID,
		RecipientID:   req.RecipientID,
		RecipientType: req.RecipientType,
		Title:         req.Title,
		Message:       req.Message,
		Type:          req.Type,
		CaseID:        req.CaseID,
		ComplaintID:   req.ComplaintID,
		FIRID:         req.FIRID,
		Priority:      req.Priority,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now().UTC(),
	}
	f.created = append(f.created, n)
	return n, nil
}

// fakeGateway tracks pushed messages; userIDs in offline report a miss.
type fakeGateway struct {
	sent    map[string]*wstypes.WSMessage
	calls   *[]string
	offline map[string]struct{}
}

func newFakeGateway(calls *[]string) *fakeGateway {
	return &fakeGateway{
		sent:    make(map[string]*wstypes.WSMessage),
		calls:   calls,
		offline: make(map[string]struct{}),
	}
}

func (f *fakeGateway) SendToUser(userID string, msg *wstypes.WSMessage) error {
	if f.calls != nil {
		*f.calls = append(*f.calls, "push:"+userID)
	}
	if _, ok := f.offline[userID]; ok {
		return errors.New("recipient offline")
	}
	f.sent[userID] = msg
	return nil
}

func caseCreatedEvent() (fanout.Event, caseparty.Graph) {
	ev := fanout.Event{
		Kind:       fanout.EventCaseCreated,
		CaseID:     "case-1",
		CaseNumber: "CR-2026-042",
	}
	parties := caseparty.Graph{
		Complainant: &caseparty.Party{ID: "cit-1", Role: notification.RecipientCitizen},
		Officers:    []caseparty.Party{{ID: "pol-1", Role: notification.RecipientPolice}},
		Judge:       &caseparty.Party{ID: "jud-1", Role: notification.RecipientJudge},
	}
	return ev, parties
}

func TestDispatchPersistsBeforePush(t *testing.T) {
	var calls []string
	store := &fakeStore{calls: &calls}
	gateway := newFakeGateway(&calls)
	orch := NewOrchestrator(store, gateway, zap.NewNop())

	ev, parties := caseCreatedEvent()
	results, err := orch.Dispatch(context.Background(), ev, parties, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	want := []string{
		"store:cit-1", "push:cit-1",
		"store:pol-1", "push:pol-1",
		"store:jud-1", "push:jud-1",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call[%d] = %s, want %s (full %v)", i, calls[i], want[i], calls)
		}
	}

	for _, r := range results {
		if !r.Delivered {
			t.Errorf("recipient %s not delivered", r.Target.RecipientID)
		}
		if r.Notification == nil {
			t.Errorf("recipient %s missing persisted record", r.Target.RecipientID)
		}
	}
}

func TestDispatchPushPayloadMirrorsRecord(t *testing.T) {
	store := &fakeStore{}
	gateway := newFakeGateway(nil)
	orch := NewOrchestrator(store, gateway, zap.NewNop())

	ev, parties := caseCreatedEvent()
	results, err := orch.Dispatch(context.Background(), ev, parties, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	for _, r := range results {
		msg := gateway.sent[r.Target.RecipientID]
		if msg == nil {
			t.Fatalf("no push for %s", r.Target.RecipientID)
		}
		if msg.Type != wstypes.EventTypeNotification {
			t.Errorf("event type = %s, want notification", msg.Type)
		}

		data, ok := msg.Data.(*wstypes.NotificationData)
		if !ok {
			t.Fatalf("payload is %T, want *NotificationData", msg.Data)
		}
		n := r.Notification
		if data.ID != n.ID {
			t.Errorf("payload id = %s, want %s (client must ack the stored record)", data.ID, n.ID)
		}
		if data.Title != n.Title || data.Message != n.Message {
			t.Errorf("payload text differs from persisted record")
		}
		if data.Type != string(n.Type) || data.Priority != string(n.Priority) {
			t.Errorf("payload type/priority differs from persisted record")
		}
		if data.CaseID != n.CaseID {
			t.Errorf("payload case_id = %s, want %s", data.CaseID, n.CaseID)
		}
		if data.IsRead {
			t.Error("pushed notification must be unread")
		}
	}
}

func TestDispatchOfflineRecipientIsNonFatal(t *testing.T) {
	store := &fakeStore{}
	gateway := newFakeGateway(nil)
	gateway.offline["pol-1"] = struct{}{}
	orch := NewOrchestrator(store, gateway, zap.NewNop())

	ev, parties := caseCreatedEvent()
	results, err := orch.Dispatch(context.Background(), ev, parties, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	byID := make(map[string]Result, len(results))
	for _, r := range results {
		byID[r.Target.RecipientID] = r
	}

	if byID["pol-1"].Delivered {
		t.Error("offline recipient reported as delivered")
	}
	if byID["pol-1"].Notification == nil {
		t.Error("offline recipient's record must still be persisted")
	}
	if !byID["cit-1"].Delivered || !byID["jud-1"].Delivered {
		t.Error("online recipients must still be delivered")
	}
	if len(store.created) != 3 {
		t.Errorf("persisted = %d, want 3", len(store.created))
	}
}

func TestDispatchSkipsInvalidTarget(t *testing.T) {
	store := &fakeStore{
		failFor: map[string]error{
			"pol-1": xerrors.Wrap(xerrors.ErrInvalidInput, "recipient_id is required"),
		},
	}
	gateway := newFakeGateway(nil)
	orch := NewOrchestrator(store, gateway, zap.NewNop())

	ev, parties := caseCreatedEvent()
	results, err := orch.Dispatch(context.Background(), ev, parties, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	var skipped, delivered int
	for _, r := range results {
		if r.Err != nil {
			skipped++
			if !errors.Is(r.Err, xerrors.ErrInvalidInput) {
				t.Errorf("skip err = %v, want ErrInvalidInput", r.Err)
			}
		}
		if r.Delivered {
			delivered++
		}
	}
	if skipped != 1 || delivered != 2 {
		t.Errorf("skipped = %d delivered = %d, want 1 and 2", skipped, delivered)
	}
}

func TestDispatchStoreFailureAborts(t *testing.T) {
	storeDown := errors.New("connection refused")
	store := &fakeStore{fatalErr: storeDown, fatalOnID: "pol-1"}
	gateway := newFakeGateway(nil)
	orch := NewOrchestrator(store, gateway, zap.NewNop())

	ev, parties := caseCreatedEvent()
	results, err := orch.Dispatch(context.Background(), ev, parties, nil)
	if !errors.Is(err, storeDown) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}

	// The batch stops at the failing target; earlier recipients were handled.
	if len(results) != 1 {
		t.Errorf("results = %d, want 1 (complainant only)", len(results))
	}
	if _, pushed := gateway.sent["jud-1"]; pushed {
		t.Error("recipients after the failure must not be pushed")
	}
}

func TestDispatchRejectsUnknownKind(t *testing.T) {
	orch := NewOrchestrator(&fakeStore{}, newFakeGateway(nil), zap.NewNop())

	_, err := orch.Dispatch(context.Background(), fanout.Event{Kind: "case_teleported"}, caseparty.Graph{}, nil)
	if !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDispatchAppliesExclusions(t *testing.T) {
	store := &fakeStore{}
	gateway := newFakeGateway(nil)
	orch := NewOrchestrator(store, gateway, zap.NewNop())

	ev, parties := caseCreatedEvent()
	results, err := orch.Dispatch(context.Background(), ev, parties, []string{"cit-1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	for _, r := range results {
		if r.Target.RecipientID == "cit-1" {
			t.Error("excluded recipient was dispatched")
		}
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}
