// internal/registry/registry_test.go
package registry

import (
	"sort"
	"testing"

	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
)

// fakeChannel is a minimal Channel for registry tests.
type fakeChannel struct {
	userID string
	role   notification.RecipientType
	closed bool
}

func (f *fakeChannel) UserID() string                   { return f.userID }
func (f *fakeChannel) Role() notification.RecipientType { return f.role }
func (f *fakeChannel) Send(msg *wstypes.WSMessage) error { return nil }
func (f *fakeChannel) Close()                           { f.closed = true }

func TestRegisterAndLookup(t *testing.T) {
	r := NewInMemory()
	ch := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}

	if replaced := r.Register(ch); replaced != nil {
		t.Fatalf("replaced = %v, want nil on first register", replaced)
	}

	got, ok := r.Lookup("cit-1")
	if !ok || got != Channel(ch) {
		t.Fatalf("Lookup = %v %v, want registered channel", got, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	if _, ok := r.Lookup("ghost"); ok {
		t.Error("Lookup for unknown user must report offline")
	}
}

func TestRegisterReplacesExisting(t *testing.T) {
	r := NewInMemory()
	first := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}
	second := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}

	r.Register(first)
	replaced := r.Register(second)

	if replaced != Channel(first) {
		t.Fatalf("replaced = %v, want first channel", replaced)
	}
	got, _ := r.Lookup("cit-1")
	if got != Channel(second) {
		t.Fatal("lookup must resolve to the newest channel")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1 (one user, one channel)", r.Len())
	}
}

func TestUnregister(t *testing.T) {
	t.Run("removes the current channel", func(t *testing.T) {
		r := NewInMemory()
		ch := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}
		r.Register(ch)

		r.Unregister("cit-1", ch)

		if _, ok := r.Lookup("cit-1"); ok {
			t.Error("channel still registered after unregister")
		}
		if members := r.MembersOfRole(notification.RecipientCitizen); len(members) != 0 {
			t.Errorf("role members = %v, want empty", members)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		r := NewInMemory()
		ch := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}
		r.Register(ch)

		r.Unregister("cit-1", ch)
		r.Unregister("cit-1", ch)
		r.Unregister("ghost", nil)
	})

	t.Run("a replaced channel cannot evict its successor", func(t *testing.T) {
		r := NewInMemory()
		first := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}
		second := &fakeChannel{userID: "cit-1", role: notification.RecipientCitizen}

		r.Register(first)
		r.Register(second)

		// The old connection's read pump tears down late.
		r.Unregister("cit-1", first)

		got, ok := r.Lookup("cit-1")
		if !ok || got != Channel(second) {
			t.Fatal("successor channel was evicted by the replaced connection")
		}
	})
}

func TestMembersOfRole(t *testing.T) {
	r := NewInMemory()
	r.Register(&fakeChannel{userID: "cit-1", role: notification.RecipientCitizen})
	r.Register(&fakeChannel{userID: "cit-2", role: notification.RecipientCitizen})
	r.Register(&fakeChannel{userID: "jud-1", role: notification.RecipientJudge})

	citizens := r.MembersOfRole(notification.RecipientCitizen)
	sort.Strings(citizens)
	if len(citizens) != 2 || citizens[0] != "cit-1" || citizens[1] != "cit-2" {
		t.Errorf("citizens = %v, want [cit-1 cit-2]", citizens)
	}

	if judges := r.MembersOfRole(notification.RecipientJudge); len(judges) != 1 {
		t.Errorf("judges = %v, want one member", judges)
	}
	if lawyers := r.MembersOfRole(notification.RecipientLawyer); len(lawyers) != 0 {
		t.Errorf("lawyers = %v, want empty", lawyers)
	}
}

func TestAll(t *testing.T) {
	r := NewInMemory()
	r.Register(&fakeChannel{userID: "cit-1", role: notification.RecipientCitizen})
	r.Register(&fakeChannel{userID: "pol-1", role: notification.RecipientPolice})

	if channels := r.All(); len(channels) != 2 {
		t.Errorf("All = %d channels, want 2", len(channels))
	}
}
