// internal/registry/registry.go
package registry

import (
	"sync"
	"time"

	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
)

// Channel is one live push connection bound to a single user session.
// The concrete implementation lives in the websocket package; the registry
// only needs identity, role and a way to write.
type Channel interface {
	UserID() string
	Role() notification.RecipientType
	Send(msg *wstypes.WSMessage) error
	Close()
}

// ConnectionRegistry maps an authenticated user to at most one live channel
// and tracks role membership for broadcast groups. Entirely in-memory; it is
// rebuilt from scratch on restart, so every user shows offline until they
// reconnect.
type ConnectionRegistry interface {
	// Register inserts or replaces the entry for the channel's user and
	// returns the replaced channel, if any (last writer wins).
	Register(ch Channel) (replaced Channel)

	// Unregister removes the entry for userID, but only if it still points at
	// ch. This keeps a replaced connection's late close from evicting its
	// successor. Idempotent.
	Unregister(userID string, ch Channel)

	// Lookup returns the live channel for userID, if connected.
	Lookup(userID string) (Channel, bool)

	// MembersOfRole returns the userIDs currently connected under role.
	MembersOfRole(role notification.RecipientType) []string

	// All returns every registered channel.
	All() []Channel

	// Len reports the number of connected users.
	Len() int
}

type entry struct {
	ch          Channel
	connectedAt time.Time
}

// InMemory is the single-process ConnectionRegistry.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]entry
	byRole  map[notification.RecipientType]map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]entry),
		byRole:  make(map[notification.RecipientType]map[string]struct{}),
	}
}

func (r *InMemory) Register(ch Channel) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID := ch.UserID()
	var replaced Channel
	if old, ok := r.entries[userID]; ok {
		replaced = old.ch
		r.removeRoleLocked(old.ch)
	}

	r.entries[userID] = entry{ch: ch, connectedAt: time.Now()}
	role := ch.Role()
	if r.byRole[role] == nil {
		r.byRole[role] = make(map[string]struct{})
	}
	r.byRole[role][userID] = struct{}{}

	return replaced
}

func (r *InMemory) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[userID]
	if !ok || (ch != nil && cur.ch != ch) {
		return
	}

	delete(r.entries, userID)
	r.removeRoleLocked(cur.ch)
}

func (r *InMemory) Lookup(userID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, false
	}
	return e.ch, true
}

func (r *InMemory) MembersOfRole(role notification.RecipientType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.byRole[role]))
	for userID := range r.byRole[role] {
		members = append(members, userID)
	}
	return members
}

func (r *InMemory) All() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]Channel, 0, len(r.entries))
	for _, e := range r.entries {
		channels = append(channels, e.ch)
	}
	return channels
}

func (r *InMemory) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *InMemory) removeRoleLocked(ch Channel) {
	role := ch.Role()
	if members, ok := r.byRole[role]; ok {
		delete(members, ch.UserID())
		if len(members) == 0 {
			delete(r.byRole, role)
		}
	}
}
