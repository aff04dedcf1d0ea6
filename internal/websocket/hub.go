// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
	"caseflow-service/internal/pkg/jwt"
	"caseflow-service/internal/pkg/session"
	"caseflow-service/internal/registry"
)

// Hub is the push gateway: it terminates authenticated channels and exposes
// the send-to-user / send-to-role / send-to-case / broadcast primitives.
// Connection state lives in the injected ConnectionRegistry; the hub itself
// only owns case-room membership.
type Hub struct {
	registry registry.ConnectionRegistry

	// Case-scoped topics; clients join and leave explicitly.
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Broadcasting (role, case and all-channel sends)
	broadcast chan *BroadcastMessage

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	// Auth dependencies
	jwtVerifier    *jwt.Verifier
	sessionManager *session.Manager

	logger *zap.Logger
}

// BroadcastMessage targets exactly one of: a role group, a case room, or
// every open channel.
type BroadcastMessage struct {
	Role    notification.RecipientType
	CaseID  string
	All     bool
	Message *wstypes.WSMessage
}

func NewHub(reg registry.ConnectionRegistry, jwtVerifier *jwt.Verifier, sessionManager *session.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		registry:        reg,
		rooms:           make(map[string]map[*Client]struct{}),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		jwtVerifier:     jwtVerifier,
		sessionManager:  sessionManager,
		logger:          logger,
	}
}

// AuthenticateClient validates the bearer credential presented at handshake.
// Failure here means the channel is never opened and no registry entry is
// created.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role, ok := claims.RecipientType()
	if !ok {
		return nil, ErrUnknownRole
	}

	blacklisted, err := h.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	if _, err := h.sessionManager.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		return nil, err
	}

	return &ClientAuth{
		UserID:    claims.UserID,
		Role:      role,
		SessionID: claims.ID,
		Device:    claims.Device,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage processes a message from a client using registered handlers
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return nil // Will be handled by client's default handler
	}

	return handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	// Last writer wins: a new connection for the same user replaces the old
	// registry entry, and the old channel is closed.
	if replaced := h.registry.Register(client); replaced != nil {
		if old, ok := replaced.(*Client); ok {
			h.leaveAllRooms(old)
		}
		replaced.Close()
	}

	h.logger.Info("client connected",
		zap.String("user_id", client.userID),
		zap.String("role", string(client.role)),
		zap.Int("total", h.registry.Len()),
	)

	client.Send(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id": client.userID,
		"role":    client.role.Topic(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.registry.Unregister(client.userID, client)
	h.leaveAllRooms(client)
	client.Close()

	h.logger.Info("client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.registry.Len()),
	)
}

// SendToUser emits the payload on the user's personal topic. An offline
// recipient is reported with ErrRecipientOffline; the caller must treat that
// as non-fatal and must not retry.
func (h *Hub) SendToUser(userID string, msg *wstypes.WSMessage) error {
	ch, ok := h.registry.Lookup(userID)
	if !ok {
		return ErrRecipientOffline
	}

	if err := ch.Send(msg); err != nil {
		// A channel that cannot be written to is as good as offline.
		h.registry.Unregister(userID, ch)
		if client, ok := ch.(*Client); ok {
			h.leaveAllRooms(client)
		}
		ch.Close()
		return err
	}

	return nil
}

// SendToRole emits to the role-group topic; delivered to whoever is
// currently connected under that role, with no persistence obligation.
func (h *Hub) SendToRole(role notification.RecipientType, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{Role: role, Message: msg}
}

// SendToCase emits to a case-scoped topic.
func (h *Hub) SendToCase(caseID string, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{CaseID: caseID, Message: msg}
}

// BroadcastToAll emits to every open channel regardless of role.
func (h *Hub) BroadcastToAll(msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{All: true, Message: msg}
}

// BroadcastSystemAlert is a convenience wrapper for system-wide alerts.
func (h *Hub) BroadcastSystemAlert(alert *wstypes.SystemAlertData) {
	h.BroadcastToAll(wstypes.NewMessage(wstypes.EventTypeSystemAlert, alert))
}

func (h *Hub) broadcastMessage(msg *BroadcastMessage) {
	switch {
	case msg.All:
		for _, ch := range h.registry.All() {
			_ = ch.Send(msg.Message)
		}

	case msg.CaseID != "":
		h.mu.RLock()
		members := make([]*Client, 0, len(h.rooms[msg.CaseID]))
		for client := range h.rooms[msg.CaseID] {
			members = append(members, client)
		}
		h.mu.RUnlock()
		for _, client := range members {
			_ = client.Send(msg.Message)
		}

	default:
		for _, userID := range h.registry.MembersOfRole(msg.Role) {
			if ch, ok := h.registry.Lookup(userID); ok {
				_ = ch.Send(msg.Message)
			}
		}
	}
}

// JoinCase subscribes a client to a case-scoped topic. Effective
// immediately; no reconnection required.
func (h *Hub) JoinCase(client *Client, caseID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[caseID] == nil {
		h.rooms[caseID] = make(map[*Client]struct{})
	}
	h.rooms[caseID][client] = struct{}{}
}

// LeaveCase unsubscribes a client from a case-scoped topic. Idempotent.
func (h *Hub) LeaveCase(client *Client, caseID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[caseID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, caseID)
		}
	}
}

func (h *Hub) leaveAllRooms(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for caseID, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, caseID)
		}
	}
}

// IsUserConnected checks if a user has a live channel.
func (h *Hub) IsUserConnected(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// TotalClients reports the number of open channels.
func (h *Hub) TotalClients() int {
	return h.registry.Len()
}

func (h *Hub) shutdown() {
	for _, ch := range h.registry.All() {
		h.registry.Unregister(ch.UserID(), ch)
		ch.Close()
	}
}
