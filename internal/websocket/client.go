// internal/websocket/client.go
package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64KB
)

// ClientAuth holds authentication information
type ClientAuth struct {
	UserID    string
	Role      notification.RecipientType
	SessionID string
	Device    string
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	role      notification.RecipientType
	sessionID string
	device    string

	// Context for graceful shutdown
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    auth.UserID,
		role:      auth.Role,
		sessionID: auth.SessionID,
		device:    auth.Device,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// UserID returns the client's authenticated user ID.
func (c *Client) UserID() string {
	return c.userID
}

// Role returns the client's recipient role.
func (c *Client) Role() notification.RecipientType {
	return c.role
}

// SessionID returns the token id the channel was opened with.
func (c *Client) SessionID() string {
	return c.sessionID
}

// ReadPump handles incoming messages from client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			c.handleMessage(message)
		}
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from client
func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	// Try to handle with registered handlers first
	if err := c.hub.HandleClientMessage(context.Background(), c, msg); err != nil {
		c.SendError("handler_error", "Failed to process message", err.Error())
		return
	}

	// Built-in message handling
	switch msg.Type {
	case wstypes.EventTypePing:
		c.Send(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeJoinCaseRoom:
		var req wstypes.CaseRoomRequest
		if err := mapToStruct(msg.Data, &req); err != nil || req.CaseID == "" {
			c.SendError("invalid_request", "Invalid join_case_room request", xerrMessage(err))
			return
		}
		c.hub.JoinCase(c, req.CaseID)
		c.Send(wstypes.NewMessage(wstypes.EventTypeJoinCaseRoom, map[string]interface{}{
			"case_id": req.CaseID,
			"status":  "joined",
		}))

	case wstypes.EventTypeLeaveCaseRoom:
		var req wstypes.CaseRoomRequest
		if err := mapToStruct(msg.Data, &req); err != nil || req.CaseID == "" {
			c.SendError("invalid_request", "Invalid leave_case_room request", xerrMessage(err))
			return
		}
		c.hub.LeaveCase(c, req.CaseID)
		c.Send(wstypes.NewMessage(wstypes.EventTypeLeaveCaseRoom, map[string]interface{}{
			"case_id": req.CaseID,
			"status":  "left",
		}))
	}
}

// Send queues a message for delivery to the client. A full send buffer marks
// the consumer as too slow and the error is returned to the caller; the hub
// treats that like an offline recipient. Safe to call from any goroutine,
// including after Close: the send channel is never closed, so a dispatcher
// racing a reconnect gets ErrChannelClosed instead of a panic.
func (c *Client) Send(msg *wstypes.WSMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return ErrChannelClosed
	default:
	}

	select {
	case <-c.ctx.Done():
		return ErrChannelClosed
	case c.send <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	_ = c.Send(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close gracefully closes the client connection. Idempotent. Shutdown is
// signalled through the context only; c.send stays open so concurrent Send
// calls fail cleanly rather than panicking on a closed channel.
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}

func xerrMessage(err error) string {
	if err == nil {
		return "case_id is required"
	}
	return err.Error()
}
