// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Notification events (client -> server)
	EventTypeNotificationRead    EventType = "notification:read"
	EventTypeNotificationReadAll EventType = "notification:read_all"
	EventTypeNotificationList    EventType = "notification:list"

	// Notification events (server -> client)
	EventTypeNotification      EventType = "notification"
	EventTypeNotificationCount EventType = "notification:count"

	// Case room subscription events
	EventTypeJoinCaseRoom  EventType = "join_case_room"
	EventTypeLeaveCaseRoom EventType = "leave_case_room"
	EventTypeCaseUpdate    EventType = "case:update"

	// System events
	EventTypeSystemAlert EventType = "system:alert"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"` // For message tracking/acknowledgment
}

// CaseRoomRequest sent by a client to join or leave a case-scoped topic.
type CaseRoomRequest struct {
	CaseID string `json:"case_id"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NotificationData mirrors a persisted notification record on the wire.
type NotificationData struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message"`
	Type          string                 `json:"type"`
	IsRead        bool                   `json:"is_read"`
	CaseID        string                 `json:"case_id,omitempty"`
	ComplaintID   string                 `json:"complaint_id,omitempty"`
	FIRID         string                 `json:"fir_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Priority      string                 `json:"priority"`
	CreatedAt     time.Time              `json:"created_at"`
	RecipientType string                 `json:"recipient_type"`
}

// SystemAlertData for system-wide alerts
type SystemAlertData struct {
	Severity string `json:"severity"` // info, warning, critical
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
