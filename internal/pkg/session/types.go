// internal/pkg/session/types.go
package session

import "time"

// SessionData is what the authentication subsystem stores in Redis for each
// issued access token. This service only reads it during channel handshakes
// and API auth.
type SessionData struct {
	JTI            string                 `json:"jti"`
	UserID         string                 `json:"user_id"`
	Role           string                 `json:"role"`
	Device         string                 `json:"device,omitempty"`
	IPAddress      string                 `json:"ip_address,omitempty"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	LoginAt        time.Time              `json:"login_at"`
	LastActivityAt time.Time              `json:"last_activity_at"`
	ExpiresAt      time.Time              `json:"expires_at"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}
