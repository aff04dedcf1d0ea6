package jwt

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"caseflow-service/internal/domain/notification"
)

// Claims represents the JWT claims issued by the authentication subsystem.
// This service only ever verifies them.
type Claims struct {
	UserID         string                 `json:"user_id"`
	Role           string                 `json:"role,omitempty"`
	Device         string                 `json:"device,omitempty"`
	SessionPurpose string                 `json:"session_purpose"` // access, refresh, ...
	ExtraData      map[string]interface{} `json:"extra_data,omitempty"`
	jwt.RegisteredClaims
}

// RecipientType maps the claim's role string onto the closed recipient enum.
// Case-insensitive; the auth subsystem issues lowercase role names.
func (c *Claims) RecipientType() (notification.RecipientType, bool) {
	rt := notification.RecipientType(strings.ToUpper(c.Role))
	return rt, rt.Valid()
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
