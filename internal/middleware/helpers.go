// internal/middleware/helpers.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"caseflow-service/internal/domain/notification"
)

// MustGetUserID gets user ID from context or panics
func MustGetUserID(c *gin.Context) string {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

// MustGetJTI gets JTI from context or panics
func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

// HasRole checks if the authenticated user holds the given role.
func HasRole(c *gin.Context, role notification.RecipientType) bool {
	r, ok := GetRole(c)
	return ok && r == role
}
