package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// contextKey is the key type used for values stored in the request context.
// Using a custom type prevents collisions.
type contextKey string

const (
	// userIDKey is the key used to store the authenticated user's ID.
	userIDKey = contextKey("userID")
	// userRoleKey is the key used to store the authenticated user's role.
	userRoleKey = contextKey("userRole")
	// loggerCtxKey is the key used to store the request-scoped logger.
	loggerCtxKey = contextKey("logger")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		userIDVal := c.Request.Context().Value(userIDKey)
		if userIDVal != nil {
			return userIDVal.(string), true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}

// GetUserRoleFromContext retrieves the authenticated user's role from the Gin
// context. It returns the role and a boolean indicating if it was found.
func GetUserRoleFromContext(c *gin.Context) (domain.UserRole, bool) {
	roleVal := c.Request.Context().Value(userRoleKey)
	if roleVal == nil {
		return "", false
	}

	role, ok := roleVal.(domain.UserRole)
	if !ok {
		return "", false
	}

	return role, true
}
