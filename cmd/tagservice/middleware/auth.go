package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/common/clients"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the echo context key for the caller id
	UserIDKey ContextKey = "user_id"

	// RoleKey is the echo context key for the caller role
	RoleKey ContextKey = "user_role"

	// AdminRole is the role allowed on administrative routes
	AdminRole = "admin"
)

// ExtractActor reads the X-User-ID and X-User-Role headers set by the
// upstream authorization layer and stores them on the echo and request
// contexts. Missing headers are allowed; the public access routes are anonymous.
//
// Usage:
//
//	e := echo.New()
//	e.Use(middleware.ExtractActor())
func ExtractActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			if userID := strings.TrimSpace(req.Header.Get("X-User-ID")); userID != "" {
				c.Set(string(UserIDKey), userID)
				ctx = clients.WithUserID(ctx, userID)
			}
			if role := strings.TrimSpace(req.Header.Get("X-User-Role")); role != "" {
				c.Set(string(RoleKey), role)
				ctx = clients.WithUserRole(ctx, role)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAdmin rejects callers without the admin role
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdmin(c) {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error": "admin role required",
				})
			}
			return next(c)
		}
	}
}

// GetUserID retrieves the caller id from the echo context
// Returns empty string if not set
func GetUserID(c echo.Context) string {
	userID, _ := c.Get(string(UserIDKey)).(string)
	return userID
}

// IsAdmin reports whether the caller carries the admin role
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(string(RoleKey)).(string)
	return strings.EqualFold(role, AdminRole)
}
