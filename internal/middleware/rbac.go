package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRoles restricts a route to callers whose role (as set by
// JWTMiddleware) is in the allowed set. Route-level coarse check;
// per-resource ownership stays with the handlers.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == "" || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}
			return next(c)
		}
	}
}
