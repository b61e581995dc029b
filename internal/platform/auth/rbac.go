package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects requests whose viewer role is not in the allowed set.
// Admin viewers always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			viewer, ok := ViewerFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}
			if viewer.Role == "admin" {
				return next(c)
			}
			if _, ok := allowed[viewer.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
