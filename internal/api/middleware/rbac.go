package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// RBAC restricts a route group to an allow-list of roles. It is the coarse
// first gate; the authorization gate in the service layer makes the
// fine-grained per-record decision.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
