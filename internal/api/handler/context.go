package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// ctxSession extracts the session claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both user id and role
// must be present (presence proves the middleware ran), and the role must be
// one of the fixed portal roles.
func ctxSession(c echo.Context) (domain.SessionContext, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if userID == "" || role == "" {
		return domain.SessionContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if !domain.Role(role).Valid() {
		return domain.SessionContext{}, echo.NewHTTPError(http.StatusUnauthorized, "unknown role claim")
	}
	return domain.SessionContext{UserID: userID, Role: domain.Role(role)}, nil
}
