package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/civicworks/grievance-api/internal/api/metrics"
	"github.com/civicworks/grievance-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. The message for
	// credential failures is fixed: it must not reveal whether the
	// identifier exists.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrNotVerified):
		return http.StatusForbidden, "account not verified"
	case errors.Is(err, domain.ErrUnauthorized):
		metrics.AuthzDeniedTotal.WithLabelValues("unauthorized").Inc()
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrRoleEscalationDenied):
		metrics.AuthzDeniedTotal.WithLabelValues("role_escalation").Inc()
		return http.StatusForbidden, "cannot manage an equal or higher role"
	case errors.Is(err, domain.ErrScopeViolation):
		metrics.AuthzDeniedTotal.WithLabelValues("scope_violation").Inc()
		return http.StatusForbidden, "outside your jurisdiction"
	case errors.Is(err, domain.ErrMissingProfileLocation):
		return http.StatusUnprocessableEntity, "profile location not set"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrIssueNotFound):
		return http.StatusNotFound, "issue not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrMissingIdentifier):
		return http.StatusBadRequest, "identifier is required"
	case errors.Is(err, domain.ErrOtpNotFound):
		return http.StatusNotFound, "otp not found"
	case errors.Is(err, domain.ErrOtpExpired):
		return http.StatusGone, "otp expired"
	case errors.Is(err, domain.ErrOtpMismatch):
		return http.StatusUnauthorized, "incorrect otp"
	case errors.Is(err, domain.ErrOtpSessionRequired):
		return http.StatusUnauthorized, "verified otp session required"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
