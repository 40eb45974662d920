package ports

import (
	"context"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// OtpService is the OTP verification state machine.
type OtpService interface {
	// Request issues a fresh code for identifier, replacing any live one,
	// and returns an opaque delivery handle.
	Request(ctx context.Context, identifier string, purpose domain.OtpPurpose) (string, error)
	// Verify consumes the live code on match and returns the session's
	// purpose so the caller can dispatch the follow-up action.
	Verify(ctx context.Context, identifier, code string) (domain.OtpPurpose, error)
	// CompletePasswordReset performs the single privileged action a verified
	// reset_password session authorizes. The session is invalidated whether
	// or not the reset succeeds.
	CompletePasswordReset(ctx context.Context, identifier, newPassword string) error
}
