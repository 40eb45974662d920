package ports

import (
	"context"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// SignupInput carries the citizen self-signup form.
type SignupInput struct {
	Name     string
	Mobile   string
	Password string
	Email    string
	Location domain.Location
	Assisted bool
}

// AuthService implements password authentication and account lifecycle.
type AuthService interface {
	// Signup creates an unverified citizen profile. The follow-up OTP flow
	// is opened separately by the caller.
	Signup(ctx context.Context, in SignupInput) (*domain.UserProfile, error)
	// Authenticate verifies mobile+password and returns a signed session
	// token. The error is identical whether the identifier is unknown or the
	// password is wrong.
	Authenticate(ctx context.Context, mobile, password string) (string, domain.SessionContext, error)
	// ChangePassword re-hashes the password for a logged-in caller after
	// verifying the current one.
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}
