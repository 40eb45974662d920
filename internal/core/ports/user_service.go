package ports

import (
	"context"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// ListUsersRequest is the caller-supplied (untrusted) filter for user
// listings. The gate narrows it within the caller's authoritative scope.
type ListUsersRequest struct {
	StateID string
	CityID  string
	WardID  string
	Search  string
}

// CreateUserInput carries an admin's new-user form. Location is honored only
// for tiers allowed to choose geography; lower tiers get it pinned from
// their own profile.
type CreateUserInput struct {
	Name     string
	Email    string
	Mobile   string
	Password string
	Role     domain.Role
	Location domain.Location
}

// UpdateProfileInput carries a self-service profile edit.
type UpdateProfileInput struct {
	Name     string
	Email    string
	Mobile   string
	Location domain.Location
}

// UserService implements user administration under the authorization gate.
type UserService interface {
	List(ctx context.Context, caller domain.SessionContext, req ListUsersRequest) ([]*domain.UserProfile, error)
	Create(ctx context.Context, caller domain.SessionContext, in CreateUserInput) (string, error)
	Profile(ctx context.Context, caller domain.SessionContext) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, caller domain.SessionContext, in UpdateProfileInput) error
}
