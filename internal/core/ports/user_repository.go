package ports

import (
	"context"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// ListUsersFilter carries all query parameters for listing users. Roles and
// Scope are always injected by the authorization gate, never taken from the
// client.
type ListUsersFilter struct {
	Roles  []domain.Role      // restrict to these roles (strict hierarchy)
	Scope  domain.ScopeFilter // authoritative geographic scope
	Search string             // optional: partial match on name or mobile
}

// UserRepository defines persistence operations over the authoritative user
// store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.UserProfile) (*domain.UserProfile, error)
	FindByID(ctx context.Context, id string) (*domain.UserProfile, error)
	FindByMobile(ctx context.Context, mobile string) (*domain.UserProfile, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.UserProfile, error)
	// MarkVerified sets the verification flag for the profile with the given
	// mobile identifier.
	MarkVerified(ctx context.Context, mobile string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdatePasswordByMobile(ctx context.Context, mobile, passwordHash string) error
	UpdateProfile(ctx context.Context, userID string, name, email, mobile string, loc domain.Location) error
}
