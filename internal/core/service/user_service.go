package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type userService struct {
	users ports.UserRepository
	gate  *Gate
	log   zerolog.Logger
}

// NewUserService returns a UserService implementation backed by the
// authorization gate.
func NewUserService(users ports.UserRepository, gate *Gate, log zerolog.Logger) ports.UserService {
	return &userService{users: users, gate: gate, log: log}
}

// List returns users strictly below the caller's rank, inside the caller's
// authoritative scope. A requested filter can only shrink the result set; an
// out-of-scope request yields an empty one.
func (s *userService) List(ctx context.Context, caller domain.SessionContext, req ports.ListUsersRequest) ([]*domain.UserProfile, error) {
	decision, ok, err := s.gate.AuthorizeList(ctx, caller, RequestedFilter{
		StateID: req.StateID,
		CityID:  req.CityID,
		WardID:  req.WardID,
	})
	if err != nil {
		return nil, err
	}
	if len(decision.AllowedRoles) == 0 {
		return nil, domain.ErrUnauthorized
	}
	if !ok {
		return []*domain.UserProfile{}, nil
	}

	return s.users.List(ctx, ports.ListUsersFilter{
		Roles:  decision.AllowedRoles,
		Scope:  decision.Scope,
		Search: req.Search,
	})
}

// Create provisions a user at a strictly lower role, with geography assigned
// by the gate. Admin-created accounts are verified immediately and flagged
// as assisted signups, matching the portal's provisioning flow.
func (s *userService) Create(ctx context.Context, caller domain.SessionContext, in ports.CreateUserInput) (string, error) {
	if in.Name == "" || in.Mobile == "" || in.Password == "" {
		return "", domain.ErrInvalidCredentials
	}

	loc, err := s.gate.AuthorizeCreateUser(ctx, caller, in.Role, in.Location)
	if err != nil {
		return "", err
	}

	if _, err := s.users.FindByMobile(ctx, in.Mobile); err == nil {
		return "", domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("create user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.UserProfile{
		Name:           in.Name,
		Email:          in.Email,
		Mobile:         in.Mobile,
		PasswordHash:   string(hash),
		Role:           in.Role,
		Verified:       true,
		AssistedSignup: true,
		Location:       loc,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("creator_id", caller.UserID).
		Str("creator_role", string(caller.Role)).
		Str("user_id", created.ID).
		Str("role", string(in.Role)).
		Msg("user created")

	return created.ID, nil
}

// Profile returns the caller's own stored profile.
func (s *userService) Profile(ctx context.Context, caller domain.SessionContext) (*domain.UserProfile, error) {
	return s.users.FindByID(ctx, caller.UserID)
}

// UpdateProfile applies a self-service edit to the caller's own record.
// Citizens may update their declared residence; staff geography is assigned
// by the managing admin, and every later authorization decision re-reads it
// from the store, so a self-service edit must not relocate it.
func (s *userService) UpdateProfile(ctx context.Context, caller domain.SessionContext, in ports.UpdateProfileInput) error {
	if in.Name == "" || in.Mobile == "" {
		return domain.ErrInvalidCredentials
	}

	profile, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return err
	}

	loc := in.Location
	if profile.Role != domain.RoleCitizen {
		if loc != (domain.Location{}) && loc != profile.Location {
			return domain.ErrScopeViolation
		}
		loc = profile.Location
	}

	return s.users.UpdateProfile(ctx, caller.UserID, in.Name, in.Email, in.Mobile, loc)
}
