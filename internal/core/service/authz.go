package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

// Gate is the authorization gate: it composes the role hierarchy with the
// geographic scope resolver into a single per-request decision. It is pure
// read-only composition; all actual reads and writes happen in the query
// layer, parameterized by the returned decision.
type Gate struct {
	resolver *ScopeResolver
	users    ports.UserRepository
	refs     ports.ReferenceRepository
	log      zerolog.Logger
}

func NewGate(resolver *ScopeResolver, users ports.UserRepository, refs ports.ReferenceRepository, log zerolog.Logger) *Gate {
	return &Gate{resolver: resolver, users: users, refs: refs, log: log}
}

// AuthorizeList resolves a listing decision. The boolean mirrors the
// resolver's uniform policy: false means "serve an empty result set".
// For user listings the allowed-role set is strictly below the caller;
// issue listings ignore it (visibility there is geographic, not rank-based).
func (g *Gate) AuthorizeList(ctx context.Context, caller domain.SessionContext, req RequestedFilter) (domain.AuthorizationDecision, bool, error) {
	scope, ok, err := g.resolver.Resolve(ctx, caller, req)
	if err != nil {
		return domain.AuthorizationDecision{}, false, err
	}
	return domain.AuthorizationDecision{
		AllowedRoles: domain.ManageableRoles(caller.Role),
		Scope:        scope,
	}, ok, nil
}

// AuthorizeMutation re-derives the caller's base scope from the store, with
// no requested narrowing. Records outside the returned scope must be treated
// as not found by the mutation path.
func (g *Gate) AuthorizeMutation(ctx context.Context, caller domain.SessionContext) (domain.ScopeFilter, error) {
	scope, ok, err := g.resolver.Resolve(ctx, caller, RequestedFilter{})
	if err != nil {
		return domain.ScopeFilter{}, err
	}
	if !ok {
		return domain.ScopeFilter{}, domain.ErrScopeViolation
	}
	return scope, nil
}

// AuthorizeCreateUser validates the acting role against the target role and
// returns the geography the new user must be created with. Tiers at or below
// municipal_admin get geography pinned from the creator's own stored profile;
// client-supplied values that would relocate the new user outside the
// creator's jurisdiction fail with ErrScopeViolation.
func (g *Gate) AuthorizeCreateUser(ctx context.Context, caller domain.SessionContext, targetRole domain.Role, requested domain.Location) (domain.Location, error) {
	if !targetRole.Valid() {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrUnknownRole, targetRole)
	}
	if !domain.CanCreate(caller.Role, targetRole) {
		g.log.Warn().
			Str("caller_id", caller.UserID).
			Str("caller_role", string(caller.Role)).
			Str("target_role", string(targetRole)).
			Msg("role escalation denied")
		return domain.Location{}, domain.ErrRoleEscalationDenied
	}

	profile, err := g.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return domain.Location{}, fmt.Errorf("authorize create: %w", err)
	}

	switch profile.Role {
	case domain.RoleSuperAdmin:
		return requested, nil

	case domain.RoleStateAdmin:
		return g.assignWithinState(ctx, profile, requested)

	case domain.RoleMunicipalAdmin:
		return g.assignWithinCity(ctx, profile, requested)
	}

	// Lower tiers never choose geography for anyone.
	return domain.Location{}, domain.ErrUnauthorized
}

// assignWithinState pins the new user's state to the creator's and honors a
// requested city/ward/department only after a membership check.
func (g *Gate) assignWithinState(ctx context.Context, profile *domain.UserProfile, requested domain.Location) (domain.Location, error) {
	pinnedState := profile.Location.StateID
	if pinnedState == "" {
		return domain.Location{}, domain.ErrMissingProfileLocation
	}
	loc := domain.Location{StateID: pinnedState}

	if requested.CityID != "" {
		ok, err := g.refs.CityInState(ctx, requested.CityID, pinnedState)
		if err != nil {
			return domain.Location{}, fmt.Errorf("authorize create: %w", err)
		}
		if !ok {
			return domain.Location{}, domain.ErrScopeViolation
		}
		loc.CityID = requested.CityID
	}
	return g.assignWardAndDepartment(ctx, loc, requested)
}

// assignWithinCity pins state and city from the creator's profile. The
// requested state/city are ignored outright: a mid-tier admin cannot plant
// users outside their jurisdiction.
func (g *Gate) assignWithinCity(ctx context.Context, profile *domain.UserProfile, requested domain.Location) (domain.Location, error) {
	if profile.Location.StateID == "" || profile.Location.CityID == "" {
		return domain.Location{}, domain.ErrMissingProfileLocation
	}
	loc := domain.Location{
		StateID: profile.Location.StateID,
		CityID:  profile.Location.CityID,
	}
	return g.assignWardAndDepartment(ctx, loc, requested)
}

func (g *Gate) assignWardAndDepartment(ctx context.Context, loc domain.Location, requested domain.Location) (domain.Location, error) {
	if requested.WardID != "" {
		if loc.CityID == "" {
			return domain.Location{}, domain.ErrScopeViolation
		}
		ok, err := g.refs.WardInCity(ctx, requested.WardID, loc.CityID)
		if err != nil {
			return domain.Location{}, fmt.Errorf("authorize create: %w", err)
		}
		if !ok {
			return domain.Location{}, domain.ErrScopeViolation
		}
		loc.WardID = requested.WardID
	}
	if requested.DepartmentID != "" {
		if loc.CityID == "" {
			return domain.Location{}, domain.ErrScopeViolation
		}
		ok, err := g.refs.DepartmentInCity(ctx, requested.DepartmentID, loc.CityID)
		if err != nil {
			return domain.Location{}, fmt.Errorf("authorize create: %w", err)
		}
		if !ok {
			return domain.Location{}, domain.ErrScopeViolation
		}
		loc.DepartmentID = requested.DepartmentID
	}
	return loc, nil
}
