package service

import (
	"context"
	"fmt"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

// RequestedFilter is a caller-supplied geographic refinement. Nothing in it
// is trusted; every field is validated against the caller's authoritative
// scope before it reaches a query.
type RequestedFilter struct {
	StateID      string
	CityID       string
	WardID       string
	DepartmentID string
}

// ScopeResolver derives the authoritative visibility scope for a caller from
// their stored profile. Client-supplied filters may only narrow within that
// scope, never widen or relocate outside it.
type ScopeResolver struct {
	users ports.UserRepository
	refs  ports.ReferenceRepository
}

func NewScopeResolver(users ports.UserRepository, refs ports.ReferenceRepository) *ScopeResolver {
	return &ScopeResolver{users: users, refs: refs}
}

// Resolve returns the effective scope for caller given a requested filter.
// The boolean is false when the request points outside the caller's
// authority: list reads serve an empty result in that case (existence of
// out-of-scope records must not be probeable), while mutations translate it
// to domain.ErrScopeViolation.
func (r *ScopeResolver) Resolve(ctx context.Context, caller domain.SessionContext, req RequestedFilter) (domain.ScopeFilter, bool, error) {
	profile, err := r.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return domain.ScopeFilter{}, false, fmt.Errorf("resolve scope: %w", err)
	}

	switch profile.Role {
	case domain.RoleSuperAdmin:
		// Unconstrained authority: any requested filter is honored verbatim.
		return domain.ScopeFilter{
			StateID:      req.StateID,
			CityID:       req.CityID,
			WardID:       req.WardID,
			DepartmentID: req.DepartmentID,
		}, true, nil

	case domain.RoleStateAdmin:
		return r.resolveStateAdmin(ctx, profile, req)

	case domain.RoleMunicipalAdmin:
		return r.resolveMunicipalAdmin(ctx, profile, req)

	case domain.RoleDepartmentAdmin:
		return r.resolveDepartmentAdmin(ctx, profile, req)

	case domain.RoleFieldStaff:
		if profile.Location.WardID == "" {
			return domain.ScopeFilter{}, false, domain.ErrMissingProfileLocation
		}
		scope := domain.ScopeFilter{
			WardID:       profile.Location.WardID,
			DepartmentID: profile.Location.DepartmentID,
		}
		if conflicts(req, profile.Location) {
			return domain.ScopeFilter{}, false, nil
		}
		return scope, true, nil

	case domain.RoleFacilitator:
		if profile.Location.WardID == "" {
			return domain.ScopeFilter{}, false, domain.ErrMissingProfileLocation
		}
		if conflicts(req, profile.Location) {
			return domain.ScopeFilter{}, false, nil
		}
		return domain.ScopeFilter{WardID: profile.Location.WardID}, true, nil

	case domain.RoleCitizen:
		// Union rule: records the citizen reported OR records in their own
		// ward, when a ward is assigned.
		scope := domain.ScopeFilter{ReporterID: profile.ID}
		if profile.Location.WardID != "" {
			scope.WardID = profile.Location.WardID
			scope.ReporterWardAny = true
		}
		if conflicts(req, profile.Location) {
			return domain.ScopeFilter{}, false, nil
		}
		return scope, true, nil
	}

	return domain.ScopeFilter{}, false, fmt.Errorf("%w: %q", domain.ErrUnknownRole, profile.Role)
}

func (r *ScopeResolver) resolveStateAdmin(ctx context.Context, profile *domain.UserProfile, req RequestedFilter) (domain.ScopeFilter, bool, error) {
	pinnedState := profile.Location.StateID
	if pinnedState == "" {
		return domain.ScopeFilter{}, false, domain.ErrMissingProfileLocation
	}
	if req.StateID != "" && req.StateID != pinnedState {
		return domain.ScopeFilter{}, false, nil
	}

	scope := domain.ScopeFilter{StateID: pinnedState}

	if req.CityID != "" {
		ok, err := r.refs.CityInState(ctx, req.CityID, pinnedState)
		if err != nil {
			return domain.ScopeFilter{}, false, fmt.Errorf("resolve scope: %w", err)
		}
		if !ok {
			return domain.ScopeFilter{}, false, nil
		}
		scope.CityID = req.CityID
	}

	// Ward and department narrowing require a validated city context so the
	// membership chain (ward ∈ city ∈ state) holds end to end.
	if req.WardID != "" {
		ok, err := r.wardInCity(ctx, req.WardID, scope.CityID)
		if err != nil || !ok {
			return domain.ScopeFilter{}, false, err
		}
		scope.WardID = req.WardID
	}
	if req.DepartmentID != "" {
		ok, err := r.departmentInCity(ctx, req.DepartmentID, scope.CityID)
		if err != nil || !ok {
			return domain.ScopeFilter{}, false, err
		}
		scope.DepartmentID = req.DepartmentID
	}

	return scope, true, nil
}

func (r *ScopeResolver) resolveDepartmentAdmin(ctx context.Context, profile *domain.UserProfile, req RequestedFilter) (domain.ScopeFilter, bool, error) {
	if profile.Location.DepartmentID == "" {
		return domain.ScopeFilter{}, false, domain.ErrMissingProfileLocation
	}
	// The profile carries no ward at this tier, so a requested ward is not a
	// conflict; it is validated against the caller's city below.
	if req.StateID != "" && req.StateID != profile.Location.StateID {
		return domain.ScopeFilter{}, false, nil
	}
	if req.CityID != "" && req.CityID != profile.Location.CityID {
		return domain.ScopeFilter{}, false, nil
	}
	if req.DepartmentID != "" && req.DepartmentID != profile.Location.DepartmentID {
		return domain.ScopeFilter{}, false, nil
	}

	scope := domain.ScopeFilter{DepartmentID: profile.Location.DepartmentID}

	if req.WardID != "" {
		ok, err := r.wardInCity(ctx, req.WardID, profile.Location.CityID)
		if err != nil || !ok {
			return domain.ScopeFilter{}, false, err
		}
		scope.WardID = req.WardID
	}
	return scope, true, nil
}

func (r *ScopeResolver) resolveMunicipalAdmin(ctx context.Context, profile *domain.UserProfile, req RequestedFilter) (domain.ScopeFilter, bool, error) {
	pinnedCity := profile.Location.CityID
	if pinnedCity == "" {
		return domain.ScopeFilter{}, false, domain.ErrMissingProfileLocation
	}
	if req.StateID != "" && req.StateID != profile.Location.StateID {
		return domain.ScopeFilter{}, false, nil
	}
	if req.CityID != "" && req.CityID != pinnedCity {
		return domain.ScopeFilter{}, false, nil
	}

	scope := domain.ScopeFilter{CityID: pinnedCity}

	if req.WardID != "" {
		ok, err := r.wardInCity(ctx, req.WardID, pinnedCity)
		if err != nil || !ok {
			return domain.ScopeFilter{}, false, err
		}
		scope.WardID = req.WardID
	}
	if req.DepartmentID != "" {
		ok, err := r.departmentInCity(ctx, req.DepartmentID, pinnedCity)
		if err != nil || !ok {
			return domain.ScopeFilter{}, false, err
		}
		scope.DepartmentID = req.DepartmentID
	}

	return scope, true, nil
}

// wardInCity checks membership; an empty city context fails closed.
func (r *ScopeResolver) wardInCity(ctx context.Context, wardID, cityID string) (bool, error) {
	if cityID == "" {
		return false, nil
	}
	ok, err := r.refs.WardInCity(ctx, wardID, cityID)
	if err != nil {
		return false, fmt.Errorf("resolve scope: %w", err)
	}
	return ok, nil
}

func (r *ScopeResolver) departmentInCity(ctx context.Context, departmentID, cityID string) (bool, error) {
	if cityID == "" {
		return false, nil
	}
	ok, err := r.refs.DepartmentInCity(ctx, departmentID, cityID)
	if err != nil {
		return false, fmt.Errorf("resolve scope: %w", err)
	}
	return ok, nil
}

// conflicts reports whether any requested field names a value different from
// the caller's own assignment. Requests matching the caller's location are
// redundant but harmless; anything else points outside their authority.
func conflicts(req RequestedFilter, loc domain.Location) bool {
	if req.StateID != "" && req.StateID != loc.StateID {
		return true
	}
	if req.CityID != "" && req.CityID != loc.CityID {
		return true
	}
	if req.WardID != "" && req.WardID != loc.WardID {
		return true
	}
	if req.DepartmentID != "" && req.DepartmentID != loc.DepartmentID {
		return true
	}
	return false
}
