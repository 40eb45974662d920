package service

import (
	"context"
	"fmt"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

type referenceService struct {
	users ports.UserRepository
	refs  ports.ReferenceRepository
}

// NewReferenceService returns scope-constrained master-data lookups. The
// same empty-result policy applies here: a lookup outside the caller's
// authority returns nothing rather than an error.
func NewReferenceService(users ports.UserRepository, refs ports.ReferenceRepository) ports.ReferenceService {
	return &referenceService{users: users, refs: refs}
}

func (s *referenceService) States(ctx context.Context) ([]domain.State, error) {
	return s.refs.ListStates(ctx)
}

// Cities lists cities inside the caller's authoritative state. Only
// super_admin may pick the state freely.
func (s *referenceService) Cities(ctx context.Context, caller domain.SessionContext, requestedStateID string) ([]domain.City, error) {
	stateID := requestedStateID
	if caller.Role != domain.RoleSuperAdmin {
		profile, err := s.users.FindByID(ctx, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("list cities: %w", err)
		}
		stateID = profile.Location.StateID
		if requestedStateID != "" && requestedStateID != stateID {
			return []domain.City{}, nil
		}
	}
	if stateID == "" {
		return []domain.City{}, nil
	}
	return s.refs.ListCities(ctx, stateID)
}

// Wards lists wards of a city the caller is entitled to see: super_admin any
// city, state_admin cities of their state (membership-checked),
// municipal_admin their own city only.
func (s *referenceService) Wards(ctx context.Context, caller domain.SessionContext, requestedCityID string) ([]domain.Ward, error) {
	cityID, err := s.resolveCity(ctx, caller, requestedCityID)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	if cityID == "" {
		return []domain.Ward{}, nil
	}
	return s.refs.ListWards(ctx, cityID)
}

// Departments follows the same city resolution as Wards.
func (s *referenceService) Departments(ctx context.Context, caller domain.SessionContext, requestedCityID string) ([]domain.Department, error) {
	cityID, err := s.resolveCity(ctx, caller, requestedCityID)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	if cityID == "" {
		return []domain.Department{}, nil
	}
	return s.refs.ListDepartments(ctx, cityID)
}

// resolveCity returns the city a lookup may target, or "" when the request
// falls outside the caller's authority.
func (s *referenceService) resolveCity(ctx context.Context, caller domain.SessionContext, requestedCityID string) (string, error) {
	switch caller.Role {
	case domain.RoleSuperAdmin:
		return requestedCityID, nil

	case domain.RoleStateAdmin:
		if requestedCityID == "" {
			return "", nil
		}
		profile, err := s.users.FindByID(ctx, caller.UserID)
		if err != nil {
			return "", err
		}
		if profile.Location.StateID == "" {
			return "", domain.ErrMissingProfileLocation
		}
		ok, err := s.refs.CityInState(ctx, requestedCityID, profile.Location.StateID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}
		return requestedCityID, nil

	default:
		profile, err := s.users.FindByID(ctx, caller.UserID)
		if err != nil {
			return "", err
		}
		cityID := profile.Location.CityID
		if requestedCityID != "" && requestedCityID != cityID {
			return "", nil
		}
		return cityID, nil
	}
}
