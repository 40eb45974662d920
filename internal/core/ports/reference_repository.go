package ports

import (
	"context"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// ReferenceRepository reads the geography and department master tables.
// Membership checks back the scope resolver's server-side validation.
type ReferenceRepository interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListCities(ctx context.Context, stateID string) ([]domain.City, error)
	ListWards(ctx context.Context, cityID string) ([]domain.Ward, error)
	ListDepartments(ctx context.Context, cityID string) ([]domain.Department, error)

	CityInState(ctx context.Context, cityID, stateID string) (bool, error)
	WardInCity(ctx context.Context, wardID, cityID string) (bool, error)
	DepartmentInCity(ctx context.Context, departmentID, cityID string) (bool, error)
}
