package domain

import (
	"errors"
	"fmt"
)

// Role is one of the fixed portal roles, totally ordered by rank.
type Role string

const (
	RoleCitizen         Role = "citizen"
	RoleFacilitator     Role = "facilitator"
	RoleFieldStaff      Role = "field_staff"
	RoleDepartmentAdmin Role = "department_admin"
	RoleMunicipalAdmin  Role = "municipal_admin"
	RoleStateAdmin      Role = "state_admin"
	RoleSuperAdmin      Role = "super_admin"
)

// rolePriority is the authoritative rank table. Ranks are used only for
// comparison, never for arithmetic.
var rolePriority = map[Role]int{
	RoleCitizen:         1,
	RoleFacilitator:     2,
	RoleFieldStaff:      3,
	RoleDepartmentAdmin: 4,
	RoleMunicipalAdmin:  5,
	RoleStateAdmin:      6,
	RoleSuperAdmin:      7,
}

// rolesByRank lists all roles in ascending rank order.
var rolesByRank = []Role{
	RoleCitizen,
	RoleFacilitator,
	RoleFieldStaff,
	RoleDepartmentAdmin,
	RoleMunicipalAdmin,
	RoleStateAdmin,
	RoleSuperAdmin,
}

var ErrUnknownRole = errors.New("unknown role")

var ErrUnauthorized = errors.New("unauthorized")
var ErrRoleEscalationDenied = errors.New("cannot manage an equal or higher role")
var ErrScopeViolation = errors.New("outside authoritative scope")

// Valid reports whether r is one of the fixed portal roles.
func (r Role) Valid() bool {
	_, ok := rolePriority[r]
	return ok
}

// Rank returns the total-order position of r. An unknown role is a
// configuration error, not a runtime condition.
func (r Role) Rank() (int, error) {
	p, ok := rolePriority[r]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, r)
	}
	return p, nil
}

// ManageableRoles returns every role with strictly lower rank than r, in
// ascending order. A role never manages itself or a superior.
func ManageableRoles(r Role) []Role {
	p, ok := rolePriority[r]
	if !ok {
		return nil
	}
	out := make([]Role, 0, p-1)
	for _, candidate := range rolesByRank {
		if rolePriority[candidate] < p {
			out = append(out, candidate)
		}
	}
	return out
}

// CanCreate reports whether acting may create or manage a user with target
// role: strictly lower rank only.
func CanCreate(acting, target Role) bool {
	ap, ok := rolePriority[acting]
	if !ok {
		return false
	}
	tp, ok := rolePriority[target]
	if !ok {
		return false
	}
	return tp < ap
}
