package domain

// ScopeFilter constrains a query to a caller's authoritative visibility.
// The zero value means unconstrained (super_admin only). Non-empty fields
// combine as AND predicates, except the citizen rule below.
type ScopeFilter struct {
	StateID      string
	CityID       string
	WardID       string
	DepartmentID string
	ReporterID   string

	// ReporterWardAny widens ReporterID and WardID into a union: a record is
	// visible when it was reported by the caller OR lies in the caller's
	// ward. Only the citizen tier sets this.
	ReporterWardAny bool
}

// Unconstrained reports whether the filter imposes no restriction at all.
func (f ScopeFilter) Unconstrained() bool {
	return f == ScopeFilter{}
}

// AuthorizationDecision is the per-request outcome of the authorization
// gate: the roles the caller may see or manage, and the scope every query
// must be parameterized with.
type AuthorizationDecision struct {
	AllowedRoles []Role
	Scope        ScopeFilter
}

// RoleAllowed reports whether r is in the decision's allowed set.
func (d AuthorizationDecision) RoleAllowed(r Role) bool {
	for _, allowed := range d.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}
