package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// applyScope translates a gate-produced ScopeFilter into AND predicates over
// the user collection's geography columns. An unconstrained scope adds
// nothing.
func applyScope(query bson.M, scope domain.ScopeFilter) {
	if scope.StateID != "" {
		query["state_id"] = scope.StateID
	}
	if scope.CityID != "" {
		query["city_id"] = scope.CityID
	}
	if scope.WardID != "" {
		query["ward_id"] = scope.WardID
	}
	if scope.DepartmentID != "" {
		query["department_id"] = scope.DepartmentID
	}
}

// applyIssueScope translates a ScopeFilter into predicates over the issue
// collection. The citizen tier's union rule becomes an $or of reporter and
// ward; every other field is an AND predicate. Departments map to the
// issue's assigned_department.
func applyIssueScope(query bson.M, scope domain.ScopeFilter) {
	if scope.ReporterWardAny {
		query["$or"] = []bson.M{
			{"reported_by": scope.ReporterID},
			{"ward_id": scope.WardID},
		}
	} else {
		if scope.ReporterID != "" {
			query["reported_by"] = scope.ReporterID
		}
		if scope.WardID != "" {
			query["ward_id"] = scope.WardID
		}
	}
	if scope.StateID != "" {
		query["state_id"] = scope.StateID
	}
	if scope.CityID != "" {
		query["city_id"] = scope.CityID
	}
	if scope.DepartmentID != "" {
		query["assigned_department"] = scope.DepartmentID
	}
}
