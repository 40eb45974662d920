package ports

import (
	"context"
	"time"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// ListIssuesFilter carries query parameters for listing issues. Scope is
// always injected by the authorization gate; the remaining fields are
// caller-requested refinements already validated against that scope.
type ListIssuesFilter struct {
	Scope        domain.ScopeFilter
	Status       domain.IssueStatus // optional
	Search       string             // optional: partial match on title
}

// IssueRepository defines persistence operations for grievances.
type IssueRepository interface {
	// Create inserts the issue together with its initial timeline entry in a
	// single write.
	Create(ctx context.Context, issue *domain.Issue) (*domain.Issue, error)
	// FindByID retrieves an issue constrained by scope. Out-of-scope records
	// are reported as not found, never as forbidden.
	FindByID(ctx context.Context, id string, scope domain.ScopeFilter) (*domain.Issue, error)
	List(ctx context.Context, filter ListIssuesFilter) ([]*domain.Issue, error)
	Stats(ctx context.Context, scope domain.ScopeFilter) (*domain.IssueStats, error)
	// UpdateStatus sets the current status and appends the timeline entry
	// atomically.
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, entry domain.StatusUpdate) error
	// Assign sets the owning department, deadline, and status, appending the
	// timeline entry atomically.
	Assign(ctx context.Context, id, departmentID string, deadline time.Time, entry domain.StatusUpdate) error
}
