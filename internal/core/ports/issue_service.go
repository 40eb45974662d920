package ports

import (
	"context"
	"time"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// CreateIssueInput carries a new grievance report. Geography is never taken
// from here; it is pinned from the reporter's stored profile.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Deadline    time.Time
}

// ListIssuesRequest is the caller-supplied (untrusted) filter for issue
// listings.
type ListIssuesRequest struct {
	StateID      string
	CityID       string
	WardID       string
	DepartmentID string
	Status       string
	Search       string
}

// IssueService implements the grievance workflow under the authorization
// gate.
type IssueService interface {
	Create(ctx context.Context, caller domain.SessionContext, in CreateIssueInput) (*domain.Issue, error)
	List(ctx context.Context, caller domain.SessionContext, req ListIssuesRequest) ([]*domain.Issue, error)
	Get(ctx context.Context, caller domain.SessionContext, issueID string) (*domain.Issue, error)
	UpdateStatus(ctx context.Context, caller domain.SessionContext, issueID string, status domain.IssueStatus, remarks string) error
	Assign(ctx context.Context, caller domain.SessionContext, issueID, departmentID string, deadline time.Time, remarks string) error
	Stats(ctx context.Context, caller domain.SessionContext) (*domain.IssueStats, error)
}

// ReferenceService serves scope-constrained master-data lookups.
type ReferenceService interface {
	States(ctx context.Context) ([]domain.State, error)
	Cities(ctx context.Context, caller domain.SessionContext, requestedStateID string) ([]domain.City, error)
	Wards(ctx context.Context, caller domain.SessionContext, requestedCityID string) ([]domain.Ward, error)
	Departments(ctx context.Context, caller domain.SessionContext, requestedCityID string) ([]domain.Department, error)
}
