package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

// statusUpdateRoles may update an issue's status; assignment is reserved for
// municipal_admin.
var statusUpdateRoles = map[domain.Role]struct{}{
	domain.RoleFieldStaff:      {},
	domain.RoleDepartmentAdmin: {},
	domain.RoleMunicipalAdmin:  {},
}

type issueService struct {
	issues ports.IssueRepository
	users  ports.UserRepository
	refs   ports.ReferenceRepository
	gate   *Gate
	log    zerolog.Logger
}

// NewIssueService returns an IssueService implementation backed by the
// authorization gate.
func NewIssueService(
	issues ports.IssueRepository,
	users ports.UserRepository,
	refs ports.ReferenceRepository,
	gate *Gate,
	log zerolog.Logger,
) ports.IssueService {
	return &issueService{issues: issues, users: users, refs: refs, gate: gate, log: log}
}

// Create reports a new grievance. Geography is always pinned from the
// reporter's stored profile; a reporter without a complete location must
// update their profile first.
func (s *issueService) Create(ctx context.Context, caller domain.SessionContext, in ports.CreateIssueInput) (*domain.Issue, error) {
	if caller.Role != domain.RoleCitizen && caller.Role != domain.RoleFacilitator {
		return nil, domain.ErrUnauthorized
	}
	if in.Title == "" || in.Description == "" || in.Category == "" {
		return nil, fmt.Errorf("title, description and category are required")
	}

	reporter, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	loc := reporter.Location
	if loc.StateID == "" || loc.CityID == "" || loc.WardID == "" {
		return nil, domain.ErrMissingProfileLocation
	}

	now := time.Now().UTC()
	issue := &domain.Issue{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		StateID:     loc.StateID,
		CityID:      loc.CityID,
		WardID:      loc.WardID,
		ReportedBy:  reporter.ID,
		Source:      reporter.Role,
		Assisted:    reporter.Role == domain.RoleFacilitator,
		Status:      domain.StatusReported,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
		Timeline: []domain.StatusUpdate{{
			Status:    domain.StatusReported,
			Remarks:   "Issue reported",
			UpdatedBy: reporter.ID,
			UpdatedAt: now,
		}},
	}

	created, err := s.issues.Create(ctx, issue)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("issue_id", created.ID).
		Str("reporter_id", reporter.ID).
		Str("ward_id", loc.WardID).
		Msg("issue created")

	return created, nil
}

// List returns issues inside the caller's authoritative scope. Issue
// visibility is geographic, not rank-based; the citizen tier sees the union
// of its own reports and its ward.
func (s *issueService) List(ctx context.Context, caller domain.SessionContext, req ports.ListIssuesRequest) ([]*domain.Issue, error) {
	decision, ok, err := s.gate.AuthorizeList(ctx, caller, RequestedFilter{
		StateID:      req.StateID,
		CityID:       req.CityID,
		WardID:       req.WardID,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*domain.Issue{}, nil
	}

	filter := ports.ListIssuesFilter{
		Scope:  decision.Scope,
		Search: req.Search,
	}
	if req.Status != "" {
		filter.Status = domain.IssueStatus(req.Status)
	}

	return s.issues.List(ctx, filter)
}

// Get retrieves one issue inside the caller's scope. Out-of-scope records
// are indistinguishable from missing ones.
func (s *issueService) Get(ctx context.Context, caller domain.SessionContext, issueID string) (*domain.Issue, error) {
	scope, err := s.gate.AuthorizeMutation(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.issues.FindByID(ctx, issueID, scope)
}

// UpdateStatus applies a status transition. The acting role must be allowed
// to mutate issues, the record must fall inside the actor's scope as
// re-derived from the store, and the transition must be legal.
func (s *issueService) UpdateStatus(ctx context.Context, caller domain.SessionContext, issueID string, status domain.IssueStatus, remarks string) error {
	if _, ok := statusUpdateRoles[caller.Role]; !ok {
		return domain.ErrUnauthorized
	}

	scope, err := s.gate.AuthorizeMutation(ctx, caller)
	if err != nil {
		return err
	}

	issue, err := s.issues.FindByID(ctx, issueID, scope)
	if err != nil {
		return err
	}
	if !issue.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, issue.Status, status)
	}

	entry := domain.StatusUpdate{
		Status:    status,
		Remarks:   remarks,
		UpdatedBy: caller.UserID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.issues.UpdateStatus(ctx, issueID, status, entry); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().
		Str("issue_id", issueID).
		Str("status", string(status)).
		Str("updated_by", caller.UserID).
		Msg("issue status updated")

	return nil
}

// Assign hands an issue to a department. Only municipal_admin may assign,
// the issue must lie in their city, and the department must belong to the
// issue's city.
func (s *issueService) Assign(ctx context.Context, caller domain.SessionContext, issueID, departmentID string, deadline time.Time, remarks string) error {
	if caller.Role != domain.RoleMunicipalAdmin {
		return domain.ErrUnauthorized
	}
	if departmentID == "" {
		return fmt.Errorf("department is required")
	}

	scope, err := s.gate.AuthorizeMutation(ctx, caller)
	if err != nil {
		return err
	}

	issue, err := s.issues.FindByID(ctx, issueID, scope)
	if err != nil {
		return err
	}
	if !issue.Status.CanTransitionTo(domain.StatusAssigned) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, issue.Status, domain.StatusAssigned)
	}

	ok, err := s.refs.DepartmentInCity(ctx, departmentID, issue.CityID)
	if err != nil {
		return fmt.Errorf("assign issue: %w", err)
	}
	if !ok {
		return domain.ErrScopeViolation
	}

	entry := domain.StatusUpdate{
		Status:    domain.StatusAssigned,
		Remarks:   remarks,
		UpdatedBy: caller.UserID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.issues.Assign(ctx, issueID, departmentID, deadline, entry); err != nil {
		return fmt.Errorf("assign issue: %w", err)
	}

	s.log.Info().
		Str("issue_id", issueID).
		Str("department_id", departmentID).
		Str("assigned_by", caller.UserID).
		Msg("issue assigned")

	return nil
}

// Stats aggregates issue counts under the caller's scope.
func (s *issueService) Stats(ctx context.Context, caller domain.SessionContext) (*domain.IssueStats, error) {
	decision, ok, err := s.gate.AuthorizeList(ctx, caller, RequestedFilter{})
	if err != nil {
		return nil, err
	}
	if !ok {
		return &domain.IssueStats{}, nil
	}
	return s.issues.Stats(ctx, decision.Scope)
}
