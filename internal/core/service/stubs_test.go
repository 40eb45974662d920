package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

// stubUserRepo is an in-memory UserRepository keyed by user id.
type stubUserRepo struct {
	users  map[string]*domain.UserProfile
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.UserProfile)}
}

func cloneProfile(u *domain.UserProfile) *domain.UserProfile {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// seed inserts a profile directly, bypassing Create.
func (r *stubUserRepo) seed(u *domain.UserProfile) {
	r.users[u.ID] = cloneProfile(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.UserProfile) (*domain.UserProfile, error) {
	for _, u := range r.users {
		if u.Mobile == user.Mobile {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneProfile(user)
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("u%d", r.nextID)
	}
	r.users[copy.ID] = cloneProfile(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.UserProfile, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneProfile(u), nil
}

func (r *stubUserRepo) FindByMobile(_ context.Context, mobile string) (*domain.UserProfile, error) {
	for _, u := range r.users {
		if u.Mobile == mobile {
			return cloneProfile(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// List applies the filter the way the query layer would: role allow-list,
// AND-combined scope fields, substring search.
func (r *stubUserRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.UserProfile, error) {
	var out []*domain.UserProfile
	for _, u := range r.users {
		if len(filter.Roles) > 0 {
			allowed := false
			for _, role := range filter.Roles {
				if u.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				continue
			}
		}
		s := filter.Scope
		if s.StateID != "" && u.Location.StateID != s.StateID {
			continue
		}
		if s.CityID != "" && u.Location.CityID != s.CityID {
			continue
		}
		if s.WardID != "" && u.Location.WardID != s.WardID {
			continue
		}
		if s.DepartmentID != "" && u.Location.DepartmentID != s.DepartmentID {
			continue
		}
		if filter.Search != "" && !strings.Contains(u.Name, filter.Search) && !strings.Contains(u.Mobile, filter.Search) {
			continue
		}
		out = append(out, cloneProfile(u))
	}
	return out, nil
}

func (r *stubUserRepo) MarkVerified(_ context.Context, mobile string) error {
	for _, u := range r.users {
		if u.Mobile == mobile {
			u.Verified = true
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *stubUserRepo) UpdatePasswordByMobile(_ context.Context, mobile, passwordHash string) error {
	for _, u := range r.users {
		if u.Mobile == mobile {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, userID string, name, email, mobile string, loc domain.Location) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name, u.Email, u.Mobile, u.Location = name, email, mobile, loc
	return nil
}

// stubRefRepo answers membership checks from explicit parent maps.
type stubRefRepo struct {
	cityState map[string]string // city id -> state id
	wardCity  map[string]string // ward id -> city id
	deptCity  map[string]string // department id -> city id
}

func newStubRefRepo() *stubRefRepo {
	return &stubRefRepo{
		cityState: make(map[string]string),
		wardCity:  make(map[string]string),
		deptCity:  make(map[string]string),
	}
}

func (r *stubRefRepo) ListStates(_ context.Context) ([]domain.State, error) {
	seen := map[string]bool{}
	var out []domain.State
	for _, st := range r.cityState {
		if !seen[st] {
			seen[st] = true
			out = append(out, domain.State{ID: st})
		}
	}
	return out, nil
}

func (r *stubRefRepo) ListCities(_ context.Context, stateID string) ([]domain.City, error) {
	var out []domain.City
	for city, st := range r.cityState {
		if st == stateID {
			out = append(out, domain.City{ID: city, StateID: st})
		}
	}
	return out, nil
}

func (r *stubRefRepo) ListWards(_ context.Context, cityID string) ([]domain.Ward, error) {
	var out []domain.Ward
	for ward, city := range r.wardCity {
		if city == cityID {
			out = append(out, domain.Ward{ID: ward, CityID: city})
		}
	}
	return out, nil
}

func (r *stubRefRepo) ListDepartments(_ context.Context, cityID string) ([]domain.Department, error) {
	var out []domain.Department
	for dept, city := range r.deptCity {
		if city == cityID {
			out = append(out, domain.Department{ID: dept, CityID: city})
		}
	}
	return out, nil
}

func (r *stubRefRepo) CityInState(_ context.Context, cityID, stateID string) (bool, error) {
	return r.cityState[cityID] == stateID, nil
}

func (r *stubRefRepo) WardInCity(_ context.Context, wardID, cityID string) (bool, error) {
	return r.wardCity[wardID] == cityID, nil
}

func (r *stubRefRepo) DepartmentInCity(_ context.Context, departmentID, cityID string) (bool, error) {
	return r.deptCity[departmentID] == cityID, nil
}

// stubIssueRepo records the filters it was called with so tests can assert
// the service parameterized the query correctly.
type stubIssueRepo struct {
	created    []*domain.Issue
	findResult *domain.Issue
	listResult []*domain.Issue
	stats      *domain.IssueStats

	lastListFilter ports.ListIssuesFilter
	lastFindScope  domain.ScopeFilter
	lastStatsScope domain.ScopeFilter

	statusUpdates []domain.StatusUpdate
	assignedDept  string
}

func (r *stubIssueRepo) Create(_ context.Context, issue *domain.Issue) (*domain.Issue, error) {
	copy := *issue
	copy.ID = fmt.Sprintf("issue%d", len(r.created)+1)
	r.created = append(r.created, &copy)
	return &copy, nil
}

func (r *stubIssueRepo) FindByID(_ context.Context, id string, scope domain.ScopeFilter) (*domain.Issue, error) {
	r.lastFindScope = scope
	if r.findResult == nil || r.findResult.ID != id {
		return nil, domain.ErrIssueNotFound
	}
	copy := *r.findResult
	return &copy, nil
}

func (r *stubIssueRepo) List(_ context.Context, filter ports.ListIssuesFilter) ([]*domain.Issue, error) {
	r.lastListFilter = filter
	return r.listResult, nil
}

func (r *stubIssueRepo) Stats(_ context.Context, scope domain.ScopeFilter) (*domain.IssueStats, error) {
	r.lastStatsScope = scope
	if r.stats == nil {
		return &domain.IssueStats{}, nil
	}
	return r.stats, nil
}

func (r *stubIssueRepo) UpdateStatus(_ context.Context, id string, status domain.IssueStatus, entry domain.StatusUpdate) error {
	if r.findResult == nil || r.findResult.ID != id {
		return domain.ErrIssueNotFound
	}
	r.findResult.Status = status
	r.statusUpdates = append(r.statusUpdates, entry)
	return nil
}

func (r *stubIssueRepo) Assign(_ context.Context, id, departmentID string, deadline time.Time, entry domain.StatusUpdate) error {
	if r.findResult == nil || r.findResult.ID != id {
		return domain.ErrIssueNotFound
	}
	r.findResult.Status = entry.Status
	r.assignedDept = departmentID
	r.statusUpdates = append(r.statusUpdates, entry)
	return nil
}

// stubOtpStore mirrors the single-record-per-identifier contract in memory.
type stubOtpStore struct {
	records     map[string]domain.OtpRecord
	maxAttempts int
}

func newStubOtpStore() *stubOtpStore {
	return &stubOtpStore{records: make(map[string]domain.OtpRecord), maxAttempts: 5}
}

func (s *stubOtpStore) Put(_ context.Context, rec domain.OtpRecord) error {
	s.records[rec.Identifier] = rec
	return nil
}

func (s *stubOtpStore) Consume(_ context.Context, identifier, code string, now time.Time) (ports.ConsumeResult, error) {
	rec, ok := s.records[identifier]
	if !ok {
		return ports.ConsumeNotFound, nil
	}
	if rec.Expired(now) {
		delete(s.records, identifier)
		return ports.ConsumeExpired, nil
	}
	if rec.Code != code {
		rec.Attempts++
		if rec.Attempts >= s.maxAttempts {
			delete(s.records, identifier)
		} else {
			s.records[identifier] = rec
		}
		return ports.ConsumeMismatch, nil
	}
	delete(s.records, identifier)
	return ports.ConsumeOK, nil
}

// stubSessionStore is an in-memory SessionStore.
type stubSessionStore struct {
	sessions map[string]domain.VerificationSession
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.VerificationSession)}
}

func (s *stubSessionStore) Put(_ context.Context, sess domain.VerificationSession, _ time.Duration) error {
	s.sessions[sess.Identifier] = sess
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, identifier string) (*domain.VerificationSession, error) {
	sess, ok := s.sessions[identifier]
	if !ok {
		return nil, nil
	}
	copy := sess
	return &copy, nil
}

func (s *stubSessionStore) MarkVerified(_ context.Context, identifier string) error {
	sess, ok := s.sessions[identifier]
	if !ok {
		return nil
	}
	sess.Verified = true
	s.sessions[identifier] = sess
	return nil
}

func (s *stubSessionStore) Consume(_ context.Context, identifier string) (*domain.VerificationSession, error) {
	sess, ok := s.sessions[identifier]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, identifier)
	copy := sess
	return &copy, nil
}

func (s *stubSessionStore) Delete(_ context.Context, identifier string) error {
	delete(s.sessions, identifier)
	return nil
}

// stubQueue records enqueued deliveries synchronously.
type stubQueue struct {
	deliveries []ports.CodeDelivery
}

func (q *stubQueue) Enqueue(d ports.CodeDelivery) {
	q.deliveries = append(q.deliveries, d)
}
