package domain

import (
	"errors"
	"time"
)

// IssueStatus represents the lifecycle state of a grievance.
type IssueStatus string

const (
	StatusReported   IssueStatus = "reported"
	StatusAssigned   IssueStatus = "assigned"
	StatusInProgress IssueStatus = "in_progress"
	StatusInReview   IssueStatus = "in_review"
	StatusResolved   IssueStatus = "resolved"
	StatusRejected   IssueStatus = "rejected"
)

// validTransitions defines the allowed status transitions.
var validTransitions = map[IssueStatus][]IssueStatus{
	StatusReported:   {StatusAssigned, StatusRejected},
	StatusAssigned:   {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusInReview, StatusResolved},
	StatusInReview:   {StatusResolved, StatusInProgress},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrIssueNotFound = errors.New("issue not found")

// CanTransitionTo reports whether a transition from s to next is valid.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusUpdate records a single entry in an issue's audit timeline.
type StatusUpdate struct {
	Status    IssueStatus `json:"status" bson:"status"`
	Remarks   string      `json:"remarks,omitempty" bson:"remarks,omitempty"`
	UpdatedBy string      `json:"updated_by" bson:"updated_by"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// Issue is the grievance aggregate. Geography is pinned from the reporter's
// stored profile at creation time.
type Issue struct {
	ID                 string         `json:"id" bson:"_id,omitempty"`
	Title              string         `json:"title" bson:"title"`
	Description        string         `json:"description" bson:"description"`
	Category           string         `json:"category" bson:"category"`
	StateID            string         `json:"state_id" bson:"state_id"`
	CityID             string         `json:"city_id" bson:"city_id"`
	WardID             string         `json:"ward_id" bson:"ward_id"`
	ReportedBy         string         `json:"reported_by" bson:"reported_by"`
	Source             Role           `json:"source" bson:"source"`
	Assisted           bool           `json:"assisted" bson:"assisted"`
	AssignedDepartment string         `json:"assigned_department,omitempty" bson:"assigned_department,omitempty"`
	Status             IssueStatus    `json:"status" bson:"status"`
	Deadline           time.Time      `json:"deadline,omitempty" bson:"deadline,omitempty"`
	CreatedAt          time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" bson:"updated_at"`
	Timeline           []StatusUpdate `json:"timeline" bson:"timeline"`
}

// IssueStats aggregates issue counts by status for dashboard cards.
type IssueStats struct {
	Total      int64 `json:"total"`
	Reported   int64 `json:"reported"`
	Assigned   int64 `json:"assigned"`
	InProgress int64 `json:"in_progress"`
	InReview   int64 `json:"in_review"`
	Resolved   int64 `json:"resolved"`
	Rejected   int64 `json:"rejected"`
}
