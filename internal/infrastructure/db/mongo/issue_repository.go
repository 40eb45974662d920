package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

const collectionIssues = "issues"

type IssueRepository struct {
	col *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{col: db.Collection(collectionIssues)}
}

type mongoIssue struct {
	ID                 primitive.ObjectID    `bson:"_id,omitempty"`
	Title              string                `bson:"title"`
	Description        string                `bson:"description"`
	Category           string                `bson:"category"`
	StateID            string                `bson:"state_id"`
	CityID             string                `bson:"city_id"`
	WardID             string                `bson:"ward_id"`
	ReportedBy         string                `bson:"reported_by"`
	Source             string                `bson:"source"`
	Assisted           bool                  `bson:"assisted"`
	AssignedDepartment string                `bson:"assigned_department,omitempty"`
	Status             string                `bson:"status"`
	Deadline           time.Time             `bson:"deadline,omitempty"`
	CreatedAt          time.Time             `bson:"created_at"`
	UpdatedAt          time.Time             `bson:"updated_at"`
	Timeline           []domain.StatusUpdate `bson:"timeline"`
}

func issueToDomain(mi mongoIssue) *domain.Issue {
	return &domain.Issue{
		ID:                 mi.ID.Hex(),
		Title:              mi.Title,
		Description:        mi.Description,
		Category:           mi.Category,
		StateID:            mi.StateID,
		CityID:             mi.CityID,
		WardID:             mi.WardID,
		ReportedBy:         mi.ReportedBy,
		Source:             domain.Role(mi.Source),
		Assisted:           mi.Assisted,
		AssignedDepartment: mi.AssignedDepartment,
		Status:             domain.IssueStatus(mi.Status),
		Deadline:           mi.Deadline,
		CreatedAt:          mi.CreatedAt,
		UpdatedAt:          mi.UpdatedAt,
		Timeline:           mi.Timeline,
	}
}

// Create inserts the issue with its initial timeline entry as one document
// write, so the record and its first audit entry are committed together.
func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoIssue{
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		StateID:     issue.StateID,
		CityID:      issue.CityID,
		WardID:      issue.WardID,
		ReportedBy:  issue.ReportedBy,
		Source:      string(issue.Source),
		Assisted:    issue.Assisted,
		Status:      string(issue.Status),
		Deadline:    issue.Deadline,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		Timeline:    issue.Timeline,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}

	created := *issue
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// FindByID applies the scope filter in the query itself: an out-of-scope
// record decodes to no documents, which surfaces as not found.
func (r *IssueRepository) FindByID(ctx context.Context, id string, scope domain.ScopeFilter) (*domain.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIssueNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"_id": oid}
	applyIssueScope(query, scope)

	var mi mongoIssue
	if err := r.col.FindOne(ctx, query).Decode(&mi); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, fmt.Errorf("find issue: %w", err)
	}
	return issueToDomain(mi), nil
}

func (r *IssueRepository) List(ctx context.Context, filter ports.ListIssuesFilter) ([]*domain.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	applyIssueScope(query, filter.Scope)

	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Search != "" {
		query["title"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer cur.Close(ctx)

	var issues []*domain.Issue
	for cur.Next(ctx) {
		var mi mongoIssue
		if err := cur.Decode(&mi); err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		issues = append(issues, issueToDomain(mi))
	}
	return issues, cur.Err()
}

// Stats aggregates counts by status under the same scope predicates the
// listing uses, so cards and rows always agree.
func (r *IssueRepository) Stats(ctx context.Context, scope domain.ScopeFilter) (*domain.IssueStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	match := bson.M{}
	applyIssueScope(match, scope)

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("issue stats: %w", err)
	}
	defer cur.Close(ctx)

	stats := &domain.IssueStats{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("issue stats: %w", err)
		}
		stats.Total += row.Count
		switch domain.IssueStatus(row.Status) {
		case domain.StatusReported:
			stats.Reported = row.Count
		case domain.StatusAssigned:
			stats.Assigned = row.Count
		case domain.StatusInProgress:
			stats.InProgress = row.Count
		case domain.StatusInReview:
			stats.InReview = row.Count
		case domain.StatusResolved:
			stats.Resolved = row.Count
		case domain.StatusRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, cur.Err()
}

// UpdateStatus sets the status and appends the timeline entry in a single
// update, keeping record and audit trail consistent.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, entry domain.StatusUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrIssueNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set":  bson.M{"status": string(status), "updated_at": entry.UpdatedAt},
		"$push": bson.M{"timeline": entry},
	})
	if err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// Assign sets the owning department, deadline, and assigned status with the
// timeline entry in one update.
func (r *IssueRepository) Assign(ctx context.Context, id, departmentID string, deadline time.Time, entry domain.StatusUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrIssueNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"assigned_department": departmentID,
			"deadline":            deadline,
			"status":              string(domain.StatusAssigned),
			"updated_at":          entry.UpdatedAt,
		},
		"$push": bson.M{"timeline": entry},
	})
	if err != nil {
		return fmt.Errorf("assign issue: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes the scoped listings depend on.
func (r *IssueRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "reported_by", Value: 1}}},
		{Keys: bson.D{{Key: "ward_id", Value: 1}}},
		{Keys: bson.D{{Key: "city_id", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_department", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
