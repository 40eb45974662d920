package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

const (
	collectionStates      = "states"
	collectionCities      = "cities"
	collectionWards       = "wards"
	collectionDepartments = "departments"
)

// ReferenceRepository reads the geography/department master collections and
// answers the membership checks the scope resolver relies on.
type ReferenceRepository struct {
	states      *mongo.Collection
	cities      *mongo.Collection
	wards       *mongo.Collection
	departments *mongo.Collection
}

func NewReferenceRepository(db *mongo.Database) *ReferenceRepository {
	return &ReferenceRepository{
		states:      db.Collection(collectionStates),
		cities:      db.Collection(collectionCities),
		wards:       db.Collection(collectionWards),
		departments: db.Collection(collectionDepartments),
	}
}

func (r *ReferenceRepository) ListStates(ctx context.Context) ([]domain.State, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.states.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer cur.Close(ctx)

	var states []domain.State
	if err := cur.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

func (r *ReferenceRepository) ListCities(ctx context.Context, stateID string) ([]domain.City, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.cities.Find(ctx, bson.M{"state_id": stateID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer cur.Close(ctx)

	var cities []domain.City
	if err := cur.All(ctx, &cities); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

func (r *ReferenceRepository) ListWards(ctx context.Context, cityID string) ([]domain.Ward, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.wards.Find(ctx, bson.M{"city_id": cityID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer cur.Close(ctx)

	var wards []domain.Ward
	if err := cur.All(ctx, &wards); err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	return wards, nil
}

func (r *ReferenceRepository) ListDepartments(ctx context.Context, cityID string) ([]domain.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.departments.Find(ctx, bson.M{"city_id": cityID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer cur.Close(ctx)

	var departments []domain.Department
	if err := cur.All(ctx, &departments); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

func (r *ReferenceRepository) CityInState(ctx context.Context, cityID, stateID string) (bool, error) {
	return r.exists(ctx, r.cities, bson.M{"_id": cityID, "state_id": stateID})
}

func (r *ReferenceRepository) WardInCity(ctx context.Context, wardID, cityID string) (bool, error) {
	return r.exists(ctx, r.wards, bson.M{"_id": wardID, "city_id": cityID})
}

func (r *ReferenceRepository) DepartmentInCity(ctx context.Context, departmentID, cityID string) (bool, error) {
	return r.exists(ctx, r.departments, bson.M{"_id": departmentID, "city_id": cityID})
}

func (r *ReferenceRepository) exists(ctx context.Context, col *mongo.Collection, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := col.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("membership check: %w", err)
	}
	return true, nil
}
