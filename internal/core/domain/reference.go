package domain

// Reference geography and department master data. Owned by the identity
// store; read-only here.

type State struct {
	ID   string `json:"state_id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

type City struct {
	ID      string `json:"city_id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	StateID string `json:"state_id" bson:"state_id"`
}

type Ward struct {
	ID     string `json:"ward_id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	CityID string `json:"city_id" bson:"city_id"`
}

type Department struct {
	ID     string `json:"department_id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	CityID string `json:"city_id" bson:"city_id"`
}
