package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrNotVerified = errors.New("account not verified")
var ErrMissingProfileLocation = errors.New("profile location not set")

// Location is a user's geographic/organizational assignment. Fields stay
// empty until geography is assigned.
type Location struct {
	StateID      string `json:"state_id,omitempty"`
	CityID       string `json:"city_id,omitempty"`
	WardID       string `json:"ward_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// UserProfile is the authoritative identity record. Authorization decisions
// always read role and location from the stored record, never from
// caller-supplied values.
type UserProfile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Mobile         string    `json:"mobile"`
	Email          string    `json:"email,omitempty"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Verified       bool      `json:"verified"`
	AssistedSignup bool      `json:"assisted_signup"`
	Location       Location  `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
