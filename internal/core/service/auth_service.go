package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

// dummyHash is compared against when the identifier is unknown, so the
// unknown-identifier and wrong-password paths cost the same. The error
// returned is identical in both cases.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("grievance-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// AuthService implements signup, password authentication, and password
// changes.
type AuthService struct {
	users     ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Signup creates an unverified citizen profile. Geography is self-declared
// at signup; it only ever scopes the citizen's own visibility.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.UserProfile, error) {
	if in.Name == "" || in.Mobile == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.users.FindByMobile(ctx, in.Mobile); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := time.Now().UTC()
	profile := &domain.UserProfile{
		Name:           in.Name,
		Mobile:         in.Mobile,
		Email:          in.Email,
		PasswordHash:   string(hash),
		Role:           domain.RoleCitizen,
		Verified:       false,
		AssistedSignup: in.Assisted,
		Location:       in.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.users.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Bool("assisted", in.Assisted).Msg("citizen signup")
	return created, nil
}

// Authenticate verifies mobile+password and issues a session token carrying
// user id and role only.
func (s *AuthService) Authenticate(ctx context.Context, mobile, password string) (string, domain.SessionContext, error) {
	if mobile == "" || password == "" {
		return "", domain.SessionContext{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", domain.SessionContext{}, domain.ErrInvalidCredentials
		}
		return "", domain.SessionContext{}, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.SessionContext{}, domain.ErrInvalidCredentials
	}

	if !user.Verified {
		return "", domain.SessionContext{}, domain.ErrNotVerified
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", domain.SessionContext{}, fmt.Errorf("authenticate: %w", err)
	}

	return token, domain.SessionContext{UserID: user.ID, Role: user.Role}, nil
}

// ChangePassword re-hashes the password for a logged-in caller.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return domain.ErrInvalidCredentials
	}
	if newPassword == currentPassword {
		return domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

// generateToken signs the session claims. Geography is deliberately absent:
// it is re-read from the store on every authorization decision.
func (s *AuthService) generateToken(user *domain.UserProfile) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
