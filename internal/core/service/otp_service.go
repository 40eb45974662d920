package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

const (
	defaultOtpTTL     = 60 * time.Second
	defaultSessionTTL = 10 * time.Minute
)

// DeliveryQueue abstracts the async code-delivery dispatcher.
type DeliveryQueue interface {
	Enqueue(d ports.CodeDelivery)
}

type otpService struct {
	store      ports.OtpStore
	sessions   ports.SessionStore
	users      ports.UserRepository
	queue      DeliveryQueue
	otpTTL     time.Duration
	sessionTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewOtpService returns an OtpService implementation.
func NewOtpService(
	store ports.OtpStore,
	sessions ports.SessionStore,
	users ports.UserRepository,
	queue DeliveryQueue,
	log zerolog.Logger,
) ports.OtpService {
	return &otpService{
		store:      store,
		sessions:   sessions,
		users:      users,
		queue:      queue,
		otpTTL:     defaultOtpTTL,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
		log:        log,
	}
}

// Request issues a fresh code for identifier. Any previous live code is
// replaced and its timer restarted — re-requesting mid-flight is an
// intentional idempotent resend, not an error.
func (s *otpService) Request(ctx context.Context, identifier string, purpose domain.OtpPurpose) (string, error) {
	if identifier == "" {
		return "", domain.ErrMissingIdentifier
	}
	if !domain.ValidPurpose(purpose) {
		return "", fmt.Errorf("invalid otp purpose %q", purpose)
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("request otp: %w", err)
	}

	now := s.now().UTC()
	rec := domain.OtpRecord{
		Identifier: identifier,
		Code:       code,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.otpTTL),
	}

	if err := s.store.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("request otp: %w", err)
	}

	sess := domain.VerificationSession{Identifier: identifier, Purpose: purpose}
	if err := s.sessions.Put(ctx, sess, s.sessionTTL); err != nil {
		return "", fmt.Errorf("request otp: %w", err)
	}

	handle := uuid.NewString()
	s.queue.Enqueue(ports.CodeDelivery{Handle: handle, Identifier: identifier, Code: code})

	s.log.Info().
		Str("handle", handle).
		Str("purpose", string(purpose)).
		Time("expires_at", rec.ExpiresAt).
		Msg("otp issued")

	return handle, nil
}

// Verify validates the submitted code and dispatches on the session purpose.
func (s *otpService) Verify(ctx context.Context, identifier, code string) (domain.OtpPurpose, error) {
	if identifier == "" {
		return "", domain.ErrMissingIdentifier
	}
	if code == "" {
		return "", domain.ErrOtpMismatch
	}

	sess, err := s.sessions.Get(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	if sess == nil {
		return "", domain.ErrOtpNotFound
	}

	result, err := s.store.Consume(ctx, identifier, code, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}

	switch result {
	case ports.ConsumeNotFound:
		return "", domain.ErrOtpNotFound
	case ports.ConsumeExpired:
		return "", domain.ErrOtpExpired
	case ports.ConsumeMismatch:
		return "", domain.ErrOtpMismatch
	}

	switch sess.Purpose {
	case domain.PurposeSignup, domain.PurposeLogin:
		// Terminal purposes: flip the stored verification flag and end the
		// session; no privileged action stays pending.
		if err := s.users.MarkVerified(ctx, identifier); err != nil {
			return "", fmt.Errorf("verify otp: %w", err)
		}
		if err := s.sessions.Delete(ctx, identifier); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear otp session")
		}

	case domain.PurposeResetPassword:
		// The session stays live, verified, awaiting exactly one password
		// reset.
		if err := s.sessions.MarkVerified(ctx, identifier); err != nil {
			return "", fmt.Errorf("verify otp: %w", err)
		}
	}

	s.log.Info().Str("purpose", string(sess.Purpose)).Msg("otp verified")
	return sess.Purpose, nil
}

// CompletePasswordReset performs the one privileged action a verified
// reset_password session authorizes. The session is consumed up front, so a
// failed reset cannot be retried with the same verification.
func (s *otpService) CompletePasswordReset(ctx context.Context, identifier, newPassword string) error {
	if identifier == "" {
		return domain.ErrMissingIdentifier
	}

	sess, err := s.sessions.Consume(ctx, identifier)
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	if sess == nil || !sess.Verified || sess.Purpose != domain.PurposeResetPassword {
		return domain.ErrOtpSessionRequired
	}

	if newPassword == "" {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	if err := s.users.UpdatePasswordByMobile(ctx, identifier, string(hash)); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}

	s.log.Info().Msg("password reset completed")
	return nil
}

// generateCode draws a 6-digit numeric code from a uniform range.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
