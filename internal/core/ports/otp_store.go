package ports

import (
	"context"
	"time"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// ConsumeResult is the outcome of an atomic OTP verification attempt.
type ConsumeResult int

const (
	ConsumeOK ConsumeResult = iota
	ConsumeNotFound
	ConsumeExpired
	ConsumeMismatch
)

// OtpStore holds the single live OTP record per identifier. Put replaces any
// existing record in one step; Consume performs read-compare-delete
// atomically, so two concurrent verifications can never both observe a live
// record.
type OtpStore interface {
	// Put stores rec, replacing any existing record for the same identifier.
	Put(ctx context.Context, rec domain.OtpRecord) error
	// Consume validates code against the live record at instant now.
	// On match the record is deleted. On expiry the record is deleted and
	// ConsumeExpired returned. On mismatch the record survives with its
	// attempt counter incremented; once the counter is exhausted the record
	// is deleted as well.
	Consume(ctx context.Context, identifier, code string, now time.Time) (ConsumeResult, error)
}

// SessionStore holds ephemeral verification sessions keyed by identifier.
type SessionStore interface {
	Put(ctx context.Context, s domain.VerificationSession, ttl time.Duration) error
	Get(ctx context.Context, identifier string) (*domain.VerificationSession, error)
	// MarkVerified flips the verified flag on the stored session.
	MarkVerified(ctx context.Context, identifier string) error
	// Consume removes and returns the session in one step (single-use).
	Consume(ctx context.Context, identifier string) (*domain.VerificationSession, error)
	Delete(ctx context.Context, identifier string) error
}
