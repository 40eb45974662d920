package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/ports"
)

const (
	otpKeyPrefix     = "otp:"
	sessionKeyPrefix = "otpsess:"

	// maxAttempts bounds mismatch retries per record; once exhausted the
	// record is deleted and further attempts read as not found.
	maxAttempts = 5

	// recordRetention keeps a logically-expired record around long enough
	// for Consume to report OtpExpired instead of OtpNotFound, then lets
	// Redis garbage-collect it.
	recordRetention = 10 * time.Minute
)

// storedOtp is the wire form of an OtpRecord inside Redis. Kept flat so the
// Lua script can read and rewrite it with cjson.
type storedOtp struct {
	Code        string `json:"code"`
	IssuedUnix  int64  `json:"issued_unix"`
	ExpiresUnix int64  `json:"expires_unix"`
	Attempts    int    `json:"attempts"`
}

// consumeScript performs the whole verification attempt server-side:
// read, expiry check, code compare, attempt accounting, and deletion happen
// as one atomic step, so two concurrent verifications can never both
// observe the same live record.
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 'not_found'
end
local rec = cjson.decode(raw)
if tonumber(ARGV[2]) > rec.expires_unix then
  redis.call('DEL', KEYS[1])
  return 'expired'
end
if rec.code ~= ARGV[1] then
  rec.attempts = (rec.attempts or 0) + 1
  if rec.attempts >= tonumber(ARGV[3]) then
    redis.call('DEL', KEYS[1])
  else
    redis.call('SET', KEYS[1], cjson.encode(rec), 'KEEPTTL')
  end
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
return 'ok'
`)

// OtpStore keeps the single live OTP record per identifier in Redis.
type OtpStore struct {
	client *redis.Client
}

func NewOtpStore(client *redis.Client) *OtpStore {
	return &OtpStore{client: client}
}

// Put replaces any existing record for the identifier. A plain SET is the
// single-active invariant: overwrite is delete-then-insert in one command.
func (s *OtpStore) Put(ctx context.Context, rec domain.OtpRecord) error {
	raw, err := json.Marshal(storedOtp{
		Code:        rec.Code,
		IssuedUnix:  rec.IssuedAt.Unix(),
		ExpiresUnix: rec.ExpiresAt.Unix(),
		Attempts:    rec.Attempts,
	})
	if err != nil {
		return fmt.Errorf("otp put: %w", err)
	}

	ttl := time.Until(rec.ExpiresAt) + recordRetention
	if err := s.client.Set(ctx, otpKey(rec.Identifier), raw, ttl).Err(); err != nil {
		return fmt.Errorf("otp put: %w", err)
	}
	return nil
}

// Consume runs the atomic verification attempt.
func (s *OtpStore) Consume(ctx context.Context, identifier, code string, now time.Time) (ports.ConsumeResult, error) {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{otpKey(identifier)},
		code, now.Unix(), maxAttempts,
	).Text()
	if err != nil {
		return ports.ConsumeNotFound, fmt.Errorf("otp consume: %w", err)
	}

	switch res {
	case "ok":
		return ports.ConsumeOK, nil
	case "expired":
		return ports.ConsumeExpired, nil
	case "mismatch":
		return ports.ConsumeMismatch, nil
	default:
		return ports.ConsumeNotFound, nil
	}
}

func otpKey(identifier string) string {
	return otpKeyPrefix + identifier
}

// SessionStore keeps verification sessions keyed by identifier.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Put(ctx context.Context, sess domain.VerificationSession, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("otp session put: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.Identifier), raw, ttl).Err(); err != nil {
		return fmt.Errorf("otp session put: %w", err)
	}
	return nil
}

// Get returns nil without error when no session exists.
func (s *SessionStore) Get(ctx context.Context, identifier string) (*domain.VerificationSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("otp session get: %w", err)
	}
	return decodeSession(raw)
}

// MarkVerified flips the verified flag in place, preserving the TTL.
func (s *SessionStore) MarkVerified(ctx context.Context, identifier string) error {
	sess, err := s.Get(ctx, identifier)
	if err != nil {
		return err
	}
	if sess == nil {
		return domain.ErrOtpSessionRequired
	}
	sess.Verified = true

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("otp session update: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(identifier), raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("otp session update: %w", err)
	}
	return nil
}

// Consume removes and returns the session in one step (GETDEL), making the
// verified state single-use even under concurrent reset attempts.
func (s *SessionStore) Consume(ctx context.Context, identifier string) (*domain.VerificationSession, error) {
	raw, err := s.client.GetDel(ctx, sessionKey(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("otp session consume: %w", err)
	}
	return decodeSession(raw)
}

func (s *SessionStore) Delete(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, sessionKey(identifier)).Err()
}

func decodeSession(raw []byte) (*domain.VerificationSession, error) {
	var sess domain.VerificationSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("otp session decode: %w", err)
	}
	return &sess, nil
}

func sessionKey(identifier string) string {
	return sessionKeyPrefix + identifier
}
