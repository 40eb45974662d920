package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/grievance-api/internal/core/domain"
)

// otpFixture wires an otpService against in-memory stores with a settable
// clock.
type otpFixture struct {
	svc      *otpService
	store    *stubOtpStore
	sessions *stubSessionStore
	users    *stubUserRepo
	queue    *stubQueue
	now      time.Time
}

func newOtpFixture() *otpFixture {
	f := &otpFixture{
		store:    newStubOtpStore(),
		sessions: newStubSessionStore(),
		users:    newStubUserRepo(),
		queue:    &stubQueue{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = &otpService{
		store:      f.store,
		sessions:   f.sessions,
		users:      f.users,
		queue:      f.queue,
		otpTTL:     defaultOtpTTL,
		sessionTTL: defaultSessionTTL,
		now:        func() time.Time { return f.now },
		log:        zerolog.Nop(),
	}
	return f
}

func (f *otpFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// issuedCode returns the most recently enqueued code for the identifier.
func (f *otpFixture) issuedCode(t *testing.T, identifier string) string {
	t.Helper()
	for i := len(f.queue.deliveries) - 1; i >= 0; i-- {
		if f.queue.deliveries[i].Identifier == identifier {
			return f.queue.deliveries[i].Code
		}
	}
	t.Fatalf("no delivery enqueued for %s", identifier)
	return ""
}

func TestOtpService_Request_IssuesSixDigitCode(t *testing.T) {
	f := newOtpFixture()

	handle, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin)
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if handle == "" {
		t.Fatalf("expected a delivery handle")
	}
	if len(f.queue.deliveries) != 1 {
		t.Fatalf("expected one delivery, got %d", len(f.queue.deliveries))
	}
	d := f.queue.deliveries[0]
	if d.Handle != handle {
		t.Fatalf("delivery handle %q does not match returned handle %q", d.Handle, handle)
	}
	if len(d.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", d.Code)
	}
	for _, c := range d.Code {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit in code %q", d.Code)
		}
	}
}

func TestOtpService_Request_Validation(t *testing.T) {
	f := newOtpFixture()

	if _, err := f.svc.Request(context.Background(), "", domain.PurposeLogin); !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Fatalf("expected ErrMissingIdentifier, got %v", err)
	}
	if _, err := f.svc.Request(context.Background(), "9900112233", domain.OtpPurpose("unlock")); err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}

func TestOtpService_Request_ReplacesLiveCode(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin); err != nil {
		t.Fatalf("first request: %v", err)
	}
	first := f.issuedCode(t, "9900112233")

	f.advance(30 * time.Second)
	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin); err != nil {
		t.Fatalf("second request: %v", err)
	}
	second := f.issuedCode(t, "9900112233")

	if first == second {
		t.Skipf("codes collided; cannot distinguish replacement")
	}

	// The replaced code is dead even though its own 60s window is still
	// open. A mismatch keeps the live record intact.
	if _, err := f.svc.Verify(context.Background(), "9900112233", first); !errors.Is(err, domain.ErrOtpMismatch) {
		t.Fatalf("old code: expected ErrOtpMismatch, got %v", err)
	}
	if _, err := f.svc.Verify(context.Background(), "9900112233", second); err != nil {
		t.Fatalf("new code should verify: %v", err)
	}
}

func TestOtpService_Verify_ExpiryBoundary(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t, "9900112233")

	f.advance(61 * time.Second)
	if _, err := f.svc.Verify(context.Background(), "9900112233", code); !errors.Is(err, domain.ErrOtpExpired) {
		t.Fatalf("expected ErrOtpExpired, got %v", err)
	}

	// The expired record was removed; a second attempt no longer reveals
	// that a code ever existed in the store.
	if _, err := f.svc.Verify(context.Background(), "9900112233", code); !errors.Is(err, domain.ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound after expiry consumption, got %v", err)
	}
}

func TestOtpService_Verify_JustInsideWindow(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t, "9900112233")

	f.advance(59 * time.Second)
	purpose, err := f.svc.Verify(context.Background(), "9900112233", code)
	if err != nil {
		t.Fatalf("verify inside window: %v", err)
	}
	if purpose != domain.PurposeLogin {
		t.Fatalf("unexpected purpose: %s", purpose)
	}
}

func TestOtpService_Verify_SingleUse(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeSignup); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t, "9900112233")

	// Wrong code first: the live record must survive the failed attempt.
	if _, err := f.svc.Verify(context.Background(), "9900112233", "000000"); !errors.Is(err, domain.ErrOtpMismatch) {
		t.Fatalf("expected ErrOtpMismatch, got %v", err)
	}

	if _, err := f.svc.Verify(context.Background(), "9900112233", code); err != nil {
		t.Fatalf("correct code after mismatch: %v", err)
	}

	// The match consumed record and session; an immediate replay fails.
	if _, err := f.svc.Verify(context.Background(), "9900112233", code); !errors.Is(err, domain.ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound on replay, got %v", err)
	}

	user, _ := f.users.FindByID(context.Background(), "u1")
	if !user.Verified {
		t.Fatalf("signup verification must mark the account verified")
	}
}

func TestOtpService_Verify_AttemptExhaustion(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t, "9900112233")

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Verify(context.Background(), "9900112233", "000000"); !errors.Is(err, domain.ErrOtpMismatch) {
			t.Fatalf("attempt %d: expected ErrOtpMismatch, got %v", i+1, err)
		}
	}

	// The exhausted record is gone; even the right code no longer works.
	if _, err := f.svc.Verify(context.Background(), "9900112233", code); !errors.Is(err, domain.ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound after exhaustion, got %v", err)
	}
}

func TestOtpService_PasswordReset_SingleUseSession(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233", PasswordHash: "old-hash"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeResetPassword); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t, "9900112233")

	purpose, err := f.svc.Verify(context.Background(), "9900112233", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if purpose != domain.PurposeResetPassword {
		t.Fatalf("unexpected purpose: %s", purpose)
	}

	if err := f.svc.CompletePasswordReset(context.Background(), "9900112233", "brand-new-pass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	user, _ := f.users.FindByID(context.Background(), "u1")
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand-new-pass")) != nil {
		t.Fatalf("password was not updated")
	}

	// The verified session was spent; a second reset needs a fresh OTP.
	if err := f.svc.CompletePasswordReset(context.Background(), "9900112233", "another-pass"); !errors.Is(err, domain.ErrOtpSessionRequired) {
		t.Fatalf("expected ErrOtpSessionRequired on reuse, got %v", err)
	}
}

func TestOtpService_PasswordReset_RequiresVerifiedSession(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233", PasswordHash: "old-hash"})

	// Session exists but the code was never verified.
	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeResetPassword); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := f.svc.CompletePasswordReset(context.Background(), "9900112233", "new-pass"); !errors.Is(err, domain.ErrOtpSessionRequired) {
		t.Fatalf("expected ErrOtpSessionRequired, got %v", err)
	}

	// The attempt consumed the unverified session as well: even verifying
	// is now impossible without a fresh request.
	if _, err := f.svc.Verify(context.Background(), "9900112233", "123456"); !errors.Is(err, domain.ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound after session consumption, got %v", err)
	}
}

func TestOtpService_PasswordReset_LoginSessionDoesNotQualify(t *testing.T) {
	f := newOtpFixture()
	f.users.seed(&domain.UserProfile{ID: "u1", Mobile: "9900112233", Verified: true, PasswordHash: "old-hash"})

	if _, err := f.svc.Request(context.Background(), "9900112233", domain.PurposeLogin); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.issuedCode(t, "9900112233")
	if _, err := f.svc.Verify(context.Background(), "9900112233", code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// A verified login session must not authorize a password reset.
	if err := f.svc.CompletePasswordReset(context.Background(), "9900112233", "new-pass"); !errors.Is(err, domain.ErrOtpSessionRequired) {
		t.Fatalf("expected ErrOtpSessionRequired, got %v", err)
	}
}

func TestOtpService_Verify_NoSession(t *testing.T) {
	f := newOtpFixture()
	if _, err := f.svc.Verify(context.Background(), "9900112233", "123456"); !errors.Is(err, domain.ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound, got %v", err)
	}
}
