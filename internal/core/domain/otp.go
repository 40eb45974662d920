package domain

import (
	"errors"
	"time"
)

// OtpPurpose names the flow an OTP session belongs to.
type OtpPurpose string

const (
	PurposeSignup        OtpPurpose = "signup"
	PurposeLogin         OtpPurpose = "login"
	PurposeResetPassword OtpPurpose = "reset_password"
)

// ValidPurpose reports whether p is a known OTP purpose.
func ValidPurpose(p OtpPurpose) bool {
	switch p {
	case PurposeSignup, PurposeLogin, PurposeResetPassword:
		return true
	}
	return false
}

var ErrMissingIdentifier = errors.New("identifier is required")
var ErrOtpNotFound = errors.New("otp not found")
var ErrOtpExpired = errors.New("otp expired")
var ErrOtpMismatch = errors.New("otp mismatch")
var ErrOtpSessionRequired = errors.New("verified otp session required")

// OtpRecord is the single live verification code for an identifier.
// At most one live record exists per identifier at any instant.
type OtpRecord struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"code"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
}

// Expired reports whether the record is past its expiry at the given instant.
func (r OtpRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// VerificationSession is the ephemeral per-caller OTP state. A verified
// session is single-use: the one privileged action it authorizes consumes
// it regardless of outcome.
type VerificationSession struct {
	Identifier string     `json:"identifier"`
	Purpose    OtpPurpose `json:"purpose"`
	Verified   bool       `json:"verified"`
}
