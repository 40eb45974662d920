package domain

// SessionContext is the short-lived trust object produced by successful
// authentication. It deliberately carries identity and role only: geography
// is re-read from the authoritative store on every authorization decision,
// so a profile edit takes effect immediately.
type SessionContext struct {
	UserID string
	Role   Role
}
