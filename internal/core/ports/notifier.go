package ports

import "context"

// CodeDelivery is the DTO handed to the delivery dispatcher. Handle is an
// opaque identifier callers can correlate delivery status with.
type CodeDelivery struct {
	Handle     string
	Identifier string
	Code       string
}

// Notifier delivers a one-time code to an identifier. SMS/email transports
// live behind this interface; the core never sees them.
type Notifier interface {
	Deliver(ctx context.Context, d CodeDelivery) error
}
