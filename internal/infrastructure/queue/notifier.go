package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/civicworks/grievance-api/internal/core/ports"
)

// LogNotifier writes deliveries to the log instead of an SMS/email gateway.
// It is the development stand-in behind the Notifier port; production
// transports replace it without touching the core. The code itself is never
// logged.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Deliver(_ context.Context, d ports.CodeDelivery) error {
	n.log.Info().
		Str("handle", d.Handle).
		Str("identifier", mask(d.Identifier)).
		Msg("otp delivery dispatched")
	return nil
}

// mask hides all but the last two characters of an identifier.
func mask(s string) string {
	if len(s) <= 2 {
		return "**"
	}
	masked := make([]byte, len(s))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(s)-2:], s[len(s)-2:])
	return string(masked)
}
