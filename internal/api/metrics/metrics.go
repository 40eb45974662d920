// Package metrics defines and registers all custom Prometheus metrics for
// the grievance portal API. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "grievance"

// ── OTP metrics ───────────────────────────────────────────────────────────────

// OtpRequestedTotal counts issued one-time codes.
// Label:
//   - purpose: "signup", "login", or "reset_password"
var OtpRequestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_requested_total",
		Help:      "Total number of one-time codes issued, by purpose.",
	},
	[]string{"purpose"},
)

// OtpVerifiedTotal counts successfully consumed codes.
// Label:
//   - purpose: the session purpose the verification completed
var OtpVerifiedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verified_total",
		Help:      "Total number of one-time codes successfully verified, by purpose.",
	},
	[]string{"purpose"},
)

// OtpFailedTotal counts failed verification attempts.
// Label:
//   - reason: "not_found", "expired", or "mismatch"
var OtpFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_failed_total",
		Help:      "Total number of failed OTP verification attempts, by reason.",
	},
	[]string{"reason"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthzDeniedTotal counts rejected actions.
// Label:
//   - reason: "role_escalation", "scope_violation", or "unauthorized"
var AuthzDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denied_total",
		Help:      "Total number of actions rejected by the authorization gate, by reason.",
	},
	[]string{"reason"},
)

// ── Issue metrics ─────────────────────────────────────────────────────────────

// IssuesCreatedTotal counts newly reported grievances.
// Label:
//   - source: the reporting role ("citizen" or "facilitator")
var IssuesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issues_created_total",
		Help:      "Total number of grievances reported, by reporting role.",
	},
	[]string{"source"},
)

// ListDuration measures how long scoped listings take end-to-end.
// Label:
//   - resource: "users" or "issues"
var ListDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "list_duration_seconds",
		Help:      "Duration of scope-constrained list queries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"resource"},
)
