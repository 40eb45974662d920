package domain

import (
	"testing"
	"time"
)

func TestIssueStatus_CanTransitionTo(t *testing.T) {
	allowed := []struct{ from, to IssueStatus }{
		{StatusReported, StatusAssigned},
		{StatusReported, StatusRejected},
		{StatusAssigned, StatusInProgress},
		{StatusAssigned, StatusRejected},
		{StatusInProgress, StatusInReview},
		{StatusInProgress, StatusResolved},
		{StatusInReview, StatusResolved},
		{StatusInReview, StatusInProgress},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to IssueStatus }{
		{StatusReported, StatusResolved},
		{StatusReported, StatusInProgress},
		{StatusAssigned, StatusResolved},
		{StatusResolved, StatusReported},
		{StatusResolved, StatusInProgress},
		{StatusRejected, StatusAssigned},
		{StatusInReview, StatusRejected},
	}
	for _, tc := range denied {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("%s -> %s must be rejected", tc.from, tc.to)
		}
	}
}

func TestIssueStatus_TerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []IssueStatus{StatusResolved, StatusRejected} {
		for _, next := range []IssueStatus{StatusReported, StatusAssigned, StatusInProgress, StatusInReview, StatusResolved, StatusRejected} {
			if terminal.CanTransitionTo(next) {
				t.Fatalf("terminal state %s allows exit to %s", terminal, next)
			}
		}
	}
}

func TestOtpRecord_Expired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := OtpRecord{IssuedAt: issued, ExpiresAt: issued.Add(60 * time.Second)}

	if rec.Expired(issued.Add(59 * time.Second)) {
		t.Fatalf("record expired one second early")
	}
	if rec.Expired(issued.Add(60 * time.Second)) {
		t.Fatalf("record must be live at the exact expiry instant")
	}
	if !rec.Expired(issued.Add(61 * time.Second)) {
		t.Fatalf("record still live past expiry")
	}
}

func TestScopeFilter_Unconstrained(t *testing.T) {
	if !(ScopeFilter{}).Unconstrained() {
		t.Fatalf("zero filter should be unconstrained")
	}
	if (ScopeFilter{WardID: "w1"}).Unconstrained() {
		t.Fatalf("ward filter reported unconstrained")
	}
}
