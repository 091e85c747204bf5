package booking

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusOpen, StatusClaimed, true},
		{StatusOpen, StatusCancelled, true},
		{StatusOpen, StatusCompleted, false},
		{StatusClaimed, StatusOpen, true},
		{StatusClaimed, StatusCompleted, true},
		{StatusClaimed, StatusCancelled, true},
		{StatusCompleted, StatusOpen, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusOpen, false},
		{Status("Bogus"), StatusOpen, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusDerivation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		tx   Transaction
		want Status
	}{
		{Transaction{}, StatusOpen},
		{Transaction{Claimed: true, VolunteerID: "v"}, StatusClaimed},
		{Transaction{Claimed: true, Completed: true, VolunteerID: "v"}, StatusCompleted},
		{Transaction{Claimed: true, Completed: true, CancelledAt: &now}, StatusCancelled},
		{Transaction{Paid: true}, StatusOpen},
	}
	for i, tc := range cases {
		if got := tc.tx.Status(); got != tc.want {
			t.Fatalf("case %d: expected %s, got %s", i, tc.want, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("Claimed"); err != nil || s != StatusClaimed {
		t.Fatalf("ParseStatus(Claimed) = %v, %v", s, err)
	}
	if _, err := ParseStatus("claimed"); err == nil {
		t.Fatalf("expected error for lowercase status")
	}
}
