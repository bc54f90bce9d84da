package loan

import (
	"testing"
	"time"
)

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		loan Loan
		want bool
	}{
		{"past due approved", Loan{Status: StatusApproved, DueDate: "2024-01-15"}, true},
		{"past due pending", Loan{Status: StatusPending, DueDate: "2024-01-19"}, true},
		{"due today", Loan{Status: StatusApproved, DueDate: "2024-01-20"}, false},
		{"returned late", Loan{Status: StatusReturned, DueDate: "2024-01-01"}, false},
		{"no due date", Loan{Status: StatusApproved}, false},
		{"garbled due date", Loan{Status: StatusApproved, DueDate: "soon"}, false},
	}
	for _, tc := range cases {
		if got := tc.loan.Overdue(now); got != tc.want {
			t.Fatalf("%s: Overdue() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestActive(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending:  true,
		StatusApproved: true,
		StatusReturned: false,
		StatusRejected: false,
	} {
		if got := (Loan{Status: status}).Active(); got != want {
			t.Fatalf("Active() for %s = %v, want %v", status, got, want)
		}
	}
}
