package loan

import (
	"time"

	"github.com/puskata/library-service/internal/app/domain/book"
)

// DateLayout is the calendar-date format used for loan, due and return dates.
const DateLayout = "2006-01-02"

// Status is the lifecycle state of a loan.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusReturned Status = "returned"
	StatusRejected Status = "rejected"
)

// Loan records a user borrowing a book copy.
type Loan struct {
	ID              int64      `json:"id" db:"id"`
	UserID          int64      `json:"user_id" db:"user_id"`
	BookID          int64      `json:"book_id" db:"book_id"`
	LoanDate        string     `json:"loan_date" db:"loan_date"`
	DueDate         string     `json:"due_date" db:"due_date"`
	ReturnDate      string     `json:"return_date,omitempty" db:"return_date"`
	Status          Status     `json:"status" db:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Fine            float64    `json:"fine" db:"fine"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	Book            *book.Book `json:"book,omitempty" db:"-"`
}

// Active reports whether the loan still occupies the user's shelf.
func (l Loan) Active() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}

// Overdue reports whether an unreturned loan is past its due date as of now.
func (l Loan) Overdue(now time.Time) bool {
	if l.Status == StatusReturned || l.DueDate == "" {
		return false
	}
	due, err := time.Parse(DateLayout, l.DueDate)
	if err != nil {
		return false
	}
	today, _ := time.Parse(DateLayout, now.Format(DateLayout))
	return due.Before(today)
}
