package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/latency"
	"github.com/puskata/library-service/internal/app/metrics"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/pkg/logger"
)

// DefaultPeriod is how long a borrowed book may be kept.
const DefaultPeriod = 14 * 24 * time.Hour

// Service manages the borrow/return lifecycle.
type Service struct {
	loans  storage.LoanStore
	books  storage.BookStore
	delay  latency.Simulator
	period time.Duration
	now    func() time.Time
	log    *logger.Logger
}

// New constructs a loan service.
func New(loans storage.LoanStore, books storage.BookStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("loans")
	}
	return &Service{
		loans:  loans,
		books:  books,
		period: DefaultPeriod,
		now:    time.Now,
		log:    log,
	}
}

// WithLatency sets the simulated round-trip delay.
func (s *Service) WithLatency(sim latency.Simulator) *Service {
	s.delay = sim
	return s
}

// WithClock overrides the clock used for loan and return dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithPeriod overrides the loan period. Non-positive values are ignored.
func (s *Service) WithPeriod(d time.Duration) *Service {
	if d > 0 {
		s.period = d
	}
	return s
}

// ListForUser returns the loans belonging to userID with their books attached.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]loan.Loan, error) {
	if err := s.delay.Wait(ctx, latency.Read); err != nil {
		return nil, err
	}
	items, err := s.loans.ListLoans(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachBooks(ctx, items)
}

// Get returns a single loan with its book attached.
func (s *Service) Get(ctx context.Context, loanID int64) (loan.Loan, error) {
	if err := s.delay.Wait(ctx, latency.Fast); err != nil {
		return loan.Loan{}, err
	}
	l, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return loan.Loan{}, err
	}
	if l.Book, err = s.lookupBook(ctx, l.BookID); err != nil {
		return loan.Loan{}, err
	}
	return l, nil
}

// Borrow records a pending loan for bookID. An unknown book is accepted and
// simply leaves the loan without an embedded book.
func (s *Service) Borrow(ctx context.Context, userID, bookID int64) (loan.Loan, error) {
	if err := s.delay.Wait(ctx, latency.Commit); err != nil {
		return loan.Loan{}, err
	}

	b, err := s.lookupBook(ctx, bookID)
	if err != nil {
		return loan.Loan{}, err
	}

	today := s.now().UTC()
	created, err := s.loans.CreateLoan(ctx, loan.Loan{
		UserID:    userID,
		BookID:    bookID,
		LoanDate:  today.Format(loan.DateLayout),
		DueDate:   today.Add(s.period).Format(loan.DateLayout),
		Status:    loan.StatusPending,
		CreatedAt: today,
	})
	if err != nil {
		return loan.Loan{}, fmt.Errorf("create loan: %w", err)
	}
	created.Book = b

	metrics.RecordLoanAction("borrow")
	s.log.WithField("user_id", userID).
		WithField("book_id", bookID).
		WithField("loan_id", created.ID).
		Info("book borrowed")
	return created, nil
}

// Return marks a loan returned as of today. Any current status is accepted.
func (s *Service) Return(ctx context.Context, loanID int64) (loan.Loan, error) {
	return s.transition(ctx, loanID, "return", func(l *loan.Loan) {
		l.Status = loan.StatusReturned
		l.ReturnDate = s.now().UTC().Format(loan.DateLayout)
	})
}

// Approve moves a loan to approved.
func (s *Service) Approve(ctx context.Context, loanID int64) (loan.Loan, error) {
	return s.transition(ctx, loanID, "approve", func(l *loan.Loan) {
		l.Status = loan.StatusApproved
		l.RejectionReason = ""
	})
}

// Reject moves a loan to rejected and records why.
func (s *Service) Reject(ctx context.Context, loanID int64, reason string) (loan.Loan, error) {
	return s.transition(ctx, loanID, "reject", func(l *loan.Loan) {
		l.Status = loan.StatusRejected
		l.RejectionReason = reason
	})
}

func (s *Service) transition(ctx context.Context, loanID int64, action string, apply func(*loan.Loan)) (loan.Loan, error) {
	if err := s.delay.Wait(ctx, latency.Commit); err != nil {
		return loan.Loan{}, err
	}

	current, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return loan.Loan{}, err
	}
	apply(&current)

	updated, err := s.loans.UpdateLoan(ctx, current)
	if err != nil {
		return loan.Loan{}, fmt.Errorf("%s loan: %w", action, err)
	}
	if updated.Book, err = s.lookupBook(ctx, updated.BookID); err != nil {
		return loan.Loan{}, err
	}

	metrics.RecordLoanAction(action)
	s.log.WithField("loan_id", loanID).
		WithField("status", string(updated.Status)).
		Info("loan updated")
	return updated, nil
}

func (s *Service) lookupBook(ctx context.Context, id int64) (*book.Book, error) {
	b, err := s.books.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup book %d: %w", id, err)
	}
	return &b, nil
}

func (s *Service) attachBooks(ctx context.Context, items []loan.Loan) ([]loan.Loan, error) {
	cache := make(map[int64]*book.Book)
	for i := range items {
		id := items[i].BookID
		b, ok := cache[id]
		if !ok {
			var err error
			if b, err = s.lookupBook(ctx, id); err != nil {
				return nil, err
			}
			cache[id] = b
		}
		items[i].Book = b
	}
	return items, nil
}
