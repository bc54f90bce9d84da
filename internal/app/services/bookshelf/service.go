// Package bookshelf assembles the "My Books" screen from loans and the
// wishlist.
package bookshelf

import (
	"context"
	"fmt"
	"time"

	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/domain/wishlist"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/pkg/logger"
)

// LoanService is the subset of the loan service the shelf needs.
type LoanService interface {
	ListForUser(ctx context.Context, userID int64) ([]loan.Loan, error)
	Return(ctx context.Context, loanID int64) (loan.Loan, error)
}

// WishlistService is the subset of the wishlist service the shelf needs.
type WishlistService interface {
	ListForUser(ctx context.Context, userID int64) ([]wishlist.Item, error)
	Remove(ctx context.Context, id int64) error
}

// Shelf partitions a member's books.
type Shelf struct {
	Borrowed []loan.Loan     `json:"borrowed"`
	Returned []loan.Loan     `json:"returned"`
	Saved    []wishlist.Item `json:"saved"`
	Overdue  int             `json:"overdue"`
}

// Service builds shelves.
type Service struct {
	loans    LoanService
	wishlist WishlistService
	now      func() time.Time
	log      *logger.Logger
}

// New constructs a bookshelf service.
func New(loans LoanService, wishlist WishlistService, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("bookshelf")
	}
	return &Service{loans: loans, wishlist: wishlist, now: time.Now, log: log}
}

// WithClock overrides the clock used for the overdue count.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Shelf loads loans and wishlist for userID. Rejected loans appear in
// neither list.
func (s *Service) Shelf(ctx context.Context, userID int64) (Shelf, error) {
	loans, err := s.loans.ListForUser(ctx, userID)
	if err != nil {
		return Shelf{}, fmt.Errorf("load loans: %w", err)
	}
	saved, err := s.wishlist.ListForUser(ctx, userID)
	if err != nil {
		return Shelf{}, fmt.Errorf("load wishlist: %w", err)
	}

	shelf := Shelf{
		Borrowed: []loan.Loan{},
		Returned: []loan.Loan{},
		Saved:    saved,
	}
	now := s.now().UTC()
	for _, l := range loans {
		switch {
		case l.Active():
			shelf.Borrowed = append(shelf.Borrowed, l)
			if l.Overdue(now) {
				shelf.Overdue++
			}
		case l.Status == loan.StatusReturned:
			shelf.Returned = append(shelf.Returned, l)
		}
	}
	if shelf.Saved == nil {
		shelf.Saved = []wishlist.Item{}
	}
	return shelf, nil
}

// ReturnLoan returns one of userID's loans and reloads the shelf. A loan that
// is not on the shelf yields storage.ErrNotFound.
func (s *Service) ReturnLoan(ctx context.Context, userID, loanID int64) (Shelf, error) {
	loans, err := s.loans.ListForUser(ctx, userID)
	if err != nil {
		return Shelf{}, err
	}
	if !ownsLoan(loans, loanID) {
		return Shelf{}, fmt.Errorf("loan %d: %w", loanID, storage.ErrNotFound)
	}
	if _, err := s.loans.Return(ctx, loanID); err != nil {
		return Shelf{}, err
	}
	s.log.WithField("user_id", userID).WithField("loan_id", loanID).Info("returned from shelf")
	return s.Shelf(ctx, userID)
}

// RemoveSaved drops one of userID's wishlist entries and reloads the shelf.
func (s *Service) RemoveSaved(ctx context.Context, userID, itemID int64) (Shelf, error) {
	items, err := s.wishlist.ListForUser(ctx, userID)
	if err != nil {
		return Shelf{}, err
	}
	owned := false
	for _, item := range items {
		if item.ID == itemID {
			owned = true
			break
		}
	}
	if !owned {
		return Shelf{}, fmt.Errorf("wishlist item %d: %w", itemID, storage.ErrNotFound)
	}
	if err := s.wishlist.Remove(ctx, itemID); err != nil {
		return Shelf{}, err
	}
	return s.Shelf(ctx, userID)
}

func ownsLoan(loans []loan.Loan, id int64) bool {
	for _, l := range loans {
		if l.ID == id {
			return true
		}
	}
	return false
}
