package loans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/internal/app/storage/memory"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	if _, err := store.CreateBook(context.Background(), book.Book{Title: "Laskar Pelangi", Author: "Andrea Hirata"}); err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return New(store, store, nil).WithClock(fixedClock), store
}

func TestBorrowCreatesPendingLoan(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	l, err := svc.Borrow(ctx, 1, 1)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if l.Status != loan.StatusPending {
		t.Fatalf("expected pending, got %s", l.Status)
	}
	if l.LoanDate != "2024-03-10" || l.DueDate != "2024-03-24" {
		t.Fatalf("unexpected dates %s -> %s", l.LoanDate, l.DueDate)
	}
	if l.Fine != 0 || l.ReturnDate != "" {
		t.Fatalf("unexpected fine/return date: %+v", l)
	}
	if l.Book == nil || l.Book.Title != "Laskar Pelangi" {
		t.Fatalf("expected embedded book, got %+v", l.Book)
	}

	all, _ := store.ListLoans(ctx, 0)
	if len(all) != 1 {
		t.Fatalf("expected exactly one stored loan, got %d", len(all))
	}

	b, _ := store.GetBook(ctx, 1)
	if b.Available != 0 {
		t.Fatalf("borrow must not touch availability")
	}
}

func TestBorrowUnknownBook(t *testing.T) {
	svc, _ := newTestService(t)
	l, err := svc.Borrow(context.Background(), 1, 42)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if l.Book != nil {
		t.Fatalf("expected no embedded book")
	}
}

func TestBorrowHonoursPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	svc.WithPeriod(7 * 24 * time.Hour)
	l, err := svc.Borrow(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if l.DueDate != "2024-03-17" {
		t.Fatalf("expected 7 day period, got due %s", l.DueDate)
	}
}

func TestGetAttachesBook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	l, _ := svc.Borrow(ctx, 1, 1)
	got, err := svc.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != 1 || got.Book == nil || got.Book.Title != "Laskar Pelangi" {
		t.Fatalf("unexpected loan: %+v", got)
	}
	if _, err := svc.Get(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReturnLoan(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	l, _ := svc.Borrow(ctx, 1, 1)
	returned, err := svc.Return(ctx, l.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != loan.StatusReturned || returned.ReturnDate != "2024-03-10" {
		t.Fatalf("unexpected returned loan: %+v", returned)
	}

	// Returning twice is accepted and keeps the loan returned.
	again, err := svc.Return(ctx, l.ID)
	if err != nil || again.Status != loan.StatusReturned {
		t.Fatalf("second return: %+v %v", again, err)
	}

	if _, err := svc.Return(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApproveAndReject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	l, _ := svc.Borrow(ctx, 1, 1)
	approved, err := svc.Approve(ctx, l.ID)
	if err != nil || approved.Status != loan.StatusApproved {
		t.Fatalf("approve: %+v %v", approved, err)
	}

	rejected, err := svc.Reject(ctx, l.ID, "damaged copy")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != loan.StatusRejected || rejected.RejectionReason != "damaged copy" {
		t.Fatalf("unexpected rejected loan: %+v", rejected)
	}
}

func TestListForUserFiltersByOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Borrow(ctx, 1, 1); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := svc.Borrow(ctx, 2, 1); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	mine, err := svc.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != 1 {
		t.Fatalf("expected only user 1 loans, got %+v", mine)
	}
	if mine[0].Book == nil {
		t.Fatalf("expected embedded book in listing")
	}
}
