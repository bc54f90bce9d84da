package storage

import (
	"context"
	"errors"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/domain/wishlist"
)

// ErrNotFound is returned (wrapped) when a record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists library members.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// BookStore persists the catalog.
type BookStore interface {
	CreateBook(ctx context.Context, b book.Book) (book.Book, error)
	GetBook(ctx context.Context, id int64) (book.Book, error)
	ListBooks(ctx context.Context) ([]book.Book, error)
}

// LoanStore persists loans. ListLoans with userID 0 returns every loan.
type LoanStore interface {
	CreateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error)
	UpdateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error)
	GetLoan(ctx context.Context, id int64) (loan.Loan, error)
	ListLoans(ctx context.Context, userID int64) ([]loan.Loan, error)
}

// WishlistStore persists wishlist entries. ListWishlistItems with userID 0
// returns every entry.
type WishlistStore interface {
	CreateWishlistItem(ctx context.Context, item wishlist.Item) (wishlist.Item, error)
	GetWishlistItem(ctx context.Context, id int64) (wishlist.Item, error)
	DeleteWishlistItem(ctx context.Context, id int64) error
	ListWishlistItems(ctx context.Context, userID int64) ([]wishlist.Item, error)
}
