package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/domain/wishlist"
	"github.com/puskata/library-service/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.LoanStore = (*Store)(nil)
var _ storage.WishlistStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

const (
	userColumns = `id, name, email, profile_image, role, password_hash, created_at`
	bookColumns = `id, title, author, isbn, publisher, published_year, category, pages,
		language, description, cover_image, quantity, available, status, created_at, updated_at`
	loanColumns = `id, user_id, book_id,
		to_char(loan_date, 'YYYY-MM-DD') AS loan_date,
		to_char(due_date, 'YYYY-MM-DD') AS due_date,
		COALESCE(to_char(return_date, 'YYYY-MM-DD'), '') AS return_date,
		status, rejection_reason, fine, created_at`
	wishlistColumns = `id, user_id, book_id, created_at`
)

func notFound(err error, kind string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", kind, id, storage.ErrNotFound)
	}
	return err
}

// insertID runs an INSERT ... RETURNING id. Rows seeded with an explicit id
// move the table's sequence past it.
func (s *Store) insertID(ctx context.Context, table string, explicit int64, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	if explicit != 0 {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s))`, table, table,
		)); err != nil {
			return 0, fmt.Errorf("sync %s sequence: %w", table, err)
		}
	}
	return id, nil
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertID(ctx, "users", u.ID, `
		INSERT INTO users (id, name, email, profile_image, role, password_hash, created_at)
		VALUES (COALESCE(NULLIF($1, 0), nextval(pg_get_serial_sequence('users', 'id'))), $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, u.ID, u.Name, u.Email, u.ProfileImage, string(u.Role), u.PasswordHash, u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	u.ID = id
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, profile_image = $4, role = $5, password_hash = $6
		WHERE id = $1
	`, u.ID, u.Name, u.Email, u.ProfileImage, string(u.Role), u.PasswordHash)
	if err != nil {
		return user.User{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return user.User{}, fmt.Errorf("user %d: %w", u.ID, storage.ErrNotFound)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return user.User{}, notFound(err, "user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1 ORDER BY id LIMIT 1`, email)
	if err != nil {
		return user.User{}, notFound(err, "user", email)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	users := []user.User{}
	if err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return users, nil
}

// --- BookStore --------------------------------------------------------------

func (s *Store) CreateBook(ctx context.Context, b book.Book) (book.Book, error) {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = book.StatusActive
	}

	id, err := s.insertID(ctx, "books", b.ID, `
		INSERT INTO books (id, title, author, isbn, publisher, published_year, category, pages,
			language, description, cover_image, quantity, available, status, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1, 0), nextval(pg_get_serial_sequence('books', 'id'))),
			$2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, b.ID, b.Title, b.Author, b.ISBN, b.Publisher, b.PublishedYear, b.Category, b.Pages,
		b.Language, b.Description, b.CoverImage, b.Quantity, b.Available, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return book.Book{}, err
	}
	b.ID = id
	return b, nil
}

func (s *Store) GetBook(ctx context.Context, id int64) (book.Book, error) {
	var b book.Book
	if err := s.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id); err != nil {
		return book.Book{}, notFound(err, "book", id)
	}
	return b, nil
}

func (s *Store) ListBooks(ctx context.Context) ([]book.Book, error) {
	books := []book.Book{}
	if err := s.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books ORDER BY id`); err != nil {
		return nil, err
	}
	return books, nil
}

// --- LoanStore --------------------------------------------------------------

func (s *Store) CreateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertID(ctx, "loans", l.ID, `
		INSERT INTO loans (id, user_id, book_id, loan_date, due_date, return_date, status, rejection_reason, fine, created_at)
		VALUES (COALESCE(NULLIF($1, 0), nextval(pg_get_serial_sequence('loans', 'id'))),
			$2, $3, $4::date, $5::date, NULLIF($6, '')::date, $7, $8, $9, $10)
		RETURNING id
	`, l.ID, l.UserID, l.BookID, l.LoanDate, l.DueDate, l.ReturnDate, string(l.Status), l.RejectionReason, l.Fine, l.CreatedAt)
	if err != nil {
		return loan.Loan{}, err
	}
	l.ID = id
	l.Book = nil
	return l, nil
}

func (s *Store) UpdateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE loans
		SET status = $2, return_date = NULLIF($3, '')::date, rejection_reason = $4, fine = $5, due_date = $6::date
		WHERE id = $1
	`, l.ID, string(l.Status), l.ReturnDate, l.RejectionReason, l.Fine, l.DueDate)
	if err != nil {
		return loan.Loan{}, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return loan.Loan{}, fmt.Errorf("loan %d: %w", l.ID, storage.ErrNotFound)
	}
	return s.GetLoan(ctx, l.ID)
}

func (s *Store) GetLoan(ctx context.Context, id int64) (loan.Loan, error) {
	var l loan.Loan
	if err := s.db.GetContext(ctx, &l, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id); err != nil {
		return loan.Loan{}, notFound(err, "loan", id)
	}
	return l, nil
}

func (s *Store) ListLoans(ctx context.Context, userID int64) ([]loan.Loan, error) {
	loans := []loan.Loan{}
	err := s.db.SelectContext(ctx, &loans,
		`SELECT `+loanColumns+` FROM loans WHERE ($1 = 0 OR user_id = $1) ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// --- WishlistStore ----------------------------------------------------------

func (s *Store) CreateWishlistItem(ctx context.Context, item wishlist.Item) (wishlist.Item, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertID(ctx, "wishlist_items", item.ID, `
		INSERT INTO wishlist_items (id, user_id, book_id, created_at)
		VALUES (COALESCE(NULLIF($1, 0), nextval(pg_get_serial_sequence('wishlist_items', 'id'))), $2, $3, $4)
		RETURNING id
	`, item.ID, item.UserID, item.BookID, item.CreatedAt)
	if err != nil {
		return wishlist.Item{}, err
	}
	item.ID = id
	item.Book = nil
	return item, nil
}

func (s *Store) GetWishlistItem(ctx context.Context, id int64) (wishlist.Item, error) {
	var item wishlist.Item
	if err := s.db.GetContext(ctx, &item, `SELECT `+wishlistColumns+` FROM wishlist_items WHERE id = $1`, id); err != nil {
		return wishlist.Item{}, notFound(err, "wishlist item", id)
	}
	return item, nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("wishlist item %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListWishlistItems(ctx context.Context, userID int64) ([]wishlist.Item, error) {
	items := []wishlist.Item{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+wishlistColumns+` FROM wishlist_items WHERE ($1 = 0 OR user_id = $1) ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return items, nil
}
