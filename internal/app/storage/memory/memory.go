package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/domain/wishlist"
	"github.com/puskata/library-service/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use; concurrent writers to the same record see last write
// wins.
type Store struct {
	mu       sync.RWMutex
	nextID   map[string]int64
	users    map[int64]user.User
	books    map[int64]book.Book
	loans    map[int64]loan.Loan
	wishlist map[int64]wishlist.Item
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.LoanStore = (*Store)(nil)
var _ storage.WishlistStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   make(map[string]int64),
		users:    make(map[int64]user.User),
		books:    make(map[int64]book.Book),
		loans:    make(map[int64]loan.Loan),
		wishlist: make(map[int64]wishlist.Item),
	}
}

// nextIDLocked hands out per-collection sequential ids. Explicit ids supplied
// by seeding push the sequence forward so later inserts never collide.
func (s *Store) nextIDLocked(collection string, explicit int64) int64 {
	if explicit > 0 {
		if explicit > s.nextID[collection] {
			s.nextID[collection] = explicit
		}
		return explicit
	}
	s.nextID[collection]++
	return s.nextID[collection]
}

// UserStore implementation -----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; u.ID != 0 && exists {
		return user.User{}, fmt.Errorf("user %d already exists", u.ID)
	}
	u.ID = s.nextIDLocked("users", u.ID)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %d: %w", u.ID, storage.ErrNotFound)
	}
	u.CreatedAt = original.CreatedAt

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		match user.User
		found bool
	)
	for _, u := range s.users {
		if u.Email == email && (!found || u.ID < match.ID) {
			match, found = u, true
		}
	}
	if !found {
		return user.User{}, fmt.Errorf("user %q: %w", email, storage.ErrNotFound)
	}
	return match, nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// BookStore implementation -----------------------------------------------------

func (s *Store) CreateBook(_ context.Context, b book.Book) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[b.ID]; b.ID != 0 && exists {
		return book.Book{}, fmt.Errorf("book %d already exists", b.ID)
	}
	b.ID = s.nextIDLocked("books", b.ID)
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	s.books[b.ID] = b
	return b, nil
}

func (s *Store) GetBook(_ context.Context, id int64) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return book.Book{}, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) ListBooks(_ context.Context) ([]book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// LoanStore implementation -----------------------------------------------------

func (s *Store) CreateLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[l.ID]; l.ID != 0 && exists {
		return loan.Loan{}, fmt.Errorf("loan %d already exists", l.ID)
	}
	l.ID = s.nextIDLocked("loans", l.ID)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.Book = nil

	s.loans[l.ID] = l
	return l, nil
}

func (s *Store) UpdateLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.loans[l.ID]
	if !ok {
		return loan.Loan{}, fmt.Errorf("loan %d: %w", l.ID, storage.ErrNotFound)
	}
	l.CreatedAt = original.CreatedAt
	l.Book = nil

	s.loans[l.ID] = l
	return l, nil
}

func (s *Store) GetLoan(_ context.Context, id int64) (loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[id]
	if !ok {
		return loan.Loan{}, fmt.Errorf("loan %d: %w", id, storage.ErrNotFound)
	}
	return l, nil
}

func (s *Store) ListLoans(_ context.Context, userID int64) ([]loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]loan.Loan, 0)
	for _, l := range s.loans {
		if userID == 0 || l.UserID == userID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// WishlistStore implementation -------------------------------------------------

func (s *Store) CreateWishlistItem(_ context.Context, item wishlist.Item) (wishlist.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wishlist[item.ID]; item.ID != 0 && exists {
		return wishlist.Item{}, fmt.Errorf("wishlist item %d already exists", item.ID)
	}
	item.ID = s.nextIDLocked("wishlist", item.ID)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.Book = nil

	s.wishlist[item.ID] = item
	return item, nil
}

func (s *Store) GetWishlistItem(_ context.Context, id int64) (wishlist.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.wishlist[id]
	if !ok {
		return wishlist.Item{}, fmt.Errorf("wishlist item %d: %w", id, storage.ErrNotFound)
	}
	return item, nil
}

func (s *Store) DeleteWishlistItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wishlist[id]; !ok {
		return fmt.Errorf("wishlist item %d: %w", id, storage.ErrNotFound)
	}
	delete(s.wishlist, id)
	return nil
}

func (s *Store) ListWishlistItems(_ context.Context, userID int64) ([]wishlist.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]wishlist.Item, 0)
	for _, item := range s.wishlist {
		if userID == 0 || item.UserID == userID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
