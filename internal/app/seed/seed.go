// Package seed loads the starter catalog into empty stores.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/puskata/library-service/internal/app/domain/book"
	"github.com/puskata/library-service/internal/app/domain/loan"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/domain/wishlist"
	authsvc "github.com/puskata/library-service/internal/app/services/auth"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/pkg/logger"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Document is the YAML seed layout.
type Document struct {
	Books    []book.Book `yaml:"books"`
	Users    []User      `yaml:"users"`
	Loans    []Loan      `yaml:"loans"`
	Wishlist []Wish      `yaml:"wishlist"`
}

// User is a member with a plain-text password that is hashed on load.
type User struct {
	ID           int64  `yaml:"id"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	ProfileImage string `yaml:"profile_image"`
	Role         string `yaml:"role"`
}

type Loan struct {
	ID         int64   `yaml:"id"`
	UserID     int64   `yaml:"user_id"`
	BookID     int64   `yaml:"book_id"`
	LoanDate   string  `yaml:"loan_date"`
	DueDate    string  `yaml:"due_date"`
	ReturnDate string  `yaml:"return_date"`
	Status     string  `yaml:"status"`
	Fine       float64 `yaml:"fine"`
}

type Wish struct {
	ID     int64 `yaml:"id"`
	UserID int64 `yaml:"user_id"`
	BookID int64 `yaml:"book_id"`
}

// Stores groups the targets of Apply.
type Stores struct {
	Users    storage.UserStore
	Books    storage.BookStore
	Loans    storage.LoanStore
	Wishlist storage.WishlistStore
}

// Default returns the embedded catalog.
func Default() (Document, error) {
	return Parse(defaultCatalog)
}

// Load reads a seed file, or the embedded catalog when path is empty.
func Load(path string) (Document, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode seed: %w", err)
	}
	for i, b := range doc.Books {
		if b.Title == "" {
			return Document{}, fmt.Errorf("seed book #%d: title is required", i+1)
		}
		if b.Status == "" {
			doc.Books[i].Status = book.StatusActive
		}
	}
	for i, u := range doc.Users {
		if u.Email == "" || u.Password == "" {
			return Document{}, fmt.Errorf("seed user #%d: email and password are required", i+1)
		}
		switch user.Role(u.Role) {
		case "":
			doc.Users[i].Role = string(user.RoleUser)
		case user.RoleUser, user.RoleAdmin:
		default:
			return Document{}, fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
	}
	for _, l := range doc.Loans {
		switch loan.Status(l.Status) {
		case loan.StatusPending, loan.StatusApproved, loan.StatusReturned, loan.StatusRejected:
		default:
			return Document{}, fmt.Errorf("seed loan %d: unknown status %q", l.ID, l.Status)
		}
	}
	return doc, nil
}

// Apply writes doc into stores unless the catalog already has books. It
// reports whether anything was written.
func Apply(ctx context.Context, doc Document, stores Stores, passwordCost int, log *logger.Logger) (bool, error) {
	if log == nil {
		log = logger.NewDefault("seed")
	}

	existing, err := stores.Books.ListBooks(ctx)
	if err != nil {
		return false, fmt.Errorf("inspect catalog: %w", err)
	}
	if len(existing) > 0 {
		log.WithField("books", len(existing)).Debug("catalog already populated, skipping seed")
		return false, nil
	}

	now := time.Now().UTC()
	for _, b := range doc.Books {
		if _, err := stores.Books.CreateBook(ctx, b); err != nil {
			return false, fmt.Errorf("seed book %q: %w", b.Title, err)
		}
	}
	for _, u := range doc.Users {
		hash, err := authsvc.HashPassword(u.Password, passwordCost)
		if err != nil {
			return false, err
		}
		if _, err := stores.Users.CreateUser(ctx, user.User{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			ProfileImage: u.ProfileImage,
			Role:         user.Role(u.Role),
			PasswordHash: hash,
			CreatedAt:    now,
		}); err != nil {
			return false, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, l := range doc.Loans {
		if _, err := stores.Loans.CreateLoan(ctx, loan.Loan{
			ID:         l.ID,
			UserID:     l.UserID,
			BookID:     l.BookID,
			LoanDate:   l.LoanDate,
			DueDate:    l.DueDate,
			ReturnDate: l.ReturnDate,
			Status:     loan.Status(l.Status),
			Fine:       l.Fine,
			CreatedAt:  now,
		}); err != nil {
			return false, fmt.Errorf("seed loan %d: %w", l.ID, err)
		}
	}
	for _, w := range doc.Wishlist {
		if _, err := stores.Wishlist.CreateWishlistItem(ctx, wishlist.Item{
			ID:        w.ID,
			UserID:    w.UserID,
			BookID:    w.BookID,
			CreatedAt: now,
		}); err != nil {
			return false, fmt.Errorf("seed wishlist item %d: %w", w.ID, err)
		}
	}

	log.WithField("books", len(doc.Books)).
		WithField("users", len(doc.Users)).
		WithField("loans", len(doc.Loans)).
		Info("catalog seeded")
	return true, nil
}
