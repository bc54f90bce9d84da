package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/puskata/library-service/internal/app/auth"
	"github.com/puskata/library-service/internal/app/latency"
	authsvc "github.com/puskata/library-service/internal/app/services/auth"
	"github.com/puskata/library-service/internal/app/services/books"
	"github.com/puskata/library-service/internal/app/services/bookshelf"
	"github.com/puskata/library-service/internal/app/services/loans"
	wishlistsvc "github.com/puskata/library-service/internal/app/services/wishlist"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/internal/app/storage/memory"
	"github.com/puskata/library-service/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Books    storage.BookStore
	Loans    storage.LoanStore
	Wishlist storage.WishlistStore
	Sessions session.Store
}

// Options tune service behaviour. The zero value is usable.
type Options struct {
	JWTSecret    string
	SessionTTL   time.Duration
	LoanPeriod   time.Duration
	Latency      latency.Simulator
	PasswordCost int
}

// Application ties the library services together.
type Application struct {
	log *logger.Logger

	Stores    Stores
	Auth      *authsvc.Service
	Books     *books.Service
	Loans     *loans.Service
	Wishlist  *wishlistsvc.Service
	Bookshelf *bookshelf.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Books == nil {
		stores.Books = mem
	}
	if stores.Loans == nil {
		stores.Loans = mem
	}
	if stores.Wishlist == nil {
		stores.Wishlist = mem
	}
	if stores.Sessions == nil {
		stores.Sessions = session.NewMemoryStore()
	}

	secret := opts.JWTSecret
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Warn("JWT_SECRET not set; sessions will not survive a restart")
	}
	issuer, err := auth.NewIssuer(secret, opts.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	cost := opts.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	authService := authsvc.New(stores.Users, stores.Sessions, issuer, log.Component("auth")).
		WithLatency(opts.Latency).
		WithPasswordCost(cost)
	bookService := books.New(stores.Books, log.Component("books")).WithLatency(opts.Latency)
	loanService := loans.New(stores.Loans, stores.Books, log.Component("loans")).
		WithLatency(opts.Latency).
		WithPeriod(opts.LoanPeriod)
	wishlistService := wishlistsvc.New(stores.Wishlist, stores.Books, log.Component("wishlist")).WithLatency(opts.Latency)
	shelfService := bookshelf.New(loanService, wishlistService, log.Component("bookshelf"))

	return &Application{
		log:       log,
		Stores:    stores,
		Auth:      authService,
		Books:     bookService,
		Loans:     loanService,
		Wishlist:  wishlistService,
		Bookshelf: shelfService,
	}, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
