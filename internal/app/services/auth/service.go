package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	tokens "github.com/puskata/library-service/internal/app/auth"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/latency"
	"github.com/puskata/library-service/internal/app/metrics"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/internal/app/storage"
	"github.com/puskata/library-service/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrEmailTaken         = errors.New("Email already registered")
	ErrMissingFields      = errors.New("Name, email and password are required")
	ErrUnauthenticated    = errors.New("Not signed in")
)

// Service signs members in and out and keeps their cached profile current.
type Service struct {
	users    storage.UserStore
	sessions session.Store
	tokens   *tokens.Issuer
	delay    latency.Simulator
	cost     int
	now      func() time.Time
	log      *logger.Logger
}

// New constructs an auth service.
func New(users storage.UserStore, sessions session.Store, issuer *tokens.Issuer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   issuer,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		log:      log,
	}
}

// WithLatency sets the simulated round-trip delay.
func (s *Service) WithLatency(sim latency.Simulator) *Service {
	s.delay = sim
	return s
}

// WithPasswordCost overrides the bcrypt cost used for new passwords.
func (s *Service) WithPasswordCost(cost int) *Service {
	s.cost = cost
	return s
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login opens a session when email and password match a stored member.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	if err := s.delay.Wait(ctx, latency.Commit); err != nil {
		return session.Session{}, err
	}

	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		metrics.RecordAuthAttempt("login", false)
		if errors.Is(err, storage.ErrNotFound) {
			return session.Session{}, ErrInvalidCredentials
		}
		return session.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		metrics.RecordAuthAttempt("login", false)
		s.log.WithField("user_id", u.ID).Warn("login rejected")
		return session.Session{}, ErrInvalidCredentials
	}

	sess, err := s.startSession(ctx, u)
	if err != nil {
		return session.Session{}, err
	}
	metrics.RecordAuthAttempt("login", true)
	s.log.WithField("user_id", u.ID).Info("member signed in")
	return sess, nil
}

// Register creates a reader account and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (session.Session, error) {
	if err := s.delay.Wait(ctx, latency.Commit); err != nil {
		return session.Session{}, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		metrics.RecordAuthAttempt("register", false)
		return session.Session{}, ErrMissingFields
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		metrics.RecordAuthAttempt("register", false)
		return session.Session{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, err
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return session.Session{}, err
	}
	created, err := s.users.CreateUser(ctx, user.User{
		Name:         name,
		Email:        email,
		Role:         user.RoleUser,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.startSession(ctx, created)
	if err != nil {
		return session.Session{}, err
	}
	metrics.RecordAuthAttempt("register", true)
	s.log.WithField("user_id", created.ID).Info("member registered")
	return sess, nil
}

// Session restores the cached session behind token.
func (s *Service) Session(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, ErrUnauthenticated
	}
	if _, err := s.tokens.Parse(token); err != nil {
		return session.Session{}, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.Session{}, ErrUnauthenticated
		}
		return session.Session{}, err
	}
	return sess, nil
}

// Logout drops the cached session.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UpdateProfile merges patch into the member behind token and refreshes the
// cached session.
func (s *Service) UpdateProfile(ctx context.Context, token string, patch user.ProfilePatch) (user.User, error) {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return user.User{}, err
	}

	current, err := s.users.GetUser(ctx, sess.User.ID)
	if err != nil {
		return user.User{}, err
	}
	next := patch.Apply(current)
	next.Name = strings.TrimSpace(next.Name)
	next.Email = strings.TrimSpace(next.Email)

	updated, err := s.users.UpdateUser(ctx, next)
	if err != nil {
		return user.User{}, err
	}

	sess.User = updated
	if err := s.sessions.Put(ctx, sess); err != nil {
		return user.User{}, fmt.Errorf("refresh session: %w", err)
	}
	s.log.WithField("user_id", updated.ID).Info("profile updated")
	return updated, nil
}

func (s *Service) startSession(ctx context.Context, u user.User) (session.Session, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return session.Session{}, err
	}
	sess := session.Session{
		Token:     token,
		User:      u,
		IssuedAt:  s.now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("cache session: %w", err)
	}
	return sess, nil
}
