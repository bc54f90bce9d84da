package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	tokens "github.com/puskata/library-service/internal/app/auth"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/latency"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/internal/app/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *session.MemoryStore) {
	t.Helper()
	store := memory.New()
	sessions := session.NewMemoryStore()
	issuer, err := tokens.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	svc := New(store, sessions, issuer, nil).WithPasswordCost(bcrypt.MinCost)

	hash, err := HashPassword("password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := store.CreateUser(context.Background(), user.User{
		Name: "Puskata Reader", Email: "user@puskata.com", Role: user.RoleUser, PasswordHash: hash,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return svc, store, sessions
}

func TestLoginExactCredentialPair(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "user@puskata.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token == "" || sess.User.Email != "user@puskata.com" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	for _, tc := range []struct{ email, password string }{
		{"user@puskata.com", "Password"},
		{"user@puskata.com", ""},
		{"USER@puskata.com", "password"},
		{"nobody@puskata.com", "password"},
	} {
		if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login(%q, %q): expected ErrInvalidCredentials, got %v", tc.email, tc.password, err)
		}
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Someone", "user@puskata.com", "secret"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	sess, err := svc.Register(ctx, " New Reader ", "new@puskata.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Role != user.RoleUser || sess.User.Name != "New Reader" {
		t.Fatalf("unexpected user: %+v", sess.User)
	}

	users, _ := store.ListUsers(ctx)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	if _, err := svc.Login(ctx, "new@puskata.com", "secret"); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Register(context.Background(), "", "a@b.c", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestSessionAndLogout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "user@puskata.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	restored, err := svc.Session(ctx, sess.Token)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if restored.User.ID != sess.User.ID {
		t.Fatalf("restored wrong user")
	}

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Session(ctx, sess.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
	if _, err := svc.Session(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for garbage token, got %v", err)
	}
}

func TestUpdateProfileRefreshesSession(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "user@puskata.com", "password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	name := "Renamed Reader"
	updated, err := svc.UpdateProfile(ctx, sess.Token, user.ProfilePatch{Name: &name})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != name || updated.Email != "user@puskata.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	stored, _ := store.GetUser(ctx, updated.ID)
	if stored.Name != name {
		t.Fatalf("store not updated")
	}
	restored, _ := svc.Session(ctx, sess.Token)
	if restored.User.Name != name {
		t.Fatalf("session not refreshed")
	}
	if stored.PasswordHash == "" {
		t.Fatalf("profile update must keep the credential")
	}
}

func TestLoginHonoursCancelledContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.WithLatency(latency.New(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Login(ctx, "user@puskata.com", "password"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
