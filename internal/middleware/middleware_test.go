package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/pkg/logger"
)

type stubResolver map[string]user.User

func (s stubResolver) Session(_ context.Context, token string) (session.Session, error) {
	u, ok := s[token]
	if !ok {
		return session.Session{}, errors.New("no session")
	}
	return session.Session{Token: token, User: u, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.LoggingConfig{Level: "error", Output: &bytes.Buffer{}})
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireSession(t *testing.T) {
	resolver := stubResolver{"good": {ID: 1, Name: "Reader", Role: user.RoleUser}}

	var seen user.User
	handler := RequireSession(resolver, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		if TokenFromContext(r.Context()) != "good" {
			t.Errorf("token not on context")
		}
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/loans/user/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusUnauthorized && gjson.Get(rec.Body.String(), "success").Bool() {
				t.Fatalf("expected failure envelope, got %s", rec.Body.String())
			}
		})
	}
	if seen.ID != 1 {
		t.Fatalf("user not placed on context")
	}
}

func TestRequireAdmin(t *testing.T) {
	resolver := stubResolver{
		"reader": {ID: 1, Role: user.RoleUser},
		"admin":  {ID: 2, Role: user.RoleAdmin},
	}
	handler := RequireSession(resolver, quietLogger())(RequireAdmin(okHandler))

	for token, want := range map[string]int{"reader": http.StatusForbidden, "admin": http.StatusOK} {
		req := httptest.NewRequest(http.MethodPost, "/api/loans/1/approve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", token, want, rec.Code)
		}
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, quietLogger())
	handler := rl.Handler(okHandler)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if do("10.0.0.1:1111") != http.StatusOK || do("10.0.0.1:2222") != http.StatusOK {
		t.Fatalf("burst should be allowed")
	}
	if code := do("10.0.0.1:3333"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if do("10.0.0.2:1111") != http.StatusOK {
		t.Fatalf("other clients must not be throttled")
	}

	rl.idle = 0
	rl.Cleanup()
	if rl.size() != 0 {
		t.Fatalf("expected idle limiters to be dropped")
	}
}

func TestRateLimiterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, quietLogger())
	handler := rl.Handler(okHandler)

	throttled := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	if throttled != 48 {
		t.Fatalf("expected 48 throttled requests from one socket, got %d", throttled)
	}
	if rl.size() != 1 {
		t.Fatalf("expected a single limiter keyed on the peer, got %d", rl.size())
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	rl := NewRateLimiter(1, 1, quietLogger())
	if err := rl.TrustProxies([]string{"10.0.0.0/8", "192.0.2.1"}); err != nil {
		t.Fatalf("trust proxies: %v", err)
	}

	cases := []struct {
		remote, forwarded, want string
	}{
		{"10.0.0.9:5555", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"10.0.0.9:5555", "6.6.6.6, 203.0.113.7", "203.0.113.7"},
		{"192.0.2.1:80", "", "192.0.2.1"},
		{"198.51.100.9:4000", "203.0.113.7", "198.51.100.9"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := rl.clientIP(req); got != tc.want {
			t.Fatalf("%s via %q: expected %s, got %s", tc.remote, tc.forwarded, tc.want, got)
		}
	}

	if err := rl.TrustProxies([]string{"not-an-ip"}); err == nil {
		t.Fatalf("expected invalid proxy to be rejected")
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := NewCORSMiddleware([]string{"http://localhost:*", "https://app.puskata.com"}).Handler(okHandler)

	cases := map[string]bool{
		"http://localhost:8081":     true,
		"https://app.puskata.com":   true,
		"https://evil.example.com":  false,
		"http://localhost.evil.com": false,
	}
	for origin, allowed := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		got := rec.Header().Get("Access-Control-Allow-Origin") == origin
		if got != allowed {
			t.Fatalf("origin %s: expected allowed=%v", origin, allowed)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
}

func TestLoggingMiddlewareSetsTraceID(t *testing.T) {
	var traced string
	handler := LoggingMiddleware(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traced = logger.GetTraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if traced == "" || rec.Header().Get(TraceHeader) != traced {
		t.Fatalf("trace id not propagated: ctx=%q header=%q", traced, rec.Header().Get(TraceHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set(TraceHeader, "given-trace")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(TraceHeader) != "given-trace" {
		t.Fatalf("incoming trace id should be reused")
	}
}
