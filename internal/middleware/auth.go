package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/pkg/logger"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// SessionResolver restores the session behind a bearer token.
type SessionResolver interface {
	Session(ctx context.Context, token string) (session.Session, error)
}

// RequireSession rejects requests without a live bearer session and puts the
// session user on the request context.
func RequireSession(sessions SessionResolver, log *logger.Logger) mux.MiddlewareFunc {
	if log == nil {
		log = logger.NewDefault("auth-middleware")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeFailure(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			sess, err := sessions.Session(r.Context(), token)
			if err != nil {
				log.WithContext(r.Context()).WithError(err).Debug("session lookup failed")
				writeFailure(w, http.StatusUnauthorized, "Session expired, please sign in again")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, sess.User)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets only admin sessions through. It must run after
// RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		if !u.IsAdmin() {
			writeFailure(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserFromContext returns the signed-in user.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey).(user.User)
	return u, ok
}

// TokenFromContext returns the bearer token of the current session.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
