package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	app "github.com/puskata/library-service/internal/app"
	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/metrics"
	"github.com/puskata/library-service/internal/middleware"
	"github.com/puskata/library-service/pkg/logger"
)

// Options configure the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// AuthLimiter throttles login and register. Nil installs a default of
	// one attempt per second with a burst of five.
	AuthLimiter *middleware.RateLimiter
	Audit       *AuditLog
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *AuditLog
	log   *logger.Logger
}

// NewHandler returns the library REST API.
func NewHandler(application *app.Application, opts Options, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if opts.AuthLimiter == nil {
		opts.AuthLimiter = middleware.NewRateLimiter(1, 5, log)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	h := &handler{app: application, audit: opts.Audit, log: log}

	router := mux.NewRouter()
	router.Use(metrics.InstrumentHandler)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "Route not found"})
	})
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	throttled := api.PathPrefix("/auth").Subrouter()
	throttled.Use(opts.AuthLimiter.Handler)
	throttled.HandleFunc("/login", h.login).Methods(http.MethodPost)
	throttled.HandleFunc("/register", h.register).Methods(http.MethodPost)

	api.HandleFunc("/books", h.listBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/search", h.searchBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/category", h.booksByCategory).Methods(http.MethodGet)
	api.HandleFunc("/books/browse", h.browseBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/categories", h.categories).Methods(http.MethodGet)
	api.HandleFunc("/books/{id}", h.getBook).Methods(http.MethodGet)

	secured := api.NewRoute().Subrouter()
	secured.Use(middleware.RequireSession(application.Auth, log), h.noteUser)
	secured.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	secured.HandleFunc("/auth/session", h.session).Methods(http.MethodGet)
	secured.HandleFunc("/users/me", h.updateProfile).Methods(http.MethodPut)

	secured.HandleFunc("/loans/user/{userId}", h.userLoans).Methods(http.MethodGet)
	secured.HandleFunc("/loans/borrow", h.borrow).Methods(http.MethodPost)
	secured.HandleFunc("/loans/return/{loanId}", h.returnLoan).Methods(http.MethodPost)

	secured.HandleFunc("/wishlist/user/{userId}", h.userWishlist).Methods(http.MethodGet)
	secured.HandleFunc("/wishlist/add", h.addWishlist).Methods(http.MethodPost)
	secured.HandleFunc("/wishlist/toggle", h.toggleWishlist).Methods(http.MethodPost)
	secured.HandleFunc("/wishlist/check", h.checkWishlist).Methods(http.MethodGet)
	secured.HandleFunc("/wishlist/{id}", h.removeWishlist).Methods(http.MethodDelete)

	secured.HandleFunc("/bookshelf/{userId}", h.shelf).Methods(http.MethodGet)
	secured.HandleFunc("/bookshelf/{userId}/loans/{loanId}/return", h.shelfReturn).Methods(http.MethodPost)
	secured.HandleFunc("/bookshelf/{userId}/saved/{id}", h.shelfRemoveSaved).Methods(http.MethodDelete)

	admin := secured.NewRoute().Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/loans/{loanId}/approve", h.approveLoan).Methods(http.MethodPost)
	admin.HandleFunc("/loans/{loanId}/reject", h.rejectLoan).Methods(http.MethodPost)
	admin.HandleFunc("/admin/audit", h.auditTrail).Methods(http.MethodGet)

	var out http.Handler = router
	out = wrapWithAudit(out, opts.Audit)
	out = middleware.LoggingMiddleware(log)(out)
	out = middleware.NewCORSMiddleware(opts.AllowedOrigins).Handler(out)
	return out
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, "OK", map[string]string{"status": "ok"})
}

func (h *handler) noteUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := middleware.UserFromContext(r.Context()); ok {
			noteAuditUser(r.Context(), u)
		}
		next.ServeHTTP(w, r)
	})
}

// caller returns the signed-in user. Only valid behind RequireSession.
func caller(r *http.Request) user.User {
	u, _ := middleware.UserFromContext(r.Context())
	return u
}

// authorizeUser allows members to act on their own records and admins on
// anyone's.
func authorizeUser(r *http.Request, userID int64) error {
	u := caller(r)
	if u.ID == userID || u.IsAdmin() {
		return nil
	}
	return errForbidden
}

// targetUser resolves an optional user id, defaulting to the caller.
func targetUser(r *http.Request, requested int64) (int64, error) {
	if requested == 0 {
		return caller(r).ID, nil
	}
	if err := authorizeUser(r, requested); err != nil {
		return 0, err
	}
	return requested, nil
}

func (h *handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeOK(w, "Audit trail disabled", []AuditEntry{})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, invalid("Invalid limit"), "")
			return
		}
		limit = n
	}
	writeOK(w, "Audit trail fetched successfully", h.audit.Recent(limit))
}
