// Package runtime turns configuration into a running library server.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	app "github.com/puskata/library-service/internal/app"
	"github.com/puskata/library-service/internal/app/httpapi"
	"github.com/puskata/library-service/internal/app/latency"
	"github.com/puskata/library-service/internal/app/seed"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/internal/app/storage/postgres"
	"github.com/puskata/library-service/internal/config"
	"github.com/puskata/library-service/internal/middleware"
	"github.com/puskata/library-service/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	app     *app.Application
	handler http.Handler
	server  *http.Server
	limiter *middleware.RateLimiter
	db      *sql.DB
	redis   *session.RedisStore
	audit   *httpapi.ZapAuditSink
}

// Options adjust startup.
type Options struct {
	// Migrate applies pending schema migrations before serving.
	Migrate bool
	// PasswordCost overrides the bcrypt cost, mainly for tests.
	PasswordCost int
}

// NewApplication constructs the server from cfg. Postgres is used when
// DATABASE_URL is set and Redis sessions when REDIS_ADDR is set; otherwise
// state lives in memory.
func NewApplication(ctx context.Context, cfg *config.Config, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.New(logger.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format}).Component("puskata")
	}
	a := &Application{cfg: cfg, log: log}

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		if opts.Migrate {
			if err := postgres.Migrate(db); err != nil {
				a.close()
				return nil, err
			}
			log.Info("database migrations applied")
		}
		store := postgres.New(db)
		stores.Users, stores.Books, stores.Loans, stores.Wishlist = store, store, store, store
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	if cfg.Redis.Addr != "" {
		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = rs
		stores.Sessions = rs
	}

	application, err := app.New(stores, app.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		SessionTTL:   cfg.Auth.SessionTTL,
		LoanPeriod:   cfg.LoanPeriod(),
		Latency:      latency.New(cfg.Library.SimulateLatency),
		PasswordCost: opts.PasswordCost,
	}, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.app = application

	if err := a.seed(ctx, opts.PasswordCost); err != nil {
		a.close()
		return nil, err
	}

	sink, err := httpapi.NewZapAuditSink(cfg.Logging.AuditLogPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	a.audit = sink
	var auditSink httpapi.AuditSink
	if sink != nil {
		auditSink = sink
	}

	a.limiter = middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst, log.Component("ratelimit"))
	if err := a.limiter.TrustProxies(cfg.ProxyList()); err != nil {
		a.close()
		return nil, fmt.Errorf("configure rate limiter: %w", err)
	}
	a.handler = httpapi.NewHandler(application, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AuthLimiter:    a.limiter,
		Audit:          httpapi.NewAuditLog(500, auditSink),
	}, log.Component("http"))

	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return a, nil
}

func (a *Application) seed(ctx context.Context, cost int) error {
	doc, err := seed.Load(a.cfg.Library.SeedPath)
	if err != nil {
		return err
	}
	s := a.app.Stores
	_, err = seed.Apply(ctx, doc, seed.Stores{
		Users:    s.Users,
		Books:    s.Books,
		Loans:    s.Loans,
		Wishlist: s.Wishlist,
	}, cost, a.log.Component("seed"))
	return err
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// App exposes the composed services.
func (a *Application) App() *app.Application {
	return a.app
}

// Run serves HTTP until ctx is cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled or the listener fails.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.limiter.StartCleanup(ctx, 5*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server and releases connections.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *Application) close() {
	if a.audit != nil {
		_ = a.audit.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
