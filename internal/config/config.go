// Package config resolves runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Library  LibraryConfig
}

type ServerConfig struct {
	Addr               string `env:"HTTP_ADDR,default=:3000"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`
	TrustedProxies     string `env:"TRUSTED_PROXIES"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL,default=24h"`
	RateLimit  float64       `env:"AUTH_RATE_LIMIT,default=1"`
	RateBurst  int           `env:"AUTH_RATE_BURST,default=5"`
}

type LoggingConfig struct {
	Level        string `env:"LOG_LEVEL,default=info"`
	Format       string `env:"LOG_FORMAT,default=text"`
	AuditLogPath string `env:"AUDIT_LOG_PATH"`
}

type LibraryConfig struct {
	LoanPeriodDays  int    `env:"LOAN_PERIOD_DAYS,default=14"`
	SimulateLatency bool   `env:"SIMULATE_LATENCY,default=true"`
	SeedPath        string `env:"CATALOG_SEED_PATH"`
}

// Load reads an optional dotenv file and then decodes the environment.
// A missing envFile is ignored.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv decodes the current environment.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envdecode cannot.
func (c *Config) Validate() error {
	if c.Library.LoanPeriodDays <= 0 {
		return fmt.Errorf("LOAN_PERIOD_DAYS must be positive, got %d", c.Library.LoanPeriodDays)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Auth.SessionTTL)
	}
	if c.Auth.RateLimit <= 0 || c.Auth.RateBurst <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LoanPeriod returns the loan period as a duration.
func (c *Config) LoanPeriod() time.Duration {
	return time.Duration(c.Library.LoanPeriodDays) * 24 * time.Hour
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.Server.CORSAllowedOrigins)
}

// ProxyList splits TRUSTED_PROXIES on commas.
func (c *Config) ProxyList() []string {
	return splitList(c.Server.TrustedProxies)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
