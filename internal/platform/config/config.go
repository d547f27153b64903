// Package config loads server configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// DefaultSigningKey is only acceptable outside production. Development
	// must be chosen explicitly; an unset ENVIRONMENT means production.
	DefaultSigningKey = "dev-secret-key-change-in-production"
)

// Session store backends.
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `env:"TENANTGATE_ADDR, default=:8080"`
	Environment    string        `env:"ENVIRONMENT, default=production"`
	LogLevel       string        `env:"LOG_LEVEL, default=info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=15s"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES, default=1048576"`
	SessionStore   string        `env:"SESSION_STORE, default=memory"`
	SeedDemoData   bool          `env:"SEED_DEMO_DATA, default=false"`

	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Federation FederationConfig
	Audit      AuditConfig
	Bootstrap  BootstrapConfig
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE, default=true"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE, default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS, default=2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT, default=3s"`
}

type AuthConfig struct {
	JWTSigningKey    string        `env:"JWT_SIGNING_KEY, default=dev-secret-key-change-in-production"`
	JWTIssuer        string        `env:"JWT_ISSUER, default=tenantgate"`
	JWTAudience      string        `env:"JWT_AUDIENCE, default=tenantgate-api"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL, default=15m"`
	SessionTTL       time.Duration `env:"SESSION_TTL, default=24h"`
	SessionRetention time.Duration `env:"SESSION_RETENTION, default=168h"`
	CleanupInterval  time.Duration `env:"SESSION_CLEANUP_INTERVAL, default=1h"`
	LoginRatePerMin  int           `env:"LOGIN_RATE_PER_MINUTE, default=10"`
	LoginBurst       int           `env:"LOGIN_BURST, default=5"`

	// DevOverrides maps an override identifier to "role" or "role@tenant-slug".
	// Honoured only when Environment is development.
	DevOverrides map[string]string `env:"DEV_OVERRIDES"`
}

type FederationConfig struct {
	Provider     string `env:"FEDERATION_PROVIDER, default=google"`
	PublicKeyPEM string `env:"FEDERATION_PUBLIC_KEY"`
	Issuer       string `env:"FEDERATION_ISSUER"`
	Audience     string `env:"FEDERATION_AUDIENCE"`
}

// AuditConfig controls where audit events go. With a database they are
// written to the outbox and relayed to Kafka when brokers are configured.
type AuditConfig struct {
	KafkaBrokers       []string      `env:"AUDIT_KAFKA_BROKERS"`
	KafkaTopic         string        `env:"AUDIT_KAFKA_TOPIC, default=tenantgate.audit"`
	BufferSize         int           `env:"AUDIT_BUFFER_SIZE, default=1024"`
	OutboxPollInterval time.Duration `env:"AUDIT_OUTBOX_POLL_INTERVAL, default=500ms"`
	OutboxBatchSize    int           `env:"AUDIT_OUTBOX_BATCH_SIZE, default=100"`
	OutboxRetention    time.Duration `env:"AUDIT_OUTBOX_RETENTION, default=168h"`
}

// BootstrapConfig creates the first super admin on startup when set.
type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	DemoPassword  string `env:"DEMO_PASSWORD, default=demo-password"`
}

// FromEnv builds and validates a Server config from the process environment.
func FromEnv(ctx context.Context) (*Server, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Server, error) {
	var cfg Server
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether developer conveniences such as dev overrides may be enabled.
func (s *Server) IsDevelopment() bool {
	return s.Environment == EnvDevelopment
}

// Validate rejects configurations that would be unsafe to run.
func (s *Server) Validate() error {
	var errs []error

	switch s.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT must be one of development, test, production; got %q", s.Environment))
	}

	switch s.SessionStore {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if s.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when SESSION_STORE=postgres"))
		}
	case SessionStoreRedis:
		if s.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory, postgres or redis; got %q", s.SessionStore))
	}

	if s.Auth.SessionTTL <= 0 || s.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL and ACCESS_TOKEN_TTL must be positive"))
	}
	if s.Auth.AccessTokenTTL > s.Auth.SessionTTL {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must not exceed SESSION_TTL"))
	}

	if s.Bootstrap.AdminEmail != "" && len(s.Bootstrap.AdminPassword) < 12 {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_PASSWORD must be at least 12 characters"))
	}

	for ident, target := range s.Auth.DevOverrides {
		if strings.TrimSpace(ident) == "" || strings.TrimSpace(target) == "" {
			errs = append(errs, errors.New("DEV_OVERRIDES entries must be identifier:role[@tenant-slug]"))
			break
		}
	}

	if s.Environment == EnvProduction {
		if s.Auth.JWTSigningKey == DefaultSigningKey || len(s.Auth.JWTSigningKey) < 32 {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set to a 32+ byte secret in production"))
		}
		if len(s.Auth.DevOverrides) > 0 {
			errs = append(errs, errors.New("DEV_OVERRIDES must not be set in production"))
		}
		if s.SessionStore == SessionStoreMemory {
			errs = append(errs, errors.New("SESSION_STORE=memory is not allowed in production"))
		}
		if s.SeedDemoData {
			errs = append(errs, errors.New("SEED_DEMO_DATA must be false in production"))
		}
	}

	return errors.Join(errs...)
}
