package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Order sync modes.
const (
	SyncInline = "inline"
	SyncQueue  = "queue"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	RateLimit         int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"4"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	DemoPassword      string        `envconfig:"DEMO_PASSWORD" default:"printdesk"`
	SeedDemo          bool          `envconfig:"SEED_DEMO" default:"true"`
	MockLatency       time.Duration `envconfig:"MOCK_LATENCY" default:"0s"`
	PhaseRoleMatching string        `envconfig:"PHASE_ROLE_MATCHING" default:"strict"`

	OrderSyncMode       string `envconfig:"ORDER_SYNC_MODE" default:"inline"`
	WorkerConcurrency   int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	DashboardWarmupCron string `envconfig:"DASHBOARD_WARMUP_CRON" default:"*/10 * * * *"`

	Currency          string        `envconfig:"CURRENCY" default:"IDR"`
	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"5m"`
	IdempotencyTTL    time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`

	KafkaBrokers     string `envconfig:"KAFKA_BROKERS"`
	OrderEventsTopic string `envconfig:"ORDER_EVENTS_TOPIC" default:"printdesk.orders"`
}

// LoadConfig reads configuration from environment variables. A .env file in the
// working directory, or the file named by PRINTDESK_ENV_FILE, is loaded first
// without overriding variables already set.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("PRINTDESK_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	c.OrderSyncMode = strings.ToLower(strings.TrimSpace(c.OrderSyncMode))
	switch c.OrderSyncMode {
	case SyncInline, SyncQueue:
	default:
		return fmt.Errorf("ORDER_SYNC_MODE must be %q or %q, got %q", SyncInline, SyncQueue, c.OrderSyncMode)
	}
	c.PhaseRoleMatching = strings.ToLower(strings.TrimSpace(c.PhaseRoleMatching))
	switch c.PhaseRoleMatching {
	case "strict", "legacy":
	default:
		return fmt.Errorf("PHASE_ROLE_MATCHING must be strict or legacy, got %q", c.PhaseRoleMatching)
	}
	if c.MockLatency < 0 {
		return errors.New("MOCK_LATENCY must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
