package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Engine       EngineConfig
	Sweep        SweepConfig
	Ingest       IngestConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters for the admin API.
type AuthConfig struct {
	JWTSecret string
}

// EngineConfig tunes rule evaluation.
type EngineConfig struct {
	MaxConcurrentTickets int
	RuleCacheTTLSeconds  int
}

// SweepConfig tunes the periodic jobs.
type SweepConfig struct {
	HourlyCheckIntervalMinutes int
	SLASweepIntervalSeconds    int
	BatchSize                  int
	DefaultWarningPercent      int
}

// IngestConfig configures the ticket event stream consumer.
type IngestConfig struct {
	Stream       string
	Group        string
	Consumer     string
	BatchSize    int64
	BlockSeconds int
}

// NotificationConfig configures the outbound notification queue.
type NotificationConfig struct {
	Stream string
	MaxLen int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "automation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8081"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Engine: EngineConfig{
			MaxConcurrentTickets: getEnvAsInt("ENGINE_MAX_CONCURRENT_TICKETS", 8),
			RuleCacheTTLSeconds:  getEnvAsInt("ENGINE_RULE_CACHE_TTL_SECONDS", 10),
		},
		Sweep: SweepConfig{
			HourlyCheckIntervalMinutes: getEnvAsInt("SWEEP_HOURLY_CHECK_INTERVAL_MINUTES", 60),
			SLASweepIntervalSeconds:    getEnvAsInt("SWEEP_SLA_INTERVAL_SECONDS", 60),
			BatchSize:                  getEnvAsInt("SWEEP_BATCH_SIZE", 200),
			DefaultWarningPercent:      getEnvAsInt("SLA_DEFAULT_WARNING_PERCENT", 80),
		},
		Ingest: IngestConfig{
			Stream:       getEnv("INGEST_STREAM", "helpdesk:ticket-events"),
			Group:        getEnv("INGEST_GROUP", "automation-service"),
			Consumer:     getEnv("INGEST_CONSUMER", defaultConsumerName()),
			BatchSize:    int64(getEnvAsInt("INGEST_BATCH_SIZE", 32)),
			BlockSeconds: getEnvAsInt("INGEST_BLOCK_SECONDS", 5),
		},
		Notification: NotificationConfig{
			Stream: getEnv("NOTIFY_STREAM", "helpdesk:notifications"),
			MaxLen: int64(getEnvAsInt("NOTIFY_STREAM_MAX_LEN", 10000)),
		},
	}

	if cfg.Sweep.DefaultWarningPercent < 0 || cfg.Sweep.DefaultWarningPercent > 100 {
		return nil, fmt.Errorf("SLA_DEFAULT_WARNING_PERCENT must be within 0-100")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RuleCacheTTL returns the rule cache TTL duration.
func (e EngineConfig) RuleCacheTTL() time.Duration {
	if e.RuleCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(e.RuleCacheTTLSeconds) * time.Second
}

// HourlyCheckInterval returns the periodic trigger interval.
func (s SweepConfig) HourlyCheckInterval() time.Duration {
	if s.HourlyCheckIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.HourlyCheckIntervalMinutes) * time.Minute
}

// Block returns how long one consumer read blocks waiting for entries.
func (i IngestConfig) Block() time.Duration {
	if i.BlockSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(i.BlockSeconds) * time.Second
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "automation-1"
	}
	return host
}

// SLASweepInterval returns the SLA monitor interval.
func (s SweepConfig) SLASweepInterval() time.Duration {
	if s.SLASweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.SLASweepIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
