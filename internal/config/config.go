package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory     = "memory"
	MetricsCacheTypeRedis      = "redis"
	MetricsCacheTypeRedisAside = "redis-aside"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool
	// Proxies whose X-Forwarded-For is trusted when resolving the client IP
	TrustedProxies []string

	// Logging
	LogLevel  string
	LogPretty bool

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver       string // "sqlite" or "postgres"
	DatabaseDSN          string // Database connection string (DSN or path)
	DBInitTimeout        time.Duration
	DefaultAdminPassword string // Empty means a random password is generated and logged once

	// Activation code settings
	ActivationCodeExpiration    time.Duration
	ActivationCodeRefreshBefore time.Duration // Player endpoint issues a fresh code below this remaining lifetime
	PendingBindingExpiration    time.Duration
	PollingInterval             int           // seconds, advertised to players
	OnlineWindow                time.Duration // Screen counts as online if seen within this window

	// Activation brute-force protection
	ActivationMaxAttempts   int
	ActivationBlockDuration time.Duration
	ActivationLimitStore    string // "memory" or "redis"

	// Request throttling (ulule/limiter)
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	LoginRateLimit           int // requests per minute
	ActivateRateLimit        int
	PlayerRateLimit          int

	// Redis (shared by rate limiting and the redis-backed caches)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string
	MetricsCacheClientTTL      time.Duration
	MetricsCacheSizePerConn    int // MB
	CacheInitTimeout           time.Duration

	// Audit
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "screenpair.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("ENVIRONMENT_PRODUCTION", false),
		TrustedProxies: getEnvSlice(
			"TRUSTED_PROXIES",
			[]string{"127.0.0.1", "::1"},
		),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 86400*7),

		DatabaseDriver:       driver,
		DatabaseDSN:          dsn,
		DBInitTimeout:        getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),

		ActivationCodeExpiration:    getEnvDuration("ACTIVATION_CODE_EXPIRATION", time.Hour),
		ActivationCodeRefreshBefore: getEnvDuration("ACTIVATION_CODE_REFRESH_BEFORE", 5*time.Minute),
		PendingBindingExpiration:    getEnvDuration("PENDING_BINDING_EXPIRATION", time.Hour),
		PollingInterval:             getEnvInt("POLLING_INTERVAL", 5),
		OnlineWindow:                getEnvDuration("SCREEN_ONLINE_WINDOW", 2*time.Minute),

		ActivationMaxAttempts:   getEnvInt("ACTIVATION_MAX_ATTEMPTS", 5),
		ActivationBlockDuration: getEnvDuration("ACTIVATION_BLOCK_DURATION", 15*time.Minute),
		ActivationLimitStore:    getEnv("ACTIVATION_LIMIT_STORE", RateLimitStoreMemory),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 10),
		ActivateRateLimit:        getEnvInt("ACTIVATE_RATE_LIMIT", 30),
		PlayerRateLimit:          getEnvInt("PLAYER_RATE_LIMIT", 120),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),
		MetricsCacheClientTTL:      getEnvDuration("METRICS_CACHE_CLIENT_TTL", 30*time.Second),
		MetricsCacheSizePerConn:    getEnvInt("METRICS_CACHE_SIZE_PER_CONN", 32),
		CacheInitTimeout:           getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),

		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),
	}
}

// Validate checks enum-valued and numeric settings.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER value: %q (must be %q or %q)",
			c.DatabaseDriver, DatabaseDriverSQLite, DatabaseDriverPostgres,
		)
	}
	if c.DatabaseDriver == DatabaseDriverPostgres && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
	}

	if err := validateStore("RATE_LIMIT_STORE", c.RateLimitStore); err != nil {
		return err
	}
	if err := validateStore("ACTIVATION_LIMIT_STORE", c.ActivationLimitStore); err != nil {
		return err
	}

	switch c.MetricsCacheType {
	case MetricsCacheTypeMemory, MetricsCacheTypeRedis, MetricsCacheTypeRedisAside:
	default:
		return fmt.Errorf(
			"invalid METRICS_CACHE_TYPE value: %q (must be %q, %q or %q)",
			c.MetricsCacheType,
			MetricsCacheTypeMemory,
			MetricsCacheTypeRedis,
			MetricsCacheTypeRedisAside,
		)
	}

	if c.ActivationMaxAttempts <= 0 {
		return fmt.Errorf("ACTIVATION_MAX_ATTEMPTS must be positive, got %d", c.ActivationMaxAttempts)
	}
	if c.ActivationBlockDuration <= 0 {
		return errors.New("ACTIVATION_BLOCK_DURATION must be positive")
	}
	if c.ActivationCodeExpiration <= 0 {
		return errors.New("ACTIVATION_CODE_EXPIRATION must be positive")
	}
	if c.ActivationCodeRefreshBefore >= c.ActivationCodeExpiration {
		return errors.New("ACTIVATION_CODE_REFRESH_BEFORE must be shorter than ACTIVATION_CODE_EXPIRATION")
	}
	return nil
}

func validateStore(name, value string) error {
	switch value {
	case RateLimitStoreMemory, RateLimitStoreRedis:
		return nil
	default:
		return fmt.Errorf(
			"invalid %s value: %q (must be %q or %q)",
			name, value, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}
}

// NeedsRedis reports whether any component is configured with a redis backend.
func (c *Config) NeedsRedis() bool {
	return (c.EnableRateLimit && c.RateLimitStore == RateLimitStoreRedis) ||
		c.ActivationLimitStore == RateLimitStoreRedis
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvSlice splits a comma separated value, trimming blanks.
func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := []string{}
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
