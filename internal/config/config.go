package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/wishlist/pkg/config"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the wishlist service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"WISHLIST_HTTP_PORT" envDefault:"8015"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"wishlist"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"wishlist_secret"`
	PostgresDB   string `env:"WISHLIST_DB_NAME" envDefault:"wishlist"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Connection pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"30"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"5"`

	// Store timeouts and retry. DBOperationTimeout bounds every store call,
	// pool acquisition included.
	DBConnectTimeout     time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	DBStatementTimeout   time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"10s"`
	DBOperationTimeout   time.Duration `env:"DB_OPERATION_TIMEOUT" envDefault:"3s"`
	DBRetryAttempts      uint          `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	SlowQueryThresholdMs int           `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Membership cache
	CacheEnabled  bool          `env:"CACHE_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT for the admin API
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTTokenExpiry time.Duration `env:"JWT_TOKEN_EXPIRY" envDefault:"1h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// pprof is mounted only when at least one CIDR is configured.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pagination
	ListDefaultPageSize int `env:"LIST_DEFAULT_PAGE_SIZE" envDefault:"100"`
	ListMaxPageSize     int `env:"LIST_MAX_PAGE_SIZE" envDefault:"500"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load wishlist config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and, outside development, the JWT secret.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.DBMaxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be at least 1, got %d", c.DBMaxConns))
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns))
	}
	if c.DBOperationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DB_OPERATION_TIMEOUT must be positive, got %s", c.DBOperationTimeout))
	}
	if c.DBRetryAttempts < 1 {
		errs = append(errs, errors.New("DB_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive when the cache is enabled, got %s", c.CacheTTL))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must be set when Kafka is enabled"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %g", c.OTELSampleRate))
	}
	if c.ListDefaultPageSize < 1 {
		errs = append(errs, fmt.Errorf("LIST_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.ListDefaultPageSize))
	}
	if c.ListMaxPageSize < c.ListDefaultPageSize {
		errs = append(errs, fmt.Errorf("LIST_MAX_PAGE_SIZE (%d) must not be below LIST_DEFAULT_PAGE_SIZE (%d)", c.ListMaxPageSize, c.ListDefaultPageSize))
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment))
		} else if len(c.JWTSecret) < 32 {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret)))
		}
	}

	return errors.Join(errs...)
}
