package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/malatesh-s-hulbanni-12/house-rental/pkg/config"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/kafka"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/middleware"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/tracing"
)

// ServiceName is reported in logs, metrics, traces and events.
const ServiceName = "house-rental-api"

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the rental API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server. PORT, when set by the hosting platform, wins over HTTP_PORT.
	HTTPPort     int   `env:"HTTP_PORT" envDefault:"5000"`
	PlatformPort int   `env:"PORT"`
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"52428800"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`

	// MongoDB
	MongoURI                    string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB                     string        `env:"MONGO_DB" envDefault:"house_rental"`
	MongoConnectTimeout         time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	MongoServerSelectionTimeout time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT" envDefault:"5s"`
	MongoSocketTimeout          time.Duration `env:"MONGO_SOCKET_TIMEOUT" envDefault:"45s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"rental"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"rental_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"house_rental"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"2"`

	// Redis listing cache
	RedisEnabled    bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost       string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	ListingCacheTTL time.Duration `env:"LISTING_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173,https://house-rental1.vercel.app,https://*.vercel.app" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Per-client throttling of login and feedback submission
	RateLimitEnabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	RateLimitTTL     time.Duration `env:"RATE_LIMIT_TTL" envDefault:"3m"`

	// Peers allowed to name the client in X-Forwarded-For / X-Real-IP
	TrustedProxies []string `env:"TRUSTED_PROXIES" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load rental config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load rental config: %w", err)
	}
	if cfg.PlatformPort != 0 {
		cfg.HTTPPort = cfg.PlatformPort
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case DriverPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when STORE_DRIVER=postgres")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when STORE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want mongo, postgres or memory)", c.StoreDriver)
	}
	if c.RedisEnabled && (c.RedisPort < 1 || c.RedisPort > 65535) {
		return fmt.Errorf("invalid Redis port: %d", c.RedisPort)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when RATE_LIMIT_ENABLED=true")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Mongo returns the MongoDB connection settings.
func (c *Config) Mongo() database.MongoConfig {
	cfg := database.DefaultMongoConfig()
	cfg.URI = c.MongoURI
	cfg.Database = c.MongoDB
	cfg.ConnectTimeout = c.MongoConnectTimeout
	cfg.ServerSelectionTimeout = c.MongoServerSelectionTimeout
	cfg.SocketTimeout = c.MongoSocketTimeout
	return cfg
}

// Postgres returns the PostgreSQL pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	cfg := database.DefaultPostgresConfig()
	cfg.Host = c.PostgresHost
	cfg.Port = c.PostgresPort
	cfg.User = c.PostgresUser
	cfg.Password = c.PostgresPass
	cfg.DBName = c.PostgresDB
	cfg.SSLMode = c.PostgresSSL
	cfg.MaxConns = c.DBMaxConns
	cfg.MinConns = c.DBMinConns
	return cfg
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Host = c.RedisHost
	cfg.Port = c.RedisPort
	cfg.Password = c.RedisPassword
	cfg.DB = c.RedisDB
	return cfg
}

// Kafka returns the producer settings.
func (c *Config) Kafka() kafka.ProducerConfig {
	return kafka.DefaultProducerConfig(c.KafkaBrokers)
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.Environment = c.Environment
	cfg.Enabled = c.OTELEnabled
	cfg.OTLPEndpoint = c.OTELEndpoint
	cfg.SampleRate = c.OTELSampleRate
	return cfg
}

// RateLimit returns the per-client limiter settings.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RPS:   c.RateLimitRPS,
		Burst: c.RateLimitBurst,
		TTL:   c.RateLimitTTL,

		TrustedProxies: c.TrustedProxies,
	}
}

// SlowQueryThreshold returns the slow query logging threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
