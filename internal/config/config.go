// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bizzytrack/backend/internal/security"
)

// ErrMissingSecret is returned by Load when neither JWT_SECRET nor JWT_SECRET_FILE is set.
// The server must not start without a signing secret.
var ErrMissingSecret = errors.New("config: JWT_SECRET or JWT_SECRET_FILE must be set")

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// DatabaseURL is the Postgres DSN. When empty it is assembled from the DB_* parts below.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      int    `mapstructure:"DB_PORT"`
	DBName      string `mapstructure:"DB_NAME"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`
	// DBMaxOpenConns and DBMaxIdleConns bound the shared connection pool.
	DBMaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime string `mapstructure:"DB_CONN_MAX_LIFETIME"`

	// JWTSecret is the HS256 signing secret. JWTSecretFile is read when JWTSecret is empty.
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTSecretFile string `mapstructure:"JWT_SECRET_FILE"`
	// JWTExpiresIn is the session token lifetime (e.g. "7d", "12h").
	JWTExpiresIn string `mapstructure:"JWT_EXPIRES_IN"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// AppTimezone is the fallback IANA zone for businesses without one.
	AppTimezone string `mapstructure:"APP_TIMEZONE"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFile enables rotated file output when set.
	LogFile string `mapstructure:"LOG_FILE"`

	// AuditQueueSize bounds the async audit queue; entries beyond it are dropped and counted.
	AuditQueueSize    int    `mapstructure:"AUDIT_QUEUE_SIZE"`
	AuditWorkers      int    `mapstructure:"AUDIT_WORKERS"`
	AuditWriteTimeout string `mapstructure:"AUDIT_WRITE_TIMEOUT"`

	// KafkaBrokers is a comma-separated broker list. When set, committed audit entries are mirrored to AuditKafkaTopic.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`
	// Worker-only: consumer group and Loki URL for the audit stream worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	LokiURL      string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint enables OpenTelemetry export when set (e.g. localhost:4317).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	CORSOrigins        string `mapstructure:"CORS_ORIGINS"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "bizzytrack")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_SECRET_FILE", "")
	v.SetDefault("JWT_EXPIRES_IN", "7d")
	v.SetDefault("JWT_ISSUER", "bizzytrack-api")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("AUDIT_QUEUE_SIZE", 1024)
	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_WRITE_TIMEOUT", "5s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "bizzytrack-audit")
	v.SetDefault("KAFKA_GROUP_ID", "bizzytrack-audit-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 300)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" && strings.TrimSpace(cfg.JWTSecretFile) == "" {
		return nil, ErrMissingSecret
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if _, err := time.LoadLocation(cfg.AppTimezone); err != nil {
		return nil, fmt.Errorf("config: APP_TIMEZONE %q: %w", cfg.AppTimezone, err)
	}
	if cfg.AuditQueueSize < 0 {
		return nil, errors.New("config: AUDIT_QUEUE_SIZE must not be negative")
	}
	if cfg.AuditWorkers <= 0 {
		cfg.AuditWorkers = 1
	}

	return &cfg, nil
}

// DSN returns DatabaseURL when set, otherwise a postgres:// URL built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	if c.DBPassword != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	} else {
		u.User = url.User(c.DBUser)
	}
	q := url.Values{}
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// TokenTTL parses JWTExpiresIn. Returns 7 days if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := security.ParseTTL(c.JWTExpiresIn)
	if err != nil || d <= 0 {
		return security.DefaultTokenTTL
	}
	return d
}

// ConnMaxLifetime parses DBConnMaxLifetime. Returns 30m if unset or invalid.
func (c *Config) ConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.DBConnMaxLifetime)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// AuditTimeout parses AuditWriteTimeout. Returns 5s if unset or invalid.
func (c *Config) AuditTimeout() time.Duration {
	d, err := time.ParseDuration(c.AuditWriteTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables the audit stream.
func (c *Config) KafkaBrokersList() []string {
	return splitList(c.KafkaBrokers)
}

// CORSOriginsList returns allowed CORS origins; "*" when unset.
func (c *Config) CORSOriginsList() []string {
	out := splitList(c.CORSOrigins)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
