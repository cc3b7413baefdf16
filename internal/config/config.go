package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultAttachmentMaxBytes is the attachment size ceiling when none is configured.
const DefaultAttachmentMaxBytes = 10 * 1024 * 1024

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig          `envconfig:"APP"`
	Postgres     PostgresConfig     `envconfig:"POSTGRES"`
	Redis        RedisConfig        `envconfig:"REDIS"`
	Logger       LoggerConfig       `envconfig:"LOG"`
	Auth         AuthConfig         `envconfig:"AUTH"`
	Storage      StorageConfig      `envconfig:"STORAGE"`
	Attachment   AttachmentConfig   `envconfig:"ATTACHMENT"`
	Metrics      MetricsConfig      `envconfig:"METRICS"`
	Notification NotificationConfig `envconfig:"NOTIFY"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name            string        `envconfig:"NAME" default:"support-ticket-service"`
	Env             string        `envconfig:"ENV" default:"development"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            string        `envconfig:"PORT" default:"8080"`
	Version         string        `envconfig:"VERSION" default:"dev"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string        `envconfig:"DSN"`
	MaxConns        int32         `envconfig:"MAX_CONNS" default:"10"`
	MinConns        int32         `envconfig:"MIN_CONNS" default:"2"`
	RunMigrations   bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	ConnMaxIdleTime time.Duration `envconfig:"CONN_MAX_IDLE" default:"30s"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFE" default:"5m"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Addr     string `envconfig:"ADDR" default:"127.0.0.1:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// AuthConfig defines how bearer tokens are verified.
type AuthConfig struct {
	Issuer       string        `envconfig:"ISSUER"`
	Audience     string        `envconfig:"AUDIENCE"`
	JWTSecret    string        `envconfig:"JWT_SECRET"`
	PublicKeyPEM string        `envconfig:"PUBLIC_KEY_PEM"`
	DevTokenTTL  time.Duration `envconfig:"DEV_TOKEN_TTL" default:"1h"`
}

// StorageConfig points at the S3-compatible bucket holding attachment bytes.
type StorageConfig struct {
	Endpoint   string        `envconfig:"ENDPOINT"`
	Region     string        `envconfig:"REGION" default:"us-east-1"`
	Bucket     string        `envconfig:"BUCKET"`
	AccessKey  string        `envconfig:"ACCESS_KEY"`
	SecretKey  string        `envconfig:"SECRET_KEY"`
	UseSSL     bool          `envconfig:"USE_SSL" default:"false"`
	PresignTTL time.Duration `envconfig:"PRESIGN_TTL" default:"15m"`
}

// AttachmentConfig bounds accepted uploads.
type AttachmentConfig struct {
	MaxBytes int64 `envconfig:"MAX_BYTES" default:"10485760"`
}

// MetricsConfig configures the prometheus listener.
type MetricsConfig struct {
	Addr string `envconfig:"ADDR" default:"0.0.0.0:9090"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `envconfig:"EMAIL_FROM" default:"noreply@example.com"`
	WebhookURL string `envconfig:"WEBHOOK_URL"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Configured reports whether any storage setting was provided.
func (s StorageConfig) Configured() bool {
	return s.Endpoint != "" || s.Bucket != "" || s.AccessKey != "" || s.SecretKey != ""
}
