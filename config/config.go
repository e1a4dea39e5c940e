package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gamenight/database"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// Connection pool sizing
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"0"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	// HTTP server configuration
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Identity provider webhook configuration
	WebhookSigningSecret string        `env:"WEBHOOK_SIGNING_SECRET"` // whsec_-prefixed base64 secret
	WebhookTolerance     time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`

	// Session token verification. The public key (PEM, RS256) wins over the shared secret (HS256).
	SessionJWTPublicKey string `env:"SESSION_JWT_PUBLIC_KEY"`
	SessionJWTSecret    string `env:"SESSION_JWT_SECRET"`
	SessionJWTIssuer    string `env:"SESSION_JWT_ISSUER"`

	// Subject ids issued by the identity provider start with this prefix. With
	// SUBJECT_ID_ANY set, the consolidator treats every user id as a subject id.
	SubjectIDPrefix string `env:"SUBJECT_ID_PREFIX" envDefault:"user_"`
	SubjectIDAny    bool   `env:"SUBJECT_ID_ANY" envDefault:"false"`

	// Signup announcements
	DiscordWebhookURL string        `env:"DISCORD_WEBHOOK_URL"`
	AnnounceTimeout   time.Duration `env:"ANNOUNCE_TIMEOUT" envDefault:"5s"`

	// NATS configuration
	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"gamenight.identity"`

	// OpenTelemetry configuration
	OTelEnabled        bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName    string        `env:"OTEL_SERVICE_NAME" envDefault:"gamenight"`
	OTelExporterType   string        `env:"OTEL_EXPORTER_TYPE" envDefault:"console"` // console, otlp or none
	OTelOTLPEndpoint   string        `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelExportInterval time.Duration `env:"OTEL_EXPORT_INTERVAL" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // text or json

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() (string, error) {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// PoolConfig returns the connection pool settings tagged with the calling component's name
func (c *Config) PoolConfig(component string) database.PoolConfig {
	return database.PoolConfig{
		ApplicationName: c.OTelServiceName + "-" + component,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
		ConnectTimeout:  c.DBConnectTimeout,
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return &config, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:           ":0",
		WebhookTolerance:   5 * time.Minute,
		SubjectIDPrefix:    "user_",
		AnnounceTimeout:    time.Second,
		NATSSubjectPrefix:  "gamenight.identity",
		OTelServiceName:    "gamenight-test",
		OTelExporterType:   "none",
		OTelExportInterval: 30 * time.Second,
		LogLevel:           "debug",
		LogFormat:          "text",
		Environment:        "test",
	}
}
