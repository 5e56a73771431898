// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSyncBaseURL = "http://localhost:9000"

	// SyncTimeout bounds every request to the commerce platform.
	SyncTimeout = 10 * time.Second
)

// Legacy variable names, in priority order.
var (
	SyncSecretEnvKeys  = []string{"MEDUSA_STRAPI_SYNC_SECRET", "STRAPI_SYNC_SECRET", "MEDUSA_SYNC_SECRET"}
	SyncBaseURLEnvKeys = []string{"MEDUSA_BACKEND_URL", "MEDUSA_BASE_URL", "MEDUSA_API_URL"}
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Log         LogConfig
	Sync        SyncConfig
	RateLimit   RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	// Empty allows every origin.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type LogConfig struct {
	Level  string
	Format string
}

// SyncConfig is resolved once per process and never mutated afterwards.
type SyncConfig struct {
	BaseURL  string
	Secret   string
	Disabled bool
	Timeout  time.Duration
}

type RateLimitConfig struct {
	WritesPerSecond float64
	Burst           int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "1337"),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "marketplace_pim"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Sync: LoadSyncConfig(),
		RateLimit: RateLimitConfig{
			WritesPerSecond: getEnvAsFloat("RATE_LIMIT_WRITES_PER_SECOND", 5),
			Burst:           getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
	}

	return config, config.Validate()
}

// LoadSyncConfig resolves the external sync target from the environment.
func LoadSyncConfig() SyncConfig {
	return SyncConfig{
		BaseURL:  ResolveBaseURL(firstNonEmptyEnv(SyncBaseURLEnvKeys)),
		Secret:   ResolveSecret(firstNonEmptyEnv(SyncSecretEnvKeys)),
		Disabled: strings.ToLower(strings.TrimSpace(os.Getenv("MEDUSA_SYNC_DISABLED"))) == "true",
		Timeout:  SyncTimeout,
	}
}

// ResolveSecret takes the first non-empty entry of a comma separated list.
func ResolveSecret(raw string) string {
	for _, entry := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// ResolveBaseURL trims the configured URL, falls back to the default and strips one trailing slash.
func ResolveBaseURL(raw string) string {
	configured := strings.TrimSpace(raw)
	if configured == "" {
		configured = DefaultSyncBaseURL
	}
	return strings.TrimSuffix(configured, "/")
}

func (c *Config) Validate() error {
	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync timeout must be positive")
	}

	return nil
}

// Warnings lists sync settings that are allowed but leave sync inoperative.
func (s SyncConfig) Warnings() []string {
	if s.Disabled || s.Secret != "" {
		return nil
	}
	return []string{"sync secret is not configured; commerce sync calls will be skipped"}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func firstNonEmptyEnv(keys []string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var values []string
	for _, entry := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
