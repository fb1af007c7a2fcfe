/*
Package configs loads the application's settings from the environment.

A .env file in the working directory, when present, is loaded first; variables
already set in the environment take precedence over it.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

const (
	// MinPollInterval and MaxPollInterval bound the fallback re-poll period.
	MinPollInterval = 2 * time.Second
	MaxPollInterval = 5 * time.Second
)

// AppConfig contains every setting the application needs.
type AppConfig struct {
	// General Server Settings
	Environment    string
	Port           int
	AllowedOrigins []string
	JWTSecret      string

	// Store Settings
	StoreDriver    string
	StoreNamespace string
	SQLitePath     string
	DatabaseDSN    string
	MongoURI       string
	MongoDatabase  string

	// Sync Settings
	HeartbeatInterval time.Duration
	PollInterval      time.Duration

	// AdminNickname is the nickname that gets access to the stats page.
	AdminNickname string
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads the configuration from the environment (and .env), applying
// defaults and validating each value.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds an AppConfig from the given lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = withDefault(getenv("ENVIRONMENT"), "development")

	port, err := strconv.Atoi(withDefault(getenv("PORT"), "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the range %d-%d", port, 1024, 65535)
	}
	cfg.Port = port

	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment", cfg.Environment)
		}
		cfg.JWTSecret = "development_only_session_secret"
	}

	// --- Store Settings ---
	cfg.StoreNamespace = withDefault(getenv("STORE_NAMESPACE"), "satorugram")
	cfg.StoreDriver = strings.ToLower(withDefault(getenv("STORE_DRIVER"), DriverSQLite))

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		cfg.SQLitePath = withDefault(getenv("SQLITE_PATH"), "satorugram.db")
	case DriverPostgres:
		cfg.DatabaseDSN = getenv("DATABASE_URL")
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the %s store", cfg.StoreDriver)
		}
	case DriverMongo:
		cfg.MongoURI = getenv("MONGO_URI")
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI environment variable is required for the %s store", cfg.StoreDriver)
		}
		cfg.MongoDatabase = withDefault(getenv("MONGO_DATABASE"), cfg.StoreNamespace)
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	// --- Sync Settings ---
	cfg.HeartbeatInterval, err = time.ParseDuration(withDefault(getenv("HEARTBEAT_INTERVAL"), "5s"))
	if err != nil || cfg.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("invalid HEARTBEAT_INTERVAL environment variable %q", getenv("HEARTBEAT_INTERVAL"))
	}

	cfg.PollInterval, err = time.ParseDuration(withDefault(getenv("POLL_INTERVAL"), "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL environment variable: %w", err)
	}
	if cfg.PollInterval < MinPollInterval || cfg.PollInterval > MaxPollInterval {
		return nil, fmt.Errorf("POLL_INTERVAL %s is outside the range %s-%s", cfg.PollInterval, MinPollInterval, MaxPollInterval)
	}

	cfg.AdminNickname = withDefault(getenv("ADMIN_NICKNAME"), "Сатору")

	return cfg, nil
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
