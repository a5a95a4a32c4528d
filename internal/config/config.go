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
	defaultAppName          = "BankingLedger"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultWithdrawalsLimit = 10
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	withdrawalsEnvVar       = "WITHDRAWALS_PER_MINUTE"
	autoMigrateEnvVar       = "AUTO_MIGRATE"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName              string
	AppEnv               string
	Port                 string
	LogLevel             string
	DatabaseURL          string
	RedisURL             string
	KafkaBrokers         []string
	KafkaTopic           string
	ShutdownPeriod       time.Duration
	IdempotencyTTL       time.Duration
	WithdrawalsPerMinute int
	AutoMigrate          bool
}

// Load reads configuration values from the environment and populates a Config instance.
// Values from a .env file in the working directory are used for variables not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:              getEnv("APP_NAME", defaultAppName),
		AppEnv:               getEnv("APP_ENV", defaultAppEnv),
		Port:                 getEnv("PORT", defaultPort),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:           os.Getenv("KAFKA_TOPIC"),
		ShutdownPeriod:       defaultShutdownDelay,
		IdempotencyTTL:       defaultIdempotencyTTL,
		WithdrawalsPerMinute: defaultWithdrawalsLimit,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv(withdrawalsEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", withdrawalsEnvVar, err)
		}
		cfg.WithdrawalsPerMinute = n
	}

	if v := os.Getenv(autoMigrateEnvVar); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", autoMigrateEnvVar, err)
		}
		cfg.AutoMigrate = b
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local development environment, where
// in-memory stores stand in for PostgreSQL.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
