package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "PaymentGateway"
	defaultAppEnv         = "development"
	defaultPort           = "8090"
	defaultLogLevel       = "info"
	defaultBankURL        = "http://localhost:8080/payments"
	defaultBankTimeout    = 5 * time.Second
	defaultShutdownDelay  = 10 * time.Second
	defaultRateLimit      = 60
	bankTimeoutSecondsVar = "BANK_TIMEOUT_SECONDS"
	bankTimeoutDurVar     = "BANK_TIMEOUT"
	shutdownSecondsVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationVar   = "SHUTDOWN_TIMEOUT"
	rateLimitVar          = "RATE_LIMIT_PER_MINUTE"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	APIKey         string
	BankURL        string
	BankTimeout    time.Duration
	RedisURL       string
	RateLimit      int
	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		APIKey:         os.Getenv("API_KEY"),
		BankURL:        getEnv("BANK_URL", defaultBankURL),
		RedisURL:       os.Getenv("REDIS_URL"),
		RateLimit:      defaultRateLimit,
		BankTimeout:    defaultBankTimeout,
		ShutdownPeriod: defaultShutdownDelay,
	}

	var err error
	if cfg.BankTimeout, err = durationFromEnv(bankTimeoutSecondsVar, bankTimeoutDurVar, defaultBankTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsVar, shutdownDurationVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(rateLimitVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", rateLimitVar, err)
		}
		cfg.RateLimit = n
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("API_KEY must be set")
	}
	if cfg.BankTimeout <= 0 {
		return Config{}, fmt.Errorf("bank timeout must be positive")
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

// durationFromEnv prefers the whole-seconds variable and falls back to a Go duration string.
func durationFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
