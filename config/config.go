package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Payment     PaymentConfig
	Security    SecurityConfig
	Idempotency IdempotencyConfig
	Queue       QueueConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	// Empty DSN runs the till on in-memory stores.
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// PaymentConfig selects the provider and tunes the mock simulation.
type PaymentConfig struct {
	Provider      string // mock | stripe | paystack | flutterwave
	TokenExpiry   time.Duration
	MockLatency   time.Duration
	MockFraudRate float64
	MockFailRate  float64
}

type SecurityConfig struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	FraudWindow       time.Duration
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type QueueConfig struct {
	RetryInterval time.Duration
	MaxAttempts   int
	RetentionDays int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8099"),
			Env:          envOr("ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("DATABASE_DSN"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: envOr("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: 12 * time.Hour,
			Issuer:       "tillpay",
		},
		Payment: PaymentConfig{
			Provider:      envOr("PAYMENT_PROVIDER", "mock"),
			TokenExpiry:   15 * time.Minute,
			MockLatency:   300 * time.Millisecond,
			MockFraudRate: 0.02,
			MockFailRate:  0.08,
		},
		Security: SecurityConfig{
			MaxFailedAttempts: envInt("MAX_FAILED_ATTEMPTS", 3),
			LockoutDuration:   time.Duration(envInt("LOCKOUT_MINUTES", 30)) * time.Minute,
			FraudWindow:       time.Duration(envInt("FRAUD_WINDOW_MINUTES", 15)) * time.Minute,
		},
		Idempotency: IdempotencyConfig{
			TTL: 24 * time.Hour,
		},
		Queue: QueueConfig{
			RetryInterval: 30 * time.Second,
			MaxAttempts:   3,
			RetentionDays: 7,
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
