package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"claimdesk/internal/fraud"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config collects every environment-driven setting. Fraud thresholds are
// product policy and deliberately tunable without a rebuild.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr    string // empty disables the Redis notification sink
	RedisChannel string

	FetchTimeout   time.Duration
	ResyncInterval time.Duration

	Fraud fraud.Config
}

// Load reads configs/.env if present and resolves every setting with its
// default.
func Load() Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "postgres"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisChannel:   getEnv("REDIS_NOTIFY_CHANNEL", "claimdesk:notifications"),
		FetchTimeout:   getDuration("FETCH_TIMEOUT", 5*time.Second),
		ResyncInterval: getDuration("RESYNC_INTERVAL", 5*time.Minute),
		Fraud:          fraud.DefaultConfig(),
	}

	cfg.Fraud.HighRiskThreshold = getInt("FRAUD_HIGH_RISK_THRESHOLD", cfg.Fraud.HighRiskThreshold)
	cfg.Fraud.DuplicateWindow = getDuration("FRAUD_DUPLICATE_WINDOW", cfg.Fraud.DuplicateWindow)
	if rate := os.Getenv("TAX_RATE"); rate != "" {
		if parsed, err := decimal.NewFromString(rate); err == nil {
			cfg.Fraud.TaxRate = parsed
		}
	}

	return cfg
}

// DSN assembles the postgres connection string.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
