package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/coinpurse/wallet-sim/internal/ledger"
)

// Config carries every tunable the server reads from the environment.
// DatabaseURL and RedisAddr are optional: an empty DatabaseURL selects
// the in-memory ledger store, an empty RedisAddr disables the Redis
// proposal store and the alert queue.
type Config struct {
	Port            string
	DatabaseURL     string
	RedisAddr       string
	JWTSecret       string
	AdminKey        string
	InitialBalance  ledger.Amount
	ProposalTTL     time.Duration
	TOTPIssuer      string
	AlertWebhookURL string
}

// Load reads the environment, overlaying a .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     databaseURL(),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		AdminKey:        getEnv("ADMIN_KEY", ""),
		InitialBalance:  ledger.Coins(int64(getEnvInt("INITIAL_BALANCE", 1000))),
		ProposalTTL:     getEnvDuration("PROPOSAL_TTL", 24*time.Hour),
		TOTPIssuer:      getEnv("TOTP_ISSUER", "CoinPurse"),
		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
	}
}

// databaseURL prefers DATABASE_URL and otherwise assembles a DSN from
// the individual DB_* variables. Returns "" when neither is configured.
func databaseURL() string {
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	if os.Getenv("DB_HOST") == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "coinpurse"),
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
