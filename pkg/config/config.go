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
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	Storage                 string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string // base64 encoded service account
	MetricsUser             string
	MetricsPass             string
	RateLimitRPS            float64
	RateLimitBurst          int
	ExpirySweepInterval     time.Duration
	CORSOrigins             []string
}

// Load reads the environment, after merging a .env file when one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		Storage:                 strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "thelittlethings"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		MetricsUser:             getEnv("METRICS_USER", ""),
		MetricsPass:             getEnv("METRICS_PASS", ""),
		CORSOrigins:             splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "30")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	if cfg.ExpirySweepInterval, err = time.ParseDuration(getEnv("EXPIRY_SWEEP_INTERVAL", "1h")); err != nil {
		return nil, fmt.Errorf("EXPIRY_SWEEP_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.PostgresConnStr == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
		c.JWTSecret = "supersecretjwtkey"
	}
	if c.ExpirySweepInterval <= 0 {
		return fmt.Errorf("EXPIRY_SWEEP_INTERVAL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
