package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Service configuration
	Port     int
	LogLevel string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MinIO configuration
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	ReportBucket   string

	// Optional TOML file with interaction and batch tuning
	TuningFile string
	Tuning     Tuning
}

// Load reads .env when present, then the environment. Variables already set
// in the environment win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		ReportBucket:   getEnv("REPORT_BUCKET", "stockdesk-reports"),
		TuningFile:     os.Getenv("STOCKDESK_TUNING_FILE"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.Tuning = DefaultTuning()
	if cfg.TuningFile != "" {
		t, err := LoadTuning(cfg.TuningFile)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = *t
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.DatabaseURL, "postgresql://") && !strings.HasPrefix(c.DatabaseURL, "postgres://") {
		return fmt.Errorf("DATABASE_URL must start with postgresql:// or postgres://")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	return c.Tuning.Validate()
}

// String returns the config for logging, without credentials
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, LogLevel: %s, DB: %s, Redis: %s, Minio: %s, Tuning: %s}",
		c.Port, c.LogLevel, maskURL(c.DatabaseURL), c.RedisAddr, c.MinioEndpoint, c.TuningFile)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// maskURL masks credentials in URLs
func maskURL(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || scheme > at {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}
