package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	WorkerBaseURL        string
	WorkerTimeout        time.Duration
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	BillingWebhookSecret string
	PostHogAPIKey        string
	PostHogHost          string
	GeoIPDBPath          string
	CORSAllowedOrigins   []string
	RateLimitPerMin      int
	PollInterval         time.Duration
	PollTimeout          time.Duration
	ExportDir            string
	MinIO                MinIOConfig
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
}

// MinIOConfig points the export sink at an object store. An empty endpoint
// keeps exports on the local filesystem.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether exports go to object storage.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		WorkerBaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("WORKER_BASE_URL")), "/"),
		WorkerTimeout:        time.Second * time.Duration(getEnvInt("WORKER_TIMEOUT_SECONDS", 60)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		BillingWebhookSecret: os.Getenv("BILLING_WEBHOOK_SECRET"),
		PostHogAPIKey:        os.Getenv("POSTHOG_API_KEY"),
		PostHogHost:          strings.TrimRight(getEnv("POSTHOG_HOST", "https://eu.posthog.com"), "/"),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		PollInterval:         time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 1000)),
		PollTimeout:          time.Second * time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", 180)),
		ExportDir:            getEnv("EXPORT_DIR", "./exports"),
		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    os.Getenv("MINIO_BUCKET"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", true),
		},
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.PollTimeout <= 0 {
		return nil, fmt.Errorf("POLL_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MinIO.Enabled() && cfg.MinIO.Bucket == "" {
		return nil, fmt.Errorf("MINIO_BUCKET is required when MINIO_ENDPOINT is set")
	}

	return cfg, nil
}

// RequireGateway checks the settings the gateway cannot start without.
func (c *Config) RequireGateway() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
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
