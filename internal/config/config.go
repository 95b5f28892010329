package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	TransferTimeout         time.Duration
	TransferIdleTimeout     time.Duration
	CORSOrigins             []string
	RateLimitRPM            int

	// Upload engine
	UploadsDir   string
	CompletedDir string
	CatalogPath  string
	ChunkSize    int64
	MaxChunkSize int64

	// Session expiry
	SessionExpiry time.Duration
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 10*time.Minute),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		TransferTimeout:         getDuration("TRANSFER_TIMEOUT", 10*time.Minute),
		TransferIdleTimeout:     getDuration("TRANSFER_IDLE_TIMEOUT", 60*time.Second),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 0),

		UploadsDir:   getEnv("UPLOADS_DIR", "./uploads"),
		CompletedDir: getEnv("COMPLETED_DIR", "./completed"),
		CatalogPath:  getEnv("CATALOG_PATH", "./metadata_store.json"),
		ChunkSize:    getInt64("CHUNK_SIZE", 1024*1024),
		MaxChunkSize: getInt64("MAX_CHUNK_SIZE", 50*1024*1024),

		SessionExpiry: getDuration("SESSION_EXPIRY", 24*time.Hour),
		SweepInterval: getDuration("SWEEP_INTERVAL", 1*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.UploadsDir) == "" {
		return fmt.Errorf("UPLOADS_DIR cannot be empty")
	}

	if strings.TrimSpace(c.CompletedDir) == "" {
		return fmt.Errorf("COMPLETED_DIR cannot be empty")
	}

	if strings.TrimSpace(c.CatalogPath) == "" {
		return fmt.Errorf("CATALOG_PATH cannot be empty")
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}

	if c.MaxChunkSize < c.ChunkSize {
		return fmt.Errorf("MAX_CHUNK_SIZE must be at least CHUNK_SIZE")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.SessionExpiry <= 0 {
		return fmt.Errorf("SESSION_EXPIRY must be positive")
	}

	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	// Security warnings (non-fatal but logged).
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			slog.Warn("CORS_ORIGINS is set to wildcard '*' — set specific origins for production")
			break
		}
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
