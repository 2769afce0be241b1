package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Extract ExtractConfig
	Store   StoreConfig
	API     APIConfig
	CORS    CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type ExtractConfig struct {
	// BinaryPath is the yt-dlp executable. Resolved from PATH when empty.
	BinaryPath   string
	TempDir      string
	ProbeTimeout time.Duration
	// RunTimeout bounds one extraction process; a dropped client does not
	// cancel an in-flight extraction, this does.
	RunTimeout time.Duration
}

type StoreConfig struct {
	// ArtifactTTL is how long an unretrieved artifact survives before the
	// reaper removes it.
	ArtifactTTL    time.Duration
	ReaperInterval time.Duration
}

type APIConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "3000")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Extraction configuration
	cfg.Extract.BinaryPath = getEnv("YTDLP_PATH", "yt-dlp")
	cfg.Extract.TempDir = getEnv("TEMP_DIR", "temp")
	probeTimeout, err := time.ParseDuration(getEnv("PROBE_TIMEOUT", "45s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_TIMEOUT: %w", err)
	}
	cfg.Extract.ProbeTimeout = probeTimeout
	runTimeout, err := time.ParseDuration(getEnv("EXTRACT_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXTRACT_TIMEOUT: %w", err)
	}
	cfg.Extract.RunTimeout = runTimeout

	// Store configuration
	artifactTTL, err := time.ParseDuration(getEnv("ARTIFACT_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ARTIFACT_TTL: %w", err)
	}
	cfg.Store.ArtifactTTL = artifactTTL
	reaperInterval, err := time.ParseDuration(getEnv("REAPER_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REAPER_INTERVAL: %w", err)
	}
	cfg.Store.ReaperInterval = reaperInterval

	// API configuration
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.API.RateLimitWindow = rateLimitWindow

	// CORS configuration
	cfg.CORS = loadCORSConfig()

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(strings.TrimSpace(value), ",")
	}
	return defaultValue
}

// loadCORSConfig loads CORS settings from environment variables. The browser
// UI is served from a separate origin, so the API allows everything by
// default and narrows via env in production.
func loadCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:        getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "X-Correlation-ID",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}
}
