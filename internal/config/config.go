package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	// Backend
	APIBaseURL string
	WSURL      string

	// Client identity
	DeviceName string

	// Credential persistence
	StateDir   string
	Production bool

	// HTTP
	HTTPTimeout time.Duration

	// Realtime
	FetchLimit int
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8000/api/v1"),
		WSURL:       getEnv("WS_URL", "ws://localhost:8000/ws"),
		DeviceName:  getEnv("DEVICE_NAME", defaultDeviceName()),
		StateDir:    getEnv("STATE_DIR", defaultStateDir()),
		Production:  strings.ToLower(getEnv("APP_ENV", "development")) == "production",
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		FetchLimit:  getEnvInt("NOTIFICATION_FETCH_LIMIT", 20),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "janmanch")
	}
	return ".janmanch"
}

func defaultDeviceName() string {
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown-device"
}
