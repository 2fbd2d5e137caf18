package clients

import (
	"os"
	"strconv"
	"time"
)

// ClientConfig holds tag API client settings loaded from environment
type ClientConfig struct {
	ServerURL string
	UserID    string
	Role      string
	Timeout   time.Duration
}

// LoadClientConfig loads client configuration from environment variables
func LoadClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: getEnvOrDefault("TAG_SERVER_URL", "http://localhost:8080"),
		UserID:    getEnvOrDefault("TAG_USER_ID", os.Getenv("USER")),
		Role:      os.Getenv("TAG_USER_ROLE"),
		Timeout:   time.Duration(getEnvIntOrDefault("TAG_CLIENT_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Helper to get env with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
