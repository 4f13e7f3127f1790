package cli

import (
	"os"
	"strings"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("CHESSDUEL_SERVER", "http://localhost:8080"),
		Timeout:   30 * time.Second,
		Output:    "text",
		Verbose:   false,
	}
}

// WebSocketURL derives the realtime endpoint from the server URL
func (c *Config) WebSocketURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
