package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "http://localhost:8080"
	DefaultAppName    = "SMS Portal"
	DefaultTimeout    = 30 * time.Second
)

// Config holds the environment driven settings of the portal client.
type Config struct {
	APIBaseURL  string
	Debug       bool
	AppName     string
	SessionPath string
	Timeout     time.Duration
}

// Load reads an optional .env file from the working directory and then the
// process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIBaseURL: strings.TrimRight(getenv("SMS_API_URL"), "/"),
		Debug:      getenv("SMS_DEBUG") == "true",
		AppName:    getenv("SMS_APP_NAME"),
		Timeout:    DefaultTimeout,
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	if raw := getenv("SMS_API_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SMS_API_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("SMS_API_TIMEOUT must be positive, got %s", raw)
		}
		cfg.Timeout = d
	}

	cfg.SessionPath = getenv("SMS_SESSION_DB")
	if cfg.SessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.SessionPath = filepath.Join(home, ".sms-portal", "session.db")
	}
	return cfg, nil
}
