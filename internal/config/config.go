package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server ports
	APIPort  int
	SMTPAddr string
	SMTPHost string

	// Rules
	RulesDir string

	// Gmail
	GmailAuthDir string
	MaxFetch     int

	// Logging
	LogLevel string
	AppEnv   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// DATABASE_URL (default: local sqlite file)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "mailsift.db"
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// SMTP_ADDR (default: :2525)
	cfg.SMTPAddr = os.Getenv("SMTP_ADDR")
	if cfg.SMTPAddr == "" {
		cfg.SMTPAddr = ":2525"
	}

	// SMTP_HOST (default: localhost)
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "localhost"
	}

	// RULES_DIR (default: ./rules)
	cfg.RulesDir = os.Getenv("RULES_DIR")
	if cfg.RulesDir == "" {
		cfg.RulesDir = "./rules"
	}

	// GMAIL_AUTH_DIR (default: ~/.mailsift; empty HOME falls back to cwd)
	cfg.GmailAuthDir = os.Getenv("GMAIL_AUTH_DIR")
	if cfg.GmailAuthDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.GmailAuthDir = home + "/.mailsift"
	}

	// MAX_FETCH (default: 100)
	maxFetch := os.Getenv("MAX_FETCH")
	if maxFetch == "" {
		cfg.MaxFetch = 100
	} else {
		n, err := strconv.Atoi(maxFetch)
		if err != nil {
			return nil, fmt.Errorf("MAX_FETCH must be a valid integer: %w", err)
		}
		cfg.MaxFetch = n
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// APP_ENV (default: development)
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.MaxFetch <= 0 {
		return fmt.Errorf("MaxFetch must be positive")
	}
	if c.RulesDir == "" {
		return fmt.Errorf("RulesDir cannot be empty")
	}
	return nil
}

// SlogLevel maps the configured level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("smtp_addr", c.SMTPAddr),
		slog.String("rules_dir", c.RulesDir),
		slog.Int("max_fetch", c.MaxFetch),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
	)
}
