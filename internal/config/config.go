// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthMode selects which authentication agent handles unverified users.
type AuthMode string

const (
	// AuthModeOTP gates authentication behind an emailed one-time code.
	AuthModeOTP AuthMode = "otp"
	// AuthModeDirect authenticates immediately on a directory match and
	// sends a best-effort confirmation email afterwards.
	AuthModeDirect AuthMode = "direct"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	AppName  string
	DBPath   string
	AuthMode AuthMode

	// WhatsApp Business Cloud API.
	VerifyToken   string
	APIToken      string
	PhoneNumberID string
	AppSecret     string

	// External client database + OTP API.
	ExternalAPIBaseURL string
	ExternalAPITimeout time.Duration

	SMTP       SMTPConfig
	Transcript TranscriptConfig
}

// SMTPConfig holds confirmation-email delivery settings (direct auth mode).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// TranscriptConfig controls NDJSON conversation transcript logging.
type TranscriptConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AppName:            getEnv("APP_NAME", "WhatsApp Agent"),
		DBPath:             getEnv("DB_PATH", "./data/whatsapp_agent.db"),
		AuthMode:           AuthMode(strings.ToLower(getEnv("AUTH_MODE", string(AuthModeOTP)))),
		VerifyToken:        getEnv("WHATSAPP_VERIFY_TOKEN", "changeme"),
		APIToken:           getEnv("WHATSAPP_API_TOKEN", ""),
		PhoneNumberID:      getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		AppSecret:          getEnv("WHATSAPP_APP_SECRET", ""),
		ExternalAPIBaseURL: getEnv("EXTERNAL_API_BASE_URL", "http://localhost:8080/external/v1"),
		ExternalAPITimeout: getEnvDuration("EXTERNAL_API_TIMEOUT", 10*time.Second),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "noreply@example.com"),
		},
		Transcript: TranscriptConfig{
			Enabled:   getEnvBool("TRANSCRIPT_ENABLED", true),
			Dir:       getEnv("TRANSCRIPT_DIR", "./data/transcripts"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.AuthMode != AuthModeOTP && c.AuthMode != AuthModeDirect {
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeOTP, AuthModeDirect, c.AuthMode)
	}
	if c.ExternalAPIBaseURL == "" {
		return fmt.Errorf("EXTERNAL_API_BASE_URL cannot be empty")
	}
	if c.ExternalAPITimeout <= 0 {
		return fmt.Errorf("EXTERNAL_API_TIMEOUT must be > 0")
	}
	if c.Transcript.Enabled && c.Transcript.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_DIR cannot be empty when transcripts are enabled")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
