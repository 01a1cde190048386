package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Polling configuration
	PollInterval   time.Duration
	ExportSchedule string // cron spec driving the lead queue export
	RequestsPerMin float64

	// Reddit API credentials (script-type app, client credentials grant)
	RedditClientID     string
	RedditClientSecret string

	// Stack Exchange API key (optional, raises the request quota)
	StackExchangeKey string

	// Storage configuration
	DBPath        string
	SeenSetPath   string
	SeenSetCap    int
	LeadQueuePath string
	LeadQueueSize int

	// Ruleset override file (YAML); empty means built-in defaults
	RulesPath string

	// Notification configuration
	DiscordWebhookURL string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		PollInterval:   time.Duration(getIntEnv("POLL_INTERVAL_SECONDS", 300)) * time.Second,
		ExportSchedule: getEnv("EXPORT_SCHEDULE", "*/10 * * * *"),
		RequestsPerMin: getFloatEnv("REQUESTS_PER_MINUTE", 30),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		StackExchangeKey:   getEnv("STACKEXCHANGE_KEY", ""),

		DBPath:        getEnv("DB_PATH", "lead_radar.db"),
		SeenSetPath:   getEnv("SEEN_SET_PATH", "seen_items.json"),
		SeenSetCap:    getIntEnv("SEEN_SET_CAP", 10000),
		LeadQueuePath: getEnv("LEAD_QUEUE_PATH", "lead_queue.json"),
		LeadQueueSize: getIntEnv("LEAD_QUEUE_SIZE", 50),

		RulesPath: getEnv("RULES_PATH", ""),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.PollInterval < time.Minute {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be at least 60")
	}

	if c.RequestsPerMin <= 0 {
		return fmt.Errorf("REQUESTS_PER_MINUTE must be positive")
	}

	if c.SeenSetCap < 1 {
		return fmt.Errorf("SEEN_SET_CAP must be at least 1")
	}

	if c.LeadQueueSize < 1 {
		return fmt.Errorf("LEAD_QUEUE_SIZE must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
