// Package config reads application configuration from environment
// variables with sane defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	MemoryDir    string
	LeadsLogPath string
	LeadCardsDir string

	PricingPath    string
	PromosPath     string
	PromoImagePath string

	TelegramBotToken string
	CallcenterChatID int64
	DebounceDelay    time.Duration

	AvitoClientID     string
	AvitoClientSecret string
	AvitoUserID       int64
	AvitoTokenPath    string
	AvitoPollInterval time.Duration
	AvitoTitles       string

	ManualWindow time.Duration

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	LeadEmailTo       string

	OllamaBaseURL string
	OllamaModel   string
	OllamaTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		MemoryDir:    getEnv("MEMORY_DIR", "data/memory"),
		LeadsLogPath: getEnv("LEADS_LOG_PATH", "data/leads.txt"),
		LeadCardsDir: getEnv("LEAD_CARDS_DIR", "data/lead_cards"),

		PricingPath:    getEnv("PRICING_PATH", "data/pricing_rules.json"),
		PromosPath:     getEnv("PROMOS_PATH", "data/promotions.json"),
		PromoImagePath: getEnv("PROMO_IMAGE_PATH", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		CallcenterChatID: getEnvAsInt64("CALLCENTER_CHAT_ID", 0),
		DebounceDelay:    getEnvAsDuration("DEBOUNCE_DELAY", 1200*time.Millisecond),

		AvitoClientID:     getEnv("AVITO_CLIENT_ID", ""),
		AvitoClientSecret: getEnv("AVITO_CLIENT_SECRET", ""),
		AvitoUserID:       getEnvAsInt64("AVITO_USER_ID", 0),
		AvitoTokenPath:    getEnv("AVITO_TOKEN_PATH", "data/avito_tokens.json"),
		AvitoPollInterval: getEnvAsDuration("AVITO_POLL_INTERVAL", 3*time.Second),
		AvitoTitles:       getEnv("AVITO_ALLOWED_TITLES", ""),

		ManualWindow: getEnvAsDuration("MANUAL_WINDOW", 6*time.Hour),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Leadbot"),
		LeadEmailTo:       getEnv("LEAD_EMAIL_TO", ""),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", ""),
		OllamaTimeout: getEnvAsDuration("OLLAMA_TIMEOUT", 60*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as an integer or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
