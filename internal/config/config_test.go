package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("AVITO_POLL_INTERVAL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.MemoryDir != "data/memory" {
		t.Fatalf("expected default memory dir, got %s", cfg.MemoryDir)
	}
	if cfg.DebounceDelay != 1200*time.Millisecond {
		t.Fatalf("expected default debounce, got %s", cfg.DebounceDelay)
	}
	if cfg.AvitoPollInterval != 3*time.Second {
		t.Fatalf("expected default avito poll interval, got %s", cfg.AvitoPollInterval)
	}
	if cfg.ManualWindow != 6*time.Hour {
		t.Fatalf("expected default manual window, got %s", cfg.ManualWindow)
	}
	if cfg.TelegramBotToken != "" {
		t.Fatalf("expected empty telegram token, got %s", cfg.TelegramBotToken)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CALLCENTER_CHAT_ID", "-1001234567890")
	t.Setenv("AVITO_USER_ID", "987654")
	t.Setenv("DEBOUNCE_DELAY", "2s")
	t.Setenv("MANUAL_WINDOW", "12h")
	t.Setenv("AVITO_ALLOWED_TITLES", "Потолки|Потолки люкс")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected redis override, got %s", cfg.RedisAddr)
	}
	if cfg.CallcenterChatID != -1001234567890 {
		t.Fatalf("expected chat id override, got %d", cfg.CallcenterChatID)
	}
	if cfg.AvitoUserID != 987654 {
		t.Fatalf("expected avito user override, got %d", cfg.AvitoUserID)
	}
	if cfg.DebounceDelay != 2*time.Second {
		t.Fatalf("expected debounce override, got %s", cfg.DebounceDelay)
	}
	if cfg.ManualWindow != 12*time.Hour {
		t.Fatalf("expected manual window override, got %s", cfg.ManualWindow)
	}
	if cfg.AvitoTitles != "Потолки|Потолки люкс" {
		t.Fatalf("expected titles override, got %s", cfg.AvitoTitles)
	}
}
