package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	path := writeConfig(t, `
telegram:
  bot_token: ${TEST_BOT_TOKEN}
tools:
  ffmpeg: /usr/local/bin/ffmpeg
  timeout: 90s
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("bot token = %q", cfg.Telegram.BotToken)
	}
	if cfg.Tools.FFmpeg != "/usr/local/bin/ffmpeg" || cfg.Tools.Timeout != 90*time.Second {
		t.Errorf("tools = %+v", cfg.Tools)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{BotToken: "t"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" || cfg.Tools.Soffice != "soffice" {
		t.Errorf("tool defaults = %+v", cfg.Tools)
	}
	if cfg.Tools.Timeout != 5*time.Minute {
		t.Errorf("timeout = %s", cfg.Tools.Timeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Metrics.ListenAddr != ":9090" {
		t.Errorf("metrics addr = %q", cfg.Metrics.ListenAddr)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing-token error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
