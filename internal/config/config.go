// Package config loads and validates the bot configuration from YAML,
// expanding ${ENV} references so tokens never live in the file itself.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for mediamorph.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Tools    ToolsConfig    `yaml:"tools"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	// BotToken is the token from @BotFather. Usually supplied as
	// ${TELEGRAM_BOT_TOKEN}.
	BotToken string `yaml:"bot_token"`

	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// ToolsConfig locates the external conversion binaries.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	Soffice string `yaml:"soffice"`

	// Timeout bounds each external tool invocation.
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads a configuration file, expanding environment variable
// references before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration built entirely from defaults and the
// TELEGRAM_BOT_TOKEN environment variable, for running without a file.
func Default() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{BotToken: os.Getenv("TELEGRAM_BOT_TOKEN")},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.DownloadTimeout <= 0 {
		c.Telegram.DownloadTimeout = 2 * time.Minute
	}

	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if c.Tools.Soffice == "" {
		c.Tools.Soffice = "soffice"
	}
	if c.Tools.Timeout <= 0 {
		c.Tools.Timeout = 5 * time.Minute
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}

	return nil
}
