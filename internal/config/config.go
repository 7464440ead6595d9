package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8501"`

	ModelBackend    string `env:"MODEL_BACKEND"    envDefault:"huggingface"`
	ModelCheckpoint string `env:"MODEL_CHECKPOINT" envDefault:"t5-small"`
	HFAPIURL        string `env:"HF_API_URL"       envDefault:"https://api-inference.huggingface.co/models"`
	HFAPIToken      string `env:"HF_API_TOKEN"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL"`

	MaxConcurrentGenerations int `env:"MAX_CONCURRENT_GENERATIONS" envDefault:"2"`

	TranscriptLanguages      []string `env:"TRANSCRIPT_LANGUAGES"        envDefault:"en"`
	YouTubeRequestsPerSecond float64  `env:"YOUTUBE_REQUESTS_PER_SECOND" envDefault:"5"`

	History          bool          `env:"HISTORY"           envDefault:"true"`
	DBPath           string        `env:"DB_PATH"           envDefault:"db.sqlite"`
	HistoryLimit     int           `env:"HISTORY_LIMIT"     envDefault:"10"`
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" envDefault:"720h"`

	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	c.ModelBackend = strings.ToLower(strings.TrimSpace(c.ModelBackend))
	c.ModelCheckpoint = strings.TrimSpace(c.ModelCheckpoint)
	c.DBPath = strings.TrimSpace(c.DBPath)
	c.Token = strings.TrimSpace(c.Token)

	switch c.ModelBackend {
	case BackendHuggingFace:
		if c.ModelCheckpoint == "" {
			return fmt.Errorf("MODEL_CHECKPOINT is required for the %s backend", BackendHuggingFace)
		}
	case BackendOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the %s backend", BackendOpenAI)
		}
	default:
		return fmt.Errorf("MODEL_BACKEND must be %q or %q, got %q", BackendHuggingFace, BackendOpenAI, c.ModelBackend)
	}

	if c.MaxConcurrentGenerations <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_GENERATIONS must be positive, got %d", c.MaxConcurrentGenerations)
	}

	if c.YouTubeRequestsPerSecond < 0 {
		return fmt.Errorf("YOUTUBE_REQUESTS_PER_SECOND must not be negative, got %v", c.YouTubeRequestsPerSecond)
	}

	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative, got %d", c.HistoryLimit)
	}

	if c.HistoryRetention <= 0 {
		return fmt.Errorf("HISTORY_RETENTION must be positive, got %s", c.HistoryRetention)
	}

	return nil
}

// HistoryEnabled reports whether summaries are persisted.
func (c *Config) HistoryEnabled() bool {
	return c.History && c.DBPath != ""
}

// BotEnabled reports whether the Telegram shell should start.
func (c *Config) BotEnabled() bool {
	return c.Token != ""
}
