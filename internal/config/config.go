// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
	// SubmitPerMinute caps job submissions per user key; 0 disables limiting.
	SubmitPerMinute int `yaml:"submit_per_minute"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WorkerConfig struct {
	RelayURL     string        `yaml:"relay_url"`
	UserID       string        `yaml:"user_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Workers      int           `yaml:"workers"` // concurrent job processors
	// Delta batching: flush the pending buffer when it reaches
	// chunk_min_size runes or chunk_flush_interval has elapsed.
	ChunkFlushInterval time.Duration `yaml:"chunk_flush_interval"`
	ChunkMinSize       int           `yaml:"chunk_min_size"`
	// Per-day conversation transcripts land here.
	ConversationDir string `yaml:"conversation_dir"`
}

type AIConfig struct {
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
	OpenAIKey    string `yaml:"openai_key"`
	OpenAIModel  string `yaml:"openai_model"`
	GeminiKey    string `yaml:"gemini_key"`
	GeminiModel  string `yaml:"gemini_model"`
	MaxTokens    int    `yaml:"max_tokens"`    // completion cap per job
	PromptBudget int    `yaml:"prompt_budget"` // prompt tokens before context is trimmed
}

type WeatherConfig struct {
	Latitude        float64       `yaml:"latitude"`
	Longitude       float64       `yaml:"longitude"`
	Timezone        string        `yaml:"timezone"`
	Location        string        `yaml:"location"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Redis   RedisConfig   `yaml:"redis"`
	Worker  WorkerConfig  `yaml:"worker"`
	AI      AIConfig      `yaml:"ai"`
	Weather WeatherConfig `yaml:"weather"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Server.APIKey == "" {
		return nil, errors.New("server.api_key is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.SubmitPerMinute < 0 {
		cfg.Server.SubmitPerMinute = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Worker.UserID == "" {
		cfg.Worker.UserID = "default"
	}
	if cfg.Worker.RelayURL == "" {
		cfg.Worker.RelayURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = 300 * time.Millisecond
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 1
	}
	if cfg.Worker.ChunkFlushInterval <= 0 {
		cfg.Worker.ChunkFlushInterval = 60 * time.Millisecond
	}
	if cfg.Worker.ChunkMinSize <= 0 {
		cfg.Worker.ChunkMinSize = 32
	}
	if cfg.Worker.ConversationDir == "" {
		cfg.Worker.ConversationDir = "data/conversations"
	}
	if cfg.AI.OllamaModel == "" {
		cfg.AI.OllamaModel = "llama3.2"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 200
	}
	if cfg.AI.PromptBudget <= 0 {
		cfg.AI.PromptBudget = 2048
	}
	if cfg.Weather.Timezone == "" {
		cfg.Weather.Timezone = "America/Chicago"
	}
	if cfg.Weather.RefreshInterval <= 0 {
		cfg.Weather.RefreshInterval = 30 * time.Minute
	}
}
