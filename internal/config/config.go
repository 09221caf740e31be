package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	OpenAI     OpenAIConfig
	Langfuse   LangfuseConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Evaluation EvaluationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8000"`
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
}

// OpenAIConfig holds chat-completion provider configuration.
type OpenAIConfig struct {
	APIKey       string        `envconfig:"OPENAI_API_KEY"`
	BaseURL      string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	DefaultModel string        `envconfig:"OPENAI_DEFAULT_MODEL" default:"gpt-3.5-turbo"`
	Timeout      time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
}

// LangfuseConfig holds tracing backend configuration.
type LangfuseConfig struct {
	PublicKey     string        `envconfig:"LANGFUSE_PUBLIC_KEY"`
	SecretKey     string        `envconfig:"LANGFUSE_SECRET_KEY"`
	Host          string        `envconfig:"LANGFUSE_HOST" default:"https://cloud.langfuse.com"`
	FlushInterval time.Duration `envconfig:"LANGFUSE_FLUSH_INTERVAL" default:"5s"`
	BatchSize     int           `envconfig:"LANGFUSE_BATCH_SIZE" default:"20"`
	FlushTimeout  time.Duration `envconfig:"LANGFUSE_FLUSH_TIMEOUT" default:"10s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"DEBUG" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// EvaluationConfig holds LLM-as-judge configuration.
type EvaluationConfig struct {
	JudgeModel       string  `envconfig:"EVAL_JUDGE_MODEL" default:"gpt-4o-mini"`
	JudgeTemperature float64 `envconfig:"EVAL_JUDGE_TEMPERATURE" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		OpenAI: OpenAIConfig{
			BaseURL:      "https://api.openai.com/v1",
			DefaultModel: "gpt-3.5-turbo",
			Timeout:      60 * time.Second,
		},
		Langfuse: LangfuseConfig{
			Host:          "https://cloud.langfuse.com",
			FlushInterval: 5 * time.Second,
			BatchSize:     20,
			FlushTimeout:  10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Evaluation: EvaluationConfig{
			JudgeModel:       "gpt-4o-mini",
			JudgeTemperature: 0,
		},
	}
}

// Validate checks that required credentials are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Langfuse.SecretKey == "" {
		missing = append(missing, "LANGFUSE_SECRET_KEY")
	}
	if c.Langfuse.PublicKey == "" {
		missing = append(missing, "LANGFUSE_PUBLIC_KEY")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}
