package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Budget    BudgetConfig
	Stream    StreamConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// AllowAllOrigins reports whether CORS_ORIGINS contains "*".
func (s ServerConfig) AllowAllOrigins() bool {
	for _, origin := range s.CORSOrigins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// BudgetConfig holds the default attention pool capacities.
type BudgetConfig struct {
	MaxScreen    float64 `envconfig:"ATTENTION_MAX_SCREEN" default:"100"`
	MaxAudio     float64 `envconfig:"ATTENTION_MAX_AUDIO" default:"10"`
	MaxCognitive float64 `envconfig:"ATTENTION_MAX_COGNITIVE" default:"3"`
}

// StreamConfig holds devtools stream and intent queue settings.
type StreamConfig struct {
	PollInterval time.Duration `envconfig:"INSPECT_POLL_INTERVAL" default:"1s"`
	QueueSize    int           `envconfig:"INTENT_QUEUE_SIZE" default:"64"`
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
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
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
		Budget: BudgetConfig{
			MaxScreen:    100,
			MaxAudio:     10,
			MaxCognitive: 3,
		},
		Stream: StreamConfig{
			PollInterval: time.Second,
			QueueSize:    64,
		},
	}
}
