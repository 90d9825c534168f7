package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	// Rule table documents.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// Event log location.
	LogDir         string `env:"LOG_DIR" envDefault:"./logs"`
	LogFallbackDir string `env:"LOG_FALLBACK_DIR" envDefault:"/tmp/critfumble"`
	LogFile        string `env:"LOG_FILE" envDefault:"narrative_dice_log.jsonl"`

	// Optional geolocation cache; empty disables it.
	RedisURL string `env:"REDIS_URL"`

	GeoAPIURL   string        `env:"GEO_API_URL" envDefault:"http://ip-api.com/json"`
	GeoTimeout  time.Duration `env:"GEO_TIMEOUT" envDefault:"2s"`
	GeoCacheTTL time.Duration `env:"GEO_CACHE_TTL" envDefault:"24h"`

	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.GeoTimeout <= 0 {
		return nil, fmt.Errorf("GEO_TIMEOUT must be positive, got %s", cfg.GeoTimeout)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	return &cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
