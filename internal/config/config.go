package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config is the server configuration read from the environment
type Config struct {
	Host   string `env:"BSGAME_HOST"`
	Port   int    `env:"BSGAME_PORT"    envDefault:"8080"`
	WSPath string `env:"BSGAME_WS_PATH" envDefault:"/ws"`

	ReadTimeout     time.Duration `env:"BSGAME_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"BSGAME_WRITE_TIMEOUT"    envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"BSGAME_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	StorageType string        `env:"BSGAME_STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string        `env:"BSGAME_REDIS_URL"`
	SessionTTL  time.Duration `env:"BSGAME_SESSION_TTL"  envDefault:"24h"`

	SendBuffer       int  `env:"BSGAME_SEND_BUFFER"       envDefault:"256"`
	EnforceTurns     bool `env:"BSGAME_ENFORCE_TURNS"     envDefault:"true"`
	NotifyDisconnect bool `env:"BSGAME_NOTIFY_DISCONNECT" envDefault:"true"`

	LogLevel string `env:"BSGAME_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags can't express
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("BSGAME_PORT out of range: %d", c.Port)
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("BSGAME_WS_PATH must start with /: %q", c.WSPath)
	}
	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("BSGAME_REDIS_URL required when BSGAME_STORAGE_TYPE=%s", StorageTypeRedis)
		}
	default:
		return fmt.Errorf("invalid BSGAME_STORAGE_TYPE %q: must be %q or %q", c.StorageType, StorageTypeMemory, StorageTypeRedis)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("BSGAME_SEND_BUFFER must be positive: %d", c.SendBuffer)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("BSGAME_SESSION_TTL must not be negative: %s", c.SessionTTL)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseLevel maps a level name onto a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid BSGAME_LOG_LEVEL %q: %w", name, err)
	}
	return level, nil
}
