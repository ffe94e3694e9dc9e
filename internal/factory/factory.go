package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/battleship-go/internal/config"
	"github.com/mcoot/battleship-go/internal/dependencies/clock"
	"github.com/mcoot/battleship-go/internal/dependencies/random"
	"github.com/mcoot/battleship-go/internal/services/registry"
	"github.com/mcoot/battleship-go/internal/services/router"
	"github.com/mcoot/battleship-go/internal/services/session"
	"github.com/mcoot/battleship-go/internal/services/turn"
	"github.com/mcoot/battleship-go/internal/storage"
	"github.com/mcoot/battleship-go/internal/storage/memory"
	redisstorage "github.com/mcoot/battleship-go/internal/storage/redis"
	"github.com/mcoot/battleship-go/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageTypeMemory
	StorageTypeRedis  = config.StorageTypeRedis
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Arbiter           *turn.Arbiter
	SessionController *session.Controller
	Registry          *registry.Service
	Router            *router.Router
	Hub               *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RelaxTurns lets either player strike at any time
	RelaxTurns bool
	// NotifyDisconnect tells the remaining player when their opponent drops
	NotifyDisconnect bool
	// SendBuffer is the per-connection outbound queue length (optional)
	SendBuffer int
}

// FromEnv builds a factory Config from the server environment config
func FromEnv(cfg config.Config, logger *slog.Logger) Config {
	fc := Config{
		Logger:           logger,
		StorageType:      cfg.StorageType,
		RelaxTurns:       !cfg.EnforceTurns,
		NotifyDisconnect: cfg.NotifyDisconnect,
		SendBuffer:       cfg.SendBuffer,
	}
	if cfg.StorageType == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.SessionTTL = cfg.SessionTTL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	arbiter := turn.New(!cfg.RelaxTurns)
	sessionController := session.NewController(store, arbiter, clk, rnd, logger)
	reg := registry.New(logger)
	msgRouter := router.New(sessionController, reg, router.Config{NotifyDisconnect: cfg.NotifyDisconnect}, logger)
	hub := ws.NewHub(msgRouter, ws.Config{SendBuffer: cfg.SendBuffer}, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Arbiter:           arbiter,
		SessionController: sessionController,
		Registry:          reg,
		Router:            msgRouter,
		Hub:               hub,
	}
}

// Close disconnects every client and releases the storage backend
func (a *App) Close() error {
	a.Hub.Close()
	return a.Storage.Close()
}
