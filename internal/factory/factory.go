package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/openbnet/presence/internal/dependencies/clock"
	"github.com/openbnet/presence/internal/dependencies/random"
	"github.com/openbnet/presence/internal/identity"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/credential"
	"github.com/openbnet/presence/internal/services/online"
	"github.com/openbnet/presence/internal/services/presence"
	"github.com/openbnet/presence/internal/services/registry"
	"github.com/openbnet/presence/internal/storage"
	"github.com/openbnet/presence/internal/storage/memory"
	redisstorage "github.com/openbnet/presence/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Credentials *credential.Service
	Allocator   *identity.Allocator
	Registry    *registry.Service
	Friends     online.FriendRegistry
	Online      *online.Coordinator
	Presence    *presence.Engine
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
	// Friends is the friend registry collaborator (optional)
	// If nil, an empty in-memory registry is used
	Friends online.FriendRegistry
	// Notifier delivers presence updates to live sessions (optional)
	// If nil, notifications are silently discarded
	Notifier online.Notifier
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
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

	friends := cfg.Friends
	if friends == nil {
		friends = online.NewMemoryFriends()
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = online.NotifierFunc(func(*online.Session, model.EntityID, model.FieldOperation) error {
			return nil
		})
	}

	return newWithDependencies(store, clock.New(), random.New(), friends, notifier, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	clk clock.Clock,
	rnd random.Random,
	friends online.FriendRegistry,
	notifier online.Notifier,
	logger *slog.Logger,
) *App {
	creds := credential.New(rnd)
	alloc := identity.NewAllocator(store)
	reg := registry.New(store, creds, clk, logger)
	coordinator := online.New(reg, friends, notifier, logger)
	engine := presence.New(reg, reg, coordinator, logger)

	return &App{
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Credentials: creds,
		Allocator:   alloc,
		Registry:    reg,
		Friends:     friends,
		Online:      coordinator,
		Presence:    engine,
	}
}
