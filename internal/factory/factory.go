package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/dependencies/ids"
	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/engine"
	"github.com/mcoot/fleetgame-go/internal/realtime"
	"github.com/mcoot/fleetgame-go/internal/services/auth"
	"github.com/mcoot/fleetgame-go/internal/services/fleet"
	"github.com/mcoot/fleetgame-go/internal/services/game"
	"github.com/mcoot/fleetgame-go/internal/services/lobby"
	"github.com/mcoot/fleetgame-go/internal/services/rematch"
	"github.com/mcoot/fleetgame-go/internal/services/turn"
	"github.com/mcoot/fleetgame-go/internal/storage"
	"github.com/mcoot/fleetgame-go/internal/storage/memory"
	redisstorage "github.com/mcoot/fleetgame-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Services
	FleetService       *fleet.Service
	TurnAuthority      *turn.Authority
	GameController     *game.Controller
	LobbyController    *lobby.Controller
	RematchCoordinator *rematch.Coordinator
	AuthService        *auth.Service

	// Live sessions and push
	HubManager *realtime.HubManager
	Engine     *engine.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

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

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), ids.New(), authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, idGen ids.Generator, authCfg auth.Config, logger *slog.Logger) *App {
	fleetService := fleet.New(store, clk, rnd, logger)
	turnAuthority := turn.NewAuthority(rnd)
	gameController := game.NewController(store, fleetService, turnAuthority, clk, idGen, logger)
	lobbyController := lobby.NewController(store, gameController, clk, rnd, idGen, logger)
	rematchCoordinator := rematch.NewCoordinator(store, lobbyController, clk, logger)
	authService := auth.New(store, clk, idGen, logger, authCfg)
	hubManager := realtime.NewHubManager(logger)
	presenter := realtime.NewPresenter(hubManager, logger)
	engineManager := engine.NewManager(store, gameController, rematchCoordinator, presenter, clk, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		IDs:                idGen,
		FleetService:       fleetService,
		TurnAuthority:      turnAuthority,
		GameController:     gameController,
		LobbyController:    lobbyController,
		RematchCoordinator: rematchCoordinator,
		AuthService:        authService,
		HubManager:         hubManager,
		Engine:             engineManager,
	}
}

// Close stops live sessions, disconnects push clients and releases the store
func (a *App) Close(ctx context.Context) error {
	err := a.Engine.Shutdown(ctx)
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}
