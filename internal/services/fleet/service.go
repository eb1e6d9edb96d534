package fleet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

// Service owns ship placement on a player's own board
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "fleet_service")),
	}
}

// CreateFleet stores an empty board for a player who just took a seat
func (s *Service) CreateFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, mode model.GameMode, size int) (*model.Fleet, error) {
	f := model.NewFleet(gameID, playerID, mode, size)
	f.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveFleet(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) GetFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	return s.storage.GetFleet(ctx, gameID, playerID)
}

// PlaceShip places one ship. A zero length means the next unplaced length.
func (s *Service) PlaceShip(ctx context.Context, gameID model.GameID, playerID model.PlayerID, origin model.Position, length int, orientation model.Orientation) (*model.Fleet, error) {
	return s.update(ctx, gameID, playerID, func(f *model.Fleet) error {
		l := length
		if l == 0 {
			l = f.NextLength()
		}
		if l == 0 || !f.HasRemaining(l) {
			return fmt.Errorf("%w: %d", model.ErrNoShipRemaining, l)
		}
		cells, err := CanPlace(f, origin, l, orientation)
		if err != nil {
			return err
		}
		f.Place(cells)
		return nil
	})
}

// PlaceRandom places every remaining ship at random
func (s *Service) PlaceRandom(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	return s.update(ctx, gameID, playerID, func(f *model.Fleet) error {
		return PlaceRandomAll(f, s.random)
	})
}

// ResetPlacement removes every placed ship
func (s *Service) ResetPlacement(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	return s.update(ctx, gameID, playerID, func(f *model.Fleet) error {
		f.ResetPlacement()
		return nil
	})
}

// MarkReady locks the fleet in. Marking an already ready fleet is a no-op.
func (s *Service) MarkReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	f, err := s.storage.UpdateFleet(ctx, gameID, playerID, func(f *model.Fleet) error {
		if f.Ready {
			return nil
		}
		if !f.PlacementComplete() {
			return model.ErrFleetIncomplete
		}
		f.Ready = true
		f.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fleet ready",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
	)
	return f, nil
}

// update applies a placement change to an unready fleet
func (s *Service) update(ctx context.Context, gameID model.GameID, playerID model.PlayerID, fn storage.FleetMutator) (*model.Fleet, error) {
	return s.storage.UpdateFleet(ctx, gameID, playerID, func(f *model.Fleet) error {
		if f.Ready {
			return fmt.Errorf("%w: fleet is locked in", model.ErrInvalidPhase)
		}
		if err := fn(f); err != nil {
			return err
		}
		f.UpdatedAt = s.clock.Now()
		return nil
	})
}

type ServiceInterface interface {
	CreateFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, mode model.GameMode, size int) (*model.Fleet, error)
	GetFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	PlaceShip(ctx context.Context, gameID model.GameID, playerID model.PlayerID, origin model.Position, length int, orientation model.Orientation) (*model.Fleet, error)
	PlaceRandom(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	ResetPlacement(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	MarkReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error)
}

var _ ServiceInterface = (*Service)(nil)
