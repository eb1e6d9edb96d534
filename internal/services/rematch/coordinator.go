package rematch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/lobby"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

var errAlreadyLinked = errors.New("rematch already linked")

// Coordinator turns two rematch requests into exactly one new game.
//
// A request is recorded with a compare-and-set on the finished game. The
// request that completes the pair also claims RematchStarted in the same
// write, so only one caller ever creates the new lobby. Everyone else picks
// up RematchGameID once the claimer links it.
type Coordinator struct {
	storage storage.Storage
	lobbies *lobby.Controller
	clock   clock.Clock
	logger  *slog.Logger
}

func NewCoordinator(storage storage.Storage, lobbies *lobby.Controller, clock clock.Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		storage: storage,
		lobbies: lobbies,
		clock:   clock,
		logger:  logger.With(slog.String("component", "rematch_coordinator")),
	}
}

// RequestRematch records playerID's request. The returned game carries
// RematchGameID once the new game exists.
func (c *Coordinator) RequestRematch(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error) {
	var claimed, added bool
	g, err := c.storage.UpdateGame(ctx, id, func(g *model.Game) error {
		claimed, added = false, false
		if g.Status != model.StatusFinished {
			return fmt.Errorf("%w: rematch needs a finished game", model.ErrInvalidPhase)
		}
		if !g.HasPlayer(playerID) {
			return model.ErrNotInGame
		}
		if g.RematchRequests == nil {
			g.RematchRequests = make(map[model.PlayerID]bool)
		}
		if !g.RematchRequests[playerID] {
			g.RematchRequests[playerID] = true
			added = true
		}
		if g.RematchAgreed() && !g.RematchStarted {
			g.RematchStarted = true
			claimed = true
		}
		if !added && !claimed {
			return nil
		}
		g.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		c.publish(ctx, model.Event{Type: model.EventRematchRequested, GameID: id, PlayerID: playerID})
	}
	if !claimed {
		return g, nil
	}
	return c.startRematch(ctx, g)
}

// startRematch runs only in the caller that claimed the rematch
func (c *Coordinator) startRematch(ctx context.Context, prev *model.Game) (*model.Game, error) {
	newLobby, newGame, err := c.lobbies.CreateRematchLobby(ctx, prev)
	if err != nil {
		c.releaseClaim(ctx, prev.ID)
		return nil, fmt.Errorf("creating rematch: %w", err)
	}

	linked, err := c.storage.UpdateGame(ctx, prev.ID, func(g *model.Game) error {
		if g.RematchGameID != "" {
			return errAlreadyLinked
		}
		g.RematchGameID = newGame.ID
		g.RematchLobbyCode = newLobby.Code
		g.UpdatedAt = c.clock.Now()
		return nil
	})
	if errors.Is(err, errAlreadyLinked) {
		return c.storage.GetGame(ctx, prev.ID)
	}
	if err != nil {
		c.logger.Error("failed to link rematch",
			slog.String("game_id", string(prev.ID)),
			slog.String("new_game_id", string(newGame.ID)),
			slog.String("error", err.Error()),
		)
		c.releaseClaim(ctx, prev.ID)
		return nil, fmt.Errorf("linking rematch: %w", err)
	}

	c.logger.Info("rematch created",
		slog.String("game_id", string(prev.ID)),
		slog.String("new_game_id", string(newGame.ID)),
		slog.String("lobby_code", string(newLobby.Code)),
	)
	c.publish(ctx, model.Event{Type: model.EventRematchReady, GameID: prev.ID, NewGameID: newGame.ID})
	return linked, nil
}

// releaseClaim lets a later request retry after a failed creation
func (c *Coordinator) releaseClaim(ctx context.Context, id model.GameID) {
	_, err := c.storage.UpdateGame(ctx, id, func(g *model.Game) error {
		if g.RematchGameID != "" {
			return errAlreadyLinked
		}
		g.RematchStarted = false
		return nil
	})
	if err != nil && !errors.Is(err, errAlreadyLinked) {
		c.logger.Error("failed to release rematch claim",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Coordinator) publish(ctx context.Context, event model.Event) {
	event.Timestamp = c.clock.Now()
	if err := c.storage.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish event",
			slog.String("game_id", string(event.GameID)),
			slog.String("event", string(event.Type)),
			slog.String("error", err.Error()),
		)
	}
}
