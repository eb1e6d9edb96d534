package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/dependencies/ids"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/fleet"
	"github.com/mcoot/fleetgame-go/internal/services/turn"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

// errNotStartable rejects a start attempt that lost the race or came too early
var errNotStartable = errors.New("game cannot start yet")

// Controller drives a game from seating through placement, the shooting
// phase and the final result. Every write to shared fields is a
// compare-and-set against the store.
type Controller struct {
	storage storage.Storage
	fleets  *fleet.Service
	turns   *turn.Authority
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

func NewController(
	storage storage.Storage,
	fleets *fleet.Service,
	turns *turn.Authority,
	clock clock.Clock,
	ids ids.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		fleets:  fleets,
		turns:   turns,
		clock:   clock,
		ids:     ids,
		logger:  logger.With(slog.String("component", "game_controller")),
	}
}

// CreateGame stores a new game with players seated in the given order
func (c *Controller) CreateGame(ctx context.Context, id model.GameID, code model.LobbyCode, mode model.GameMode, size int, players []model.Player) (*model.Game, error) {
	now := c.clock.Now()
	game := &model.Game{
		ID:              id,
		LobbyCode:       code,
		Mode:            mode,
		BoardSize:       size,
		Status:          model.StatusWaiting,
		RematchRequests: make(map[model.PlayerID]bool),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, p := range players {
		game.Seats = append(game.Seats, model.Seat{Player: p, Slot: i, JoinedAt: now})
	}

	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	// A missing fleet is recreated on join, so the game goes first.
	for _, p := range players {
		if _, err := c.fleets.CreateFleet(ctx, id, p.ID, mode, size); err != nil {
			return nil, err
		}
	}

	c.logger.Info("game created",
		slog.String("game_id", string(id)),
		slog.String("lobby_code", string(code)),
		slog.String("mode", string(mode)),
		slog.Int("board_size", size),
		slog.Int("player_count", len(players)),
	)
	return game, nil
}

func (c *Controller) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, id)
}

// GetMatch returns the game together with both fleets
func (c *Controller) GetMatch(ctx context.Context, id model.GameID) (*model.Match, error) {
	return c.storage.GetMatch(ctx, id)
}

func (c *Controller) GetMoves(ctx context.Context, id model.GameID) ([]*model.Move, error) {
	return c.storage.GetMoves(ctx, id)
}

// JoinGame seats player in the first free slot. Joining again is a no-op.
func (c *Controller) JoinGame(ctx context.Context, id model.GameID, player model.Player) (*model.Game, error) {
	joined := false
	game, err := c.storage.UpdateGame(ctx, id, func(g *model.Game) error {
		joined = false
		if g.HasPlayer(player.ID) {
			return nil
		}
		if g.Status != model.StatusWaiting {
			return fmt.Errorf("%w: game already %s", model.ErrInvalidPhase, g.Status)
		}
		if g.IsFull() {
			return model.ErrLobbyFull
		}
		now := c.clock.Now()
		g.Seats = append(g.Seats, model.Seat{Player: player, Slot: len(g.Seats), JoinedAt: now})
		g.UpdatedAt = now
		joined = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := c.fleets.GetFleet(ctx, id, player.ID); errors.Is(err, model.ErrFleetNotFound) {
		if _, err := c.fleets.CreateFleet(ctx, id, player.ID, game.Mode, game.BoardSize); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if joined {
		c.logger.Info("player joined",
			slog.String("game_id", string(id)),
			slog.String("player_id", string(player.ID)),
			slog.Int("slot", game.Seat(player.ID).Slot),
		)
		c.publish(ctx, model.Event{Type: model.EventPlayerJoined, GameID: id, PlayerID: player.ID})
	}
	return game, nil
}

// PlaceShip places one ship on playerID's board
func (c *Controller) PlaceShip(ctx context.Context, id model.GameID, playerID model.PlayerID, origin model.Position, length int, orientation model.Orientation) (*model.Fleet, error) {
	if err := c.requirePlacing(ctx, id, playerID); err != nil {
		return nil, err
	}
	f, err := c.fleets.PlaceShip(ctx, id, playerID, origin, length, orientation)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, model.Event{Type: model.EventFleetUpdated, GameID: id, PlayerID: playerID, Cell: origin.String()})
	return f, nil
}

// PlaceRandom places every remaining ship of playerID at random
func (c *Controller) PlaceRandom(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	if err := c.requirePlacing(ctx, id, playerID); err != nil {
		return nil, err
	}
	f, err := c.fleets.PlaceRandom(ctx, id, playerID)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, model.Event{Type: model.EventFleetUpdated, GameID: id, PlayerID: playerID})
	return f, nil
}

// ResetPlacement clears playerID's board while it is not yet locked in
func (c *Controller) ResetPlacement(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	if err := c.requirePlacing(ctx, id, playerID); err != nil {
		return nil, err
	}
	f, err := c.fleets.ResetPlacement(ctx, id, playerID)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, model.Event{Type: model.EventFleetUpdated, GameID: id, PlayerID: playerID})
	return f, nil
}

// MarkReady locks in playerID's fleet and starts the match once both are ready
func (c *Controller) MarkReady(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error) {
	if err := c.requirePlacing(ctx, id, playerID); err != nil {
		return nil, err
	}
	if _, err := c.fleets.MarkReady(ctx, id, playerID); err != nil {
		return nil, err
	}
	c.publish(ctx, model.Event{Type: model.EventPlayerReady, GameID: id, PlayerID: playerID})

	return c.tryStart(ctx, id)
}

// tryStart moves a fully ready game to in_progress and picks the first mover
// in the same compare-and-set. Whichever side commits first wins; the other
// finds the game already started and returns it unchanged.
func (c *Controller) tryStart(ctx context.Context, id model.GameID) (*model.Game, error) {
	match, err := c.storage.UpdateMatch(ctx, id, func(m *model.Match) error {
		g := m.Game
		if g.Status != model.StatusWaiting || !g.IsFull() {
			return errNotStartable
		}
		for _, pid := range g.PlayerIDs() {
			if f := m.Fleet(pid); f == nil || !f.Ready {
				return errNotStartable
			}
		}
		now := c.clock.Now()
		g.Status = model.StatusInProgress
		if g.TurnPlayerID == "" {
			g.TurnPlayerID = c.turns.PickFirst(g.PlayerIDs())
		}
		g.StartedAt = now
		g.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errNotStartable) {
		return c.storage.GetGame(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	g := match.Game
	if err := c.storage.DeleteLobby(ctx, g.LobbyCode); err != nil {
		c.logger.Warn("failed to remove lobby",
			slog.String("lobby_code", string(g.LobbyCode)),
			slog.String("error", err.Error()),
		)
	}
	c.logger.Info("match started",
		slog.String("game_id", string(id)),
		slog.String("first_player", string(g.TurnPlayerID)),
	)
	c.publish(ctx, model.Event{Type: model.EventGameStarted, GameID: id, PlayerID: g.TurnPlayerID})
	return g, nil
}

func (c *Controller) requirePlacing(ctx context.Context, id model.GameID, playerID model.PlayerID) error {
	g, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if !g.HasPlayer(playerID) {
		return model.ErrNotInGame
	}
	if g.Status != model.StatusWaiting {
		return fmt.Errorf("%w: game is %s", model.ErrInvalidPhase, g.Status)
	}
	return nil
}

// publish notifies subscribers. The change is already committed, so a
// failure here is logged and otherwise ignored.
func (c *Controller) publish(ctx context.Context, event model.Event) {
	event.Timestamp = c.clock.Now()
	if err := c.storage.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish event",
			slog.String("game_id", string(event.GameID)),
			slog.String("event", string(event.Type)),
			slog.String("error", err.Error()),
		)
	}
}

type ControllerInterface interface {
	CreateGame(ctx context.Context, id model.GameID, code model.LobbyCode, mode model.GameMode, size int, players []model.Player) (*model.Game, error)
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	GetMatch(ctx context.Context, id model.GameID) (*model.Match, error)
	GetMoves(ctx context.Context, id model.GameID) ([]*model.Move, error)
	JoinGame(ctx context.Context, id model.GameID, player model.Player) (*model.Game, error)
	PlaceShip(ctx context.Context, id model.GameID, playerID model.PlayerID, origin model.Position, length int, orientation model.Orientation) (*model.Fleet, error)
	PlaceRandom(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	ResetPlacement(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	MarkReady(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error)
	FireShot(ctx context.Context, id model.GameID, shooter model.PlayerID, cell model.Position) (*ShotOutcome, error)
	UsePowerShot(ctx context.Context, id model.GameID, shooter model.PlayerID, center model.Position) (*ShotOutcome, error)
}

var _ ControllerInterface = (*Controller)(nil)
