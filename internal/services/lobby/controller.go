package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/dependencies/ids"
	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/game"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

const (
	// LobbyCodeLength is the length of generated lobby codes
	LobbyCodeLength = 6
	// LobbyCodeAlphabet avoids characters that are easy to confuse
	LobbyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// maxCodeAttempts bounds retries when a generated code is already taken
	maxCodeAttempts = 16
)

// ErrNoFreeCode is returned when no unused lobby code could be generated
var ErrNoFreeCode = errors.New("could not allocate a lobby code")

// Controller creates lobbies and seats players into their games
type Controller struct {
	storage        storage.Storage
	gameController *game.Controller
	clock          clock.Clock
	random         random.Random
	ids            ids.Generator
	logger         *slog.Logger
}

func NewController(
	storage storage.Storage,
	gameController *game.Controller,
	clock clock.Clock,
	random random.Random,
	ids ids.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:        storage,
		gameController: gameController,
		clock:          clock,
		random:         random,
		ids:            ids,
		logger:         logger.With(slog.String("component", "lobby_controller")),
	}
}

// CreateLobby opens a lobby hosted by host. The host takes slot 0 of the new game.
func (c *Controller) CreateLobby(ctx context.Context, host model.Player, mode model.GameMode, size int) (*model.Lobby, *model.Game, error) {
	if _, err := model.ParseGameMode(string(mode)); err != nil {
		return nil, nil, err
	}
	if err := model.ValidateBoardSize(size); err != nil {
		return nil, nil, err
	}
	return c.open(ctx, []model.Player{host}, mode, size)
}

// CreateRematchLobby opens a lobby for a rematch of prev with both players
// already seated in their previous slots
func (c *Controller) CreateRematchLobby(ctx context.Context, prev *model.Game) (*model.Lobby, *model.Game, error) {
	players := make([]model.Player, len(prev.Seats))
	for _, seat := range prev.Seats {
		players[seat.Slot] = seat.Player
	}
	return c.open(ctx, players, prev.Mode, prev.BoardSize)
}

func (c *Controller) open(ctx context.Context, players []model.Player, mode model.GameMode, size int) (*model.Lobby, *model.Game, error) {
	now := c.clock.Now()
	lobby := &model.Lobby{
		GameID:    model.GameID(c.ids.NewID()),
		Mode:      mode,
		BoardSize: size,
		Status:    model.LobbyWaiting,
		HostID:    players[0].ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(players) >= model.MaxSeats {
		lobby.Status = model.LobbyReady
	}

	if err := c.reserveCode(ctx, lobby); err != nil {
		return nil, nil, err
	}

	g, err := c.gameController.CreateGame(ctx, lobby.GameID, lobby.Code, mode, size, players)
	if err != nil {
		_ = c.storage.DeleteLobby(ctx, lobby.Code)
		return nil, nil, err
	}

	c.logger.Info("lobby created",
		slog.String("lobby_code", string(lobby.Code)),
		slog.String("game_id", string(lobby.GameID)),
		slog.String("host_id", string(lobby.HostID)),
	)
	return lobby, g, nil
}

// reserveCode claims a fresh code with a create-if-absent write
func (c *Controller) reserveCode(ctx context.Context, lobby *model.Lobby) error {
	for i := 0; i < maxCodeAttempts; i++ {
		lobby.Code = model.LobbyCode(c.random.String(LobbyCodeLength, LobbyCodeAlphabet))
		err := c.storage.CreateLobby(ctx, lobby)
		if errors.Is(err, model.ErrLobbyExists) {
			continue
		}
		return err
	}
	return ErrNoFreeCode
}

func (c *Controller) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	return c.storage.GetLobby(ctx, code)
}

// JoinLobby seats player in the lobby's game. Joining twice is a no-op and a
// third player gets ErrLobbyFull.
func (c *Controller) JoinLobby(ctx context.Context, code model.LobbyCode, player model.Player) (*model.Lobby, *model.Game, error) {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	g, err := c.gameController.JoinGame(ctx, lobby.GameID, player)
	if err != nil {
		return nil, nil, fmt.Errorf("joining lobby %s: %w", code, err)
	}

	if g.IsFull() && lobby.Status != model.LobbyReady {
		updated, err := c.storage.UpdateLobby(ctx, code, func(l *model.Lobby) error {
			l.Status = model.LobbyReady
			l.UpdatedAt = c.clock.Now()
			return nil
		})
		switch {
		case err == nil:
			lobby = updated
		case errors.Is(err, model.ErrLobbyNotFound):
			// the game already started and retired its lobby
		default:
			return nil, nil, err
		}
	}
	return lobby, g, nil
}

type ControllerInterface interface {
	CreateLobby(ctx context.Context, host model.Player, mode model.GameMode, size int) (*model.Lobby, *model.Game, error)
	CreateRematchLobby(ctx context.Context, prev *model.Game) (*model.Lobby, *model.Game, error)
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	JoinLobby(ctx context.Context, code model.LobbyCode, player model.Player) (*model.Lobby, *model.Game, error)
}

var _ ControllerInterface = (*Controller)(nil)
