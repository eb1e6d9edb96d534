package storage

import (
	"context"

	"github.com/mcoot/fleetgame-go/internal/model"
)

// Mutator functions are applied to a private copy of the stored record inside
// a compare-and-set. Returning an error rejects the update: nothing is
// written and the error is returned to the caller unchanged.
type (
	LobbyMutator func(lobby *model.Lobby) error
	GameMutator  func(game *model.Game) error
	FleetMutator func(fleet *model.Fleet) error
	MatchMutator func(match *model.Match) error
)

// Storage is the shared store both players' sessions converge on
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Lobby operations. CreateLobby fails with ErrLobbyExists if the code is taken.
	CreateLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	UpdateLobby(ctx context.Context, code model.LobbyCode, fn LobbyMutator) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, code model.LobbyCode) error

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	UpdateGame(ctx context.Context, id model.GameID, fn GameMutator) (*model.Game, error)

	// Fleet operations
	SaveFleet(ctx context.Context, fleet *model.Fleet) error
	GetFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	GetFleetsForGame(ctx context.Context, gameID model.GameID) ([]*model.Fleet, error)
	UpdateFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, fn FleetMutator) (*model.Fleet, error)

	// Match operations span the game, every fleet and the move log atomically
	GetMatch(ctx context.Context, gameID model.GameID) (*model.Match, error)
	UpdateMatch(ctx context.Context, gameID model.GameID, fn MatchMutator) (*model.Match, error)
	GetMoves(ctx context.Context, gameID model.GameID) ([]*model.Move, error)

	// Change notification. The channel is closed when ctx is done.
	Publish(ctx context.Context, event model.Event) error
	Subscribe(ctx context.Context, gameID model.GameID) (<-chan model.Event, error)
}
