package model

import "errors"

var (
	// Lookup errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrGameNotFound   = errors.New("game not found")
	ErrFleetNotFound  = errors.New("fleet not found")

	// Lifecycle errors
	ErrLobbyExists      = errors.New("lobby code already in use")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrNotInGame        = errors.New("player is not seated in this game")
	ErrInvalidPhase     = errors.New("operation not allowed in the current phase")
	ErrInvalidMode      = errors.New("invalid game mode")
	ErrInvalidBoardSize = errors.New("invalid board size")

	// Placement errors
	ErrOutOfBounds        = errors.New("cell is outside the board")
	ErrPlacementOverlap   = errors.New("ship overlaps another ship")
	ErrNoShipRemaining    = errors.New("no ship of that length left to place")
	ErrFleetIncomplete    = errors.New("fleet placement is not complete")
	ErrPlacementExhausted = errors.New("could not find a free position for every ship")

	// Shot errors
	ErrNotYourTurn = errors.New("not this player's turn")
	ErrAlreadyShot = errors.New("cell has already been shot")
	ErrInvalidCell = errors.New("invalid cell id")
	ErrNoPower     = errors.New("no power shots available")

	// Store errors
	ErrStoreUnavailable = errors.New("shared store unavailable")
	ErrStoreConflict    = errors.New("shared store update kept conflicting")
)
