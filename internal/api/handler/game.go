package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/fleetgame-go/internal/api/middleware"
	"github.com/mcoot/fleetgame-go/internal/api/request"
	"github.com/mcoot/fleetgame-go/internal/api/response"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/realtime"
	"github.com/mcoot/fleetgame-go/internal/services/game"
)

// Engine runs player actions against live games
type Engine = realtime.Intents

// MoveLog reads a game's recorded shots
type MoveLog interface {
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	GetMoves(ctx context.Context, id model.GameID) ([]*model.Move, error)
}

// GameHandler handles game-related endpoints
type GameHandler struct {
	engine     Engine
	moves      MoveLog
	hubManager *realtime.HubManager
	logger     *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(engine Engine, moves MoveLog, hubManager *realtime.HubManager, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		engine:     engine,
		moves:      moves,
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "game_handler")),
	}
}

func gameID(r *http.Request) model.GameID {
	return model.GameID(mux.Vars(r)["id"])
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	snap, err := h.engine.Snapshot(r.Context(), gameID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, snap)
}

// Moves handles GET /api/v1/games/{id}/moves
func (h *GameHandler) Moves(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := gameID(r)

	g, err := h.moves.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !g.HasPlayer(player.ID) {
		WriteError(w, model.ErrNotInGame)
		return
	}

	moves, err := h.moves.GetMoves(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MovesFromModel(moves))
}

// PlaceShip handles POST /api/v1/games/{id}/ships
func (h *GameHandler) PlaceShip(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.PlaceShipRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	origin, err := model.ParsePosition(req.Cell)
	if err != nil {
		WriteError(w, err)
		return
	}
	orientation, err := model.ParseOrientation(req.Orientation)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	f, err := h.engine.PlaceShip(r.Context(), gameID(r), player.ID, origin, req.Length, orientation)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.FleetFromModel(f))
}

// PlaceRandom handles POST /api/v1/games/{id}/ships/random
func (h *GameHandler) PlaceRandom(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	f, err := h.engine.PlaceRandom(r.Context(), gameID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.FleetFromModel(f))
}

// ResetPlacement handles DELETE /api/v1/games/{id}/ships
func (h *GameHandler) ResetPlacement(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	f, err := h.engine.ResetPlacement(r.Context(), gameID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.FleetFromModel(f))
}

// Ready handles POST /api/v1/games/{id}/ready
func (h *GameHandler) Ready(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	g, err := h.engine.MarkReady(r.Context(), gameID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Fire handles POST /api/v1/games/{id}/shots
func (h *GameHandler) Fire(w http.ResponseWriter, r *http.Request) {
	h.shoot(w, r, h.engine.FireShot)
}

// PowerShot handles POST /api/v1/games/{id}/power-shots
func (h *GameHandler) PowerShot(w http.ResponseWriter, r *http.Request) {
	h.shoot(w, r, h.engine.UsePowerShot)
}

type shotFunc func(ctx context.Context, id model.GameID, shooter model.PlayerID, cell model.Position) (*game.ShotOutcome, error)

func (h *GameHandler) shoot(w http.ResponseWriter, r *http.Request, fire shotFunc) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.ShotRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	cell, err := model.ParsePosition(req.Cell)
	if err != nil {
		WriteError(w, err)
		return
	}

	outcome, err := fire(r.Context(), gameID(r), player.ID, cell)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ShotResultFromOutcome(outcome))
}

// Rematch handles POST /api/v1/games/{id}/rematch
func (h *GameHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	g, err := h.engine.RequestRematch(r.Context(), gameID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Events handles GET /api/v1/games/{id}/events, a server-sent event stream of
// the caller's snapshots
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := gameID(r)

	snap, err := h.engine.Snapshot(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	initial, err := realtime.NewMessage(realtime.TypeSnapshot, snap)
	if err != nil {
		WriteError(w, err)
		return
	}

	// The stream outlives the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not cleared", slog.Any("error", err))
	}

	hub := h.hubManager.GetOrCreateHub(id)
	realtime.ServeSSE(w, r, hub, player.ID, initial)
}

// Socket handles GET /api/v1/games/{id}/ws
func (h *GameHandler) Socket(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := gameID(r)

	if _, err := h.engine.Snapshot(r.Context(), id, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubManager.GetOrCreateHub(id)
	realtime.ServeWS(w, r, hub, id, player.ID, h.engine, h.logger)
}
