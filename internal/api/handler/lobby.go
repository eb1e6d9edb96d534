package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/fleetgame-go/internal/api/middleware"
	"github.com/mcoot/fleetgame-go/internal/api/request"
	"github.com/mcoot/fleetgame-go/internal/api/response"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/lobby"
)

// LobbyHandler handles lobby-related endpoints
type LobbyHandler struct {
	lobbyController lobby.ControllerInterface
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbyController lobby.ControllerInterface) *LobbyHandler {
	return &LobbyHandler{
		lobbyController: lobbyController,
	}
}

// Create handles POST /api/v1/lobbies. Mode and board size default to classic
// on a 10x10 board.
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	req := request.CreateLobbyRequest{Mode: string(model.ModeClassic), BoardSize: 10}
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	mode, err := model.ParseGameMode(req.Mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	l, g, err := h.lobbyController.CreateLobby(r.Context(), *player, mode, req.BoardSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.LobbyResponse{
		Lobby: response.LobbyFromModel(l),
		Game:  response.GameFromModel(g),
	})
}

// Get handles GET /api/v1/lobbies/{code}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := lobbyCode(r)

	l, err := h.lobbyController.GetLobby(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyFromModel(l))
}

// Join handles POST /api/v1/lobbies/{code}/join
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := lobbyCode(r)

	l, g, err := h.lobbyController.JoinLobby(r.Context(), code, *player)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyResponse{
		Lobby: response.LobbyFromModel(l),
		Game:  response.GameFromModel(g),
	})
}

// lobbyCode reads the code path variable. Codes are case-insensitive.
func lobbyCode(r *http.Request) model.LobbyCode {
	return model.LobbyCode(strings.ToUpper(mux.Vars(r)["code"]))
}
