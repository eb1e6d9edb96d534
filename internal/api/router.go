package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/fleetgame-go/internal/api/handler"
	"github.com/mcoot/fleetgame-go/internal/api/middleware"
	"github.com/mcoot/fleetgame-go/internal/api/response"
	"github.com/mcoot/fleetgame-go/internal/realtime"
	"github.com/mcoot/fleetgame-go/internal/services/auth"
	"github.com/mcoot/fleetgame-go/internal/services/lobby"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	LobbyController lobby.ControllerInterface
	Engine          handler.Engine
	MoveLog         handler.MoveLog
	HubManager      *realtime.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyController)
	gameHandler := handler.NewGameHandler(cfg.Engine, cfg.MoveLog, cfg.HubManager, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	lobbies := api.PathPrefix("/lobbies").Subrouter()
	lobbies.Use(authMiddleware)
	lobbies.HandleFunc("", lobbyHandler.Create).Methods(http.MethodPost)
	lobbies.HandleFunc("/{code}", lobbyHandler.Get).Methods(http.MethodGet)
	lobbies.HandleFunc("/{code}/join", lobbyHandler.Join).Methods(http.MethodPost)

	games := api.PathPrefix("/games/{id}").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/moves", gameHandler.Moves).Methods(http.MethodGet)
	games.HandleFunc("/ships", gameHandler.PlaceShip).Methods(http.MethodPost)
	games.HandleFunc("/ships", gameHandler.ResetPlacement).Methods(http.MethodDelete)
	games.HandleFunc("/ships/random", gameHandler.PlaceRandom).Methods(http.MethodPost)
	games.HandleFunc("/ready", gameHandler.Ready).Methods(http.MethodPost)
	games.HandleFunc("/shots", gameHandler.Fire).Methods(http.MethodPost)
	games.HandleFunc("/power-shots", gameHandler.PowerShot).Methods(http.MethodPost)
	games.HandleFunc("/rematch", gameHandler.Rematch).Methods(http.MethodPost)
	games.HandleFunc("/events", gameHandler.Events).Methods(http.MethodGet)
	games.HandleFunc("/ws", gameHandler.Socket).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
