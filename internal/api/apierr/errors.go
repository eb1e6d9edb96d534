package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/auth"
	"github.com/mcoot/fleetgame-go/internal/services/lobby"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidCell         = "INVALID_CELL"
	CodeInvalidMode         = "INVALID_MODE"
	CodeInvalidBoardSize    = "INVALID_BOARD_SIZE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeAlreadyShot         = "ALREADY_SHOT"
	CodeInvalidPhase        = "INVALID_PHASE"
	CodeOutOfBounds         = "OUT_OF_BOUNDS"
	CodePlacementOverlap    = "PLACEMENT_OVERLAP"
	CodeNoShipRemaining     = "NO_SHIP_REMAINING"
	CodeFleetIncomplete     = "FLEET_INCOMPLETE"
	CodePlacementExhausted  = "PLACEMENT_EXHAUSTED"
	CodeNoPower             = "NO_POWER"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeLobbyNotFound       = "LOBBY_NOT_FOUND"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeFleetNotFound       = "FLEET_NOT_FOUND"
	CodeLobbyFull           = "LOBBY_FULL"
	CodeNotInGame           = "NOT_IN_GAME"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidPlayer       = "INVALID_PLAYER"
	CodeLobbyCodesExhausted = "LOBBY_CODES_EXHAUSTED"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	status, apiError := Lookup(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: apiError})
}

// Lookup returns the HTTP status and stable error body for err
func Lookup(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Lookups
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrLobbyNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeLobbyNotFound, "Lobby not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrFleetNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeFleetNotFound, "Fleet not found"}}

	// Lifecycle
	case errors.Is(err, model.ErrLobbyFull):
		return &httpError{http.StatusConflict, APIError{CodeLobbyFull, "Game already has two players"}}
	case errors.Is(err, model.ErrNotInGame):
		return &httpError{http.StatusForbidden, APIError{CodeNotInGame, "Not a player in this game"}}
	case errors.Is(err, model.ErrInvalidPhase):
		return &httpError{http.StatusConflict, APIError{CodeInvalidPhase, err.Error()}}
	case errors.Is(err, model.ErrInvalidMode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMode, "Mode must be classic, streak or power"}}
	case errors.Is(err, model.ErrInvalidBoardSize):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidBoardSize, "Board size must be 10, 15 or 20"}}

	// Placement
	case errors.Is(err, model.ErrOutOfBounds):
		return &httpError{http.StatusBadRequest, APIError{CodeOutOfBounds, err.Error()}}
	case errors.Is(err, model.ErrPlacementOverlap):
		return &httpError{http.StatusConflict, APIError{CodePlacementOverlap, err.Error()}}
	case errors.Is(err, model.ErrNoShipRemaining):
		return &httpError{http.StatusConflict, APIError{CodeNoShipRemaining, err.Error()}}
	case errors.Is(err, model.ErrFleetIncomplete):
		return &httpError{http.StatusConflict, APIError{CodeFleetIncomplete, "Place every ship first"}}
	case errors.Is(err, model.ErrPlacementExhausted):
		return &httpError{http.StatusConflict, APIError{CodePlacementExhausted, "No room left for the remaining ships"}}

	// Shots
	case errors.Is(err, model.ErrNotYourTurn):
		return &httpError{http.StatusConflict, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrAlreadyShot):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyShot, "Cell has already been shot"}}
	case errors.Is(err, model.ErrInvalidCell):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCell, err.Error()}}
	case errors.Is(err, model.ErrNoPower):
		return &httpError{http.StatusConflict, APIError{CodeNoPower, "No power shots available"}}

	// Store
	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, model.ErrStoreConflict):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Game store unavailable, try again"}}
	case errors.Is(err, lobby.ErrNoFreeCode):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeLobbyCodesExhausted, "Could not allocate a lobby code"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}
	case errors.Is(err, auth.ErrInvalidInput):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPlayer, err.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
