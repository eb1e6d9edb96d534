package response

import (
	"time"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/auth"
	"github.com/mcoot/fleetgame-go/internal/services/game"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Lobby represents a lobby in API responses
type Lobby struct {
	Code      string `json:"code"`
	GameID    string `json:"game_id"`
	Mode      string `json:"mode"`
	BoardSize int    `json:"board_size"`
	Status    string `json:"status"`
	HostID    string `json:"host_id"`
}

// LobbyFromModel converts model.Lobby
func LobbyFromModel(l *model.Lobby) Lobby {
	return Lobby{
		Code:      string(l.Code),
		GameID:    string(l.GameID),
		Mode:      string(l.Mode),
		BoardSize: l.BoardSize,
		Status:    string(l.Status),
		HostID:    string(l.HostID),
	}
}

// LobbyResponse pairs a lobby with its game
type LobbyResponse struct {
	Lobby Lobby `json:"lobby"`
	Game  Game  `json:"game"`
}

// Seat is a seated player
type Seat struct {
	Slot   int    `json:"slot"`
	Player Player `json:"player"`
}

// Game is the public summary of a game
type Game struct {
	ID           string    `json:"id"`
	LobbyCode    string    `json:"lobby_code"`
	Mode         string    `json:"mode"`
	BoardSize    int       `json:"board_size"`
	Status       string    `json:"status"`
	Seats        []Seat    `json:"seats"`
	TurnPlayerID string    `json:"turn_player_id,omitempty"`
	WinnerID     string    `json:"winner_id,omitempty"`
	RematchGame  string    `json:"rematch_game_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GameFromModel converts model.Game
func GameFromModel(g *model.Game) Game {
	seats := make([]Seat, len(g.Seats))
	for i, seat := range g.Seats {
		seats[i] = Seat{Slot: seat.Slot, Player: PlayerFromModel(&seat.Player)}
	}
	return Game{
		ID:           string(g.ID),
		LobbyCode:    string(g.LobbyCode),
		Mode:         string(g.Mode),
		BoardSize:    g.BoardSize,
		Status:       string(g.Status),
		Seats:        seats,
		TurnPlayerID: string(g.TurnPlayerID),
		WinnerID:     string(g.WinnerID),
		RematchGame:  string(g.RematchGameID),
		UpdatedAt:    g.UpdatedAt,
	}
}

// Fleet is a player's own board during placement
type Fleet struct {
	Cells     [][]model.CellState `json:"cells"`
	Ships     []model.ShipView    `json:"ships"`
	Remaining []int               `json:"remaining"`
	Ready     bool                `json:"ready"`
}

// FleetFromModel converts model.Fleet
func FleetFromModel(f *model.Fleet) Fleet {
	ships := make([]model.ShipView, 0, len(f.Ships))
	for _, ship := range f.Ships {
		sv := model.ShipView{ID: ship.ID, Length: ship.Length, Sunk: ship.Sunk}
		for _, pos := range ship.Cells {
			sv.Cells = append(sv.Cells, pos.String())
		}
		ships = append(ships, sv)
	}
	remaining := make([]int, 0, len(f.Remaining))
	for _, l := range f.Remaining {
		if l > 0 {
			remaining = append(remaining, l)
		}
	}
	return Fleet{
		Cells:     f.Cells,
		Ships:     ships,
		Remaining: remaining,
		Ready:     f.Ready,
	}
}

// CellResult is the outcome at one shot cell
type CellResult struct {
	Cell   string `json:"cell"`
	Result string `json:"result"`
	Sunk   string `json:"sunk_ship_id,omitempty"`
}

// ShotResult is the outcome of a shot or power shot
type ShotResult struct {
	Cells     []CellResult `json:"cells"`
	PowerShot bool         `json:"power_shot"`
	NextTurn  string       `json:"next_turn,omitempty"`
	Winner    string       `json:"winner,omitempty"`
	Power     int          `json:"power"`
}

// ShotResultFromOutcome converts game.ShotOutcome
func ShotResultFromOutcome(o *game.ShotOutcome) ShotResult {
	cells := make([]CellResult, len(o.Cells))
	for i, c := range o.Cells {
		cells[i] = CellResult{Cell: c.Cell.String(), Result: string(c.Result), Sunk: string(c.SunkShipID)}
	}
	return ShotResult{
		Cells:     cells,
		PowerShot: o.PowerShot,
		NextTurn:  string(o.NextTurn),
		Winner:    string(o.Winner),
		Power:     o.Power,
	}
}

// Move is one entry of the move log
type Move struct {
	ID        string    `json:"id"`
	By        string    `json:"by"`
	Cell      string    `json:"cell"`
	Result    string    `json:"result"`
	Sunk      string    `json:"sunk_ship_id,omitempty"`
	PowerShot bool      `json:"power_shot,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MovesFromModel converts the move log
func MovesFromModel(moves []*model.Move) []Move {
	out := make([]Move, len(moves))
	for i, m := range moves {
		out[i] = Move{
			ID:        string(m.ID),
			By:        string(m.By),
			Cell:      m.Cell.String(),
			Result:    string(m.Result),
			Sunk:      string(m.SunkShipID),
			PowerShot: m.PowerShot,
			Timestamp: m.Timestamp,
		}
	}
	return out
}

// HealthResponse is the response for the health check endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
