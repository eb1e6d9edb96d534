package model

import "time"

// Phase is the lifecycle stage as seen by one player
type Phase string

const (
	PhaseLobby          Phase = "lobby"   // no seat yet
	PhasePlacing        Phase = "placing" // placing ships
	PhaseWaiting        Phase = "waiting" // locked in, opponent not yet ready
	PhasePlaying        Phase = "playing"
	PhaseEnded          Phase = "ended"
	PhaseRematchPending Phase = "rematch_pending"
)

// PhaseFor derives the phase of viewer from the game and the viewer's fleet
func PhaseFor(g *Game, own *Fleet) Phase {
	switch g.Status {
	case StatusInProgress:
		return PhasePlaying
	case StatusFinished:
		if len(g.RematchRequests) > 0 {
			return PhaseRematchPending
		}
		return PhaseEnded
	}
	if own == nil {
		return PhaseLobby
	}
	if own.Ready {
		return PhaseWaiting
	}
	return PhasePlacing
}

// SeatView describes a seated player
type SeatView struct {
	PlayerID    PlayerID `json:"player_id"`
	DisplayName string   `json:"display_name"`
	Slot        int      `json:"slot"`
	Ready       bool     `json:"ready"`
}

// ShipView describes one of the viewer's ships
type ShipView struct {
	ID     ShipID   `json:"id"`
	Length int      `json:"length"`
	Cells  []string `json:"cells"`
	Sunk   bool     `json:"sunk"`
}

// RematchView describes rematch progress
type RematchView struct {
	Requested []PlayerID `json:"requested"`
	GameID    GameID     `json:"game_id,omitempty"`
	LobbyCode LobbyCode  `json:"lobby_code,omitempty"`
}

// Snapshot is everything one player is allowed to see of a game
type Snapshot struct {
	GameID        GameID        `json:"game_id"`
	LobbyCode     LobbyCode     `json:"lobby_code"`
	Mode          GameMode      `json:"mode"`
	BoardSize     int           `json:"board_size"`
	Status        GameStatus    `json:"status"`
	Phase         Phase         `json:"phase"`
	Viewer        PlayerID      `json:"viewer"`
	Seats         []SeatView    `json:"seats"`
	TurnPlayerID  PlayerID      `json:"turn_player_id,omitempty"`
	YourTurn      bool          `json:"your_turn"`
	WinnerID      PlayerID      `json:"winner_id,omitempty"`
	OwnBoard      [][]CellState `json:"own_board,omitempty"`
	OpponentBoard [][]CellState `json:"opponent_board,omitempty"`
	Ships         []ShipView    `json:"ships,omitempty"`
	Remaining     []int         `json:"remaining,omitempty"`
	Power         int           `json:"power"`
	OpponentPower int           `json:"opponent_power"`
	OpponentSunk  int           `json:"opponent_ships_sunk"`
	Rematch       RematchView   `json:"rematch"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BuildSnapshot renders match for viewer. Opponent ship positions stay hidden
// until shot.
func BuildSnapshot(m *Match, viewer PlayerID) Snapshot {
	g := m.Game
	own := m.Fleet(viewer)
	snap := Snapshot{
		GameID:       g.ID,
		LobbyCode:    g.LobbyCode,
		Mode:         g.Mode,
		BoardSize:    g.BoardSize,
		Status:       g.Status,
		Phase:        PhaseFor(g, own),
		Viewer:       viewer,
		TurnPlayerID: g.TurnPlayerID,
		YourTurn:     g.Status == StatusInProgress && g.TurnPlayerID == viewer,
		WinnerID:     g.WinnerID,
		Rematch: RematchView{
			GameID:    g.RematchGameID,
			LobbyCode: g.RematchLobbyCode,
		},
		UpdatedAt: g.UpdatedAt,
	}

	for _, seat := range g.Seats {
		sv := SeatView{PlayerID: seat.Player.ID, DisplayName: seat.Player.DisplayName, Slot: seat.Slot}
		if f := m.Fleet(seat.Player.ID); f != nil {
			sv.Ready = f.Ready
		}
		snap.Seats = append(snap.Seats, sv)
		if g.RematchRequests[seat.Player.ID] {
			snap.Rematch.Requested = append(snap.Rematch.Requested, seat.Player.ID)
		}
	}

	if own != nil {
		snap.OwnBoard = own.Clone().Cells
		for _, l := range own.Remaining {
			if l > 0 {
				snap.Remaining = append(snap.Remaining, l)
			}
		}
		snap.Power = own.Power
		for _, ship := range own.Ships {
			sv := ShipView{ID: ship.ID, Length: ship.Length, Sunk: ship.Sunk}
			for _, pos := range ship.Cells {
				sv.Cells = append(sv.Cells, pos.String())
			}
			snap.Ships = append(snap.Ships, sv)
		}
	}

	if opp := m.Fleet(g.Opponent(viewer)); opp != nil {
		snap.OpponentPower = opp.Power
		snap.OpponentSunk = opp.SunkCount()
		snap.OpponentBoard = make([][]CellState, opp.Size)
		for row := range opp.Cells {
			snap.OpponentBoard[row] = make([]CellState, opp.Size)
			for col, state := range opp.Cells[row] {
				if state == CellShip {
					state = CellEmpty
				}
				snap.OpponentBoard[row][col] = state
			}
		}
	}

	return snap
}
