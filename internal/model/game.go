package model

import (
	"fmt"
	"time"
)

// GameID uniquely identifies a game session
type GameID string

// GameMode selects the turn transfer rules of a game
type GameMode string

const (
	ModeClassic GameMode = "classic" // turn passes after every shot
	ModeStreak  GameMode = "streak"  // a hit keeps the turn
	ModePower   GameMode = "power"   // streak rules plus power shots earned by sinking ships
)

// ParseGameMode validates a mode received from a client
func ParseGameMode(s string) (GameMode, error) {
	switch m := GameMode(s); m {
	case ModeClassic, ModeStreak, ModePower:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// BoardSizes lists the supported board dimensions
var BoardSizes = []int{10, 15, 20}

// ValidateBoardSize returns ErrInvalidBoardSize unless size is supported
func ValidateBoardSize(size int) error {
	for _, s := range BoardSizes {
		if s == size {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
}

// GameStatus is the persisted status of a game
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"
)

// MaxSeats is the number of players in a game
const MaxSeats = 2

// Game is the shared record both players converge on. Fields written by
// both sides are only ever changed through a compare-and-set update.
type Game struct {
	ID        GameID
	LobbyCode LobbyCode
	Mode      GameMode
	BoardSize int
	Status    GameStatus
	Seats     []Seat

	TurnPlayerID   PlayerID
	WinnerID       PlayerID
	ResultRecorded bool

	RematchRequests  map[PlayerID]bool
	RematchStarted   bool
	RematchGameID    GameID
	RematchLobbyCode LobbyCode

	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Seat returns the seat held by playerID, or nil
func (g *Game) Seat(playerID PlayerID) *Seat {
	for i := range g.Seats {
		if g.Seats[i].Player.ID == playerID {
			return &g.Seats[i]
		}
	}
	return nil
}

// HasPlayer reports whether playerID holds a seat
func (g *Game) HasPlayer(playerID PlayerID) bool {
	return g.Seat(playerID) != nil
}

// IsFull reports whether both seats are taken
func (g *Game) IsFull() bool {
	return len(g.Seats) >= MaxSeats
}

// PlayerIDs returns the seated players in slot order
func (g *Game) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, len(g.Seats))
	for i, seat := range g.Seats {
		ids[i] = seat.Player.ID
	}
	return ids
}

// Opponent returns the other seated player, or "" if there is none
func (g *Game) Opponent(playerID PlayerID) PlayerID {
	for _, seat := range g.Seats {
		if seat.Player.ID != playerID {
			return seat.Player.ID
		}
	}
	return ""
}

// Host returns the slot 0 player
func (g *Game) Host() PlayerID {
	if len(g.Seats) == 0 {
		return ""
	}
	return g.Seats[0].Player.ID
}

// RematchAgreed reports whether every seated player asked for a rematch
func (g *Game) RematchAgreed() bool {
	if !g.IsFull() {
		return false
	}
	for _, id := range g.PlayerIDs() {
		if !g.RematchRequests[id] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy
func (g *Game) Clone() *Game {
	c := *g
	c.Seats = append([]Seat(nil), g.Seats...)
	c.RematchRequests = make(map[PlayerID]bool, len(g.RematchRequests))
	for k, v := range g.RematchRequests {
		c.RematchRequests[k] = v
	}
	return &c
}
