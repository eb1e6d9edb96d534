package model

import "time"

// MoveID uniquely identifies a recorded shot
type MoveID string

// ShotResult is the outcome of resolving a single cell
type ShotResult string

const (
	ResultHit  ShotResult = "hit"
	ResultMiss ShotResult = "miss"
)

// Move is an append-only record of one resolved cell
type Move struct {
	ID         MoveID
	GameID     GameID
	By         PlayerID
	Cell       Position
	Result     ShotResult
	SunkShipID ShipID // set when this move sank a ship
	PowerShot  bool
	Timestamp  time.Time
}

// Match is the unit of a compare-and-set over a whole game: the game record,
// every fleet and any moves appended during the update.
type Match struct {
	Game     *Game
	Fleets   map[PlayerID]*Fleet
	NewMoves []*Move
}

// Fleet returns the fleet of playerID, or nil
func (m *Match) Fleet(playerID PlayerID) *Fleet {
	return m.Fleets[playerID]
}

// Record appends a move to be committed with the update
func (m *Match) Record(move *Move) {
	m.NewMoves = append(m.NewMoves, move)
}

// Clone returns a deep copy without pending moves
func (m *Match) Clone() *Match {
	c := &Match{Game: m.Game.Clone(), Fleets: make(map[PlayerID]*Fleet, len(m.Fleets))}
	for id, f := range m.Fleets {
		c.Fleets[id] = f.Clone()
	}
	return c
}
