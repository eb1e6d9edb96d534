package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Position identifies a cell on a board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// ParsePosition reads a cell id such as "B4": a row letter then a 1-based column
func ParsePosition(id string) (Position, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) < 2 || id[0] < 'A' || id[0] > 'Z' {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidCell, id)
	}
	col, err := strconv.Atoi(id[1:])
	if err != nil || col < 1 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidCell, id)
	}
	return Position{Row: int(id[0] - 'A'), Col: col - 1}, nil
}

// String formats the position as a cell id
func (p Position) String() string {
	return fmt.Sprintf("%c%d", rune('A'+p.Row), p.Col+1)
}

// CellState is the state of a single board cell
type CellState string

const (
	CellEmpty CellState = "empty"
	CellShip  CellState = "ship"
	CellHit   CellState = "hit"
	CellMiss  CellState = "miss"
	CellSunk  CellState = "sunk"
)

// Resolved reports whether the cell has already been shot
func (c CellState) Resolved() bool {
	return c == CellHit || c == CellMiss || c == CellSunk
}

// Orientation of a ship on the board
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// ParseOrientation accepts the full names and their initials
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "h", "horizontal":
		return Horizontal, nil
	case "v", "vertical":
		return Vertical, nil
	}
	return "", fmt.Errorf("invalid orientation %q", s)
}

// ShipID identifies a ship within one fleet
type ShipID string

// Ship is a placed ship. Cells are contiguous along one axis.
type Ship struct {
	ID     ShipID
	Length int
	Cells  []Position
	Sunk   bool
}

// FleetComposition returns the ship lengths each player places for a mode and board size
func FleetComposition(mode GameMode, size int) []int {
	switch size {
	case 10:
		return []int{5, 4, 3}
	case 15:
		if mode == ModePower {
			return []int{5, 4, 4, 3, 2}
		}
		return []int{5, 4, 3, 3, 2}
	case 20:
		return []int{5, 4, 4, 3, 3, 2}
	}
	return nil
}

// Fleet is one player's board and ships within a game
type Fleet struct {
	GameID      GameID
	PlayerID    PlayerID
	Size        int
	Cells       [][]CellState // Cells[row][col]
	Ships       []Ship
	Composition []int
	Remaining   []int // Composition with placed entries zeroed
	Ready       bool
	Power       int
	UpdatedAt   time.Time
}

// NewFleet creates an empty board with the composition for mode and size
func NewFleet(gameID GameID, playerID PlayerID, mode GameMode, size int) *Fleet {
	f := &Fleet{
		GameID:      gameID,
		PlayerID:    playerID,
		Size:        size,
		Composition: FleetComposition(mode, size),
	}
	f.ResetPlacement()
	return f
}

// ResetPlacement clears every ship and restores the full composition
func (f *Fleet) ResetPlacement() {
	f.Cells = make([][]CellState, f.Size)
	for row := range f.Cells {
		f.Cells[row] = make([]CellState, f.Size)
		for col := range f.Cells[row] {
			f.Cells[row][col] = CellEmpty
		}
	}
	f.Ships = nil
	f.Remaining = append([]int(nil), f.Composition...)
	f.Ready = false
}

// InBounds reports whether pos lies on the board
func (f *Fleet) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < f.Size && pos.Col >= 0 && pos.Col < f.Size
}

// At returns the state of the cell at pos
func (f *Fleet) At(pos Position) CellState {
	return f.Cells[pos.Row][pos.Col]
}

// Set changes the state of the cell at pos
func (f *Fleet) Set(pos Position, state CellState) {
	f.Cells[pos.Row][pos.Col] = state
}

// HasRemaining reports whether a ship of the given length is still unplaced
func (f *Fleet) HasRemaining(length int) bool {
	for _, l := range f.Remaining {
		if l == length && l > 0 {
			return true
		}
	}
	return false
}

// NextLength returns the first unplaced ship length, or 0 when all are placed
func (f *Fleet) NextLength() int {
	for _, l := range f.Remaining {
		if l > 0 {
			return l
		}
	}
	return 0
}

// PlacementComplete reports whether every ship has been placed
func (f *Fleet) PlacementComplete() bool {
	return f.NextLength() == 0
}

// Place records a ship on already validated cells and consumes its length
func (f *Fleet) Place(cells []Position) *Ship {
	for i, l := range f.Remaining {
		if l == len(cells) {
			f.Remaining[i] = 0
			break
		}
	}
	for _, pos := range cells {
		f.Set(pos, CellShip)
	}
	f.Ships = append(f.Ships, Ship{
		ID:     ShipID(fmt.Sprintf("S%d", len(f.Ships)+1)),
		Length: len(cells),
		Cells:  append([]Position(nil), cells...),
	})
	return &f.Ships[len(f.Ships)-1]
}

// ShipAt returns the ship occupying pos, or nil
func (f *Fleet) ShipAt(pos Position) *Ship {
	for i := range f.Ships {
		for _, c := range f.Ships[i].Cells {
			if c == pos {
				return &f.Ships[i]
			}
		}
	}
	return nil
}

// IsShipDestroyed reports whether every cell of ship has been hit
func (f *Fleet) IsShipDestroyed(ship *Ship) bool {
	for _, pos := range ship.Cells {
		if s := f.At(pos); s != CellHit && s != CellSunk {
			return false
		}
	}
	return true
}

// Destroyed reports whether every ship cell has been hit. An unplaced fleet is never destroyed.
func (f *Fleet) Destroyed() bool {
	if len(f.Ships) == 0 {
		return false
	}
	for i := range f.Ships {
		if !f.IsShipDestroyed(&f.Ships[i]) {
			return false
		}
	}
	return true
}

// SunkCount returns the number of sunk ships
func (f *Fleet) SunkCount() int {
	n := 0
	for _, ship := range f.Ships {
		if ship.Sunk {
			n++
		}
	}
	return n
}

// Clone returns a deep copy
func (f *Fleet) Clone() *Fleet {
	c := *f
	c.Cells = make([][]CellState, len(f.Cells))
	for i, row := range f.Cells {
		c.Cells[i] = append([]CellState(nil), row...)
	}
	c.Ships = make([]Ship, len(f.Ships))
	for i, ship := range f.Ships {
		ship.Cells = append([]Position(nil), ship.Cells...)
		c.Ships[i] = ship
	}
	c.Composition = append([]int(nil), f.Composition...)
	c.Remaining = append([]int(nil), f.Remaining...)
	return &c
}
