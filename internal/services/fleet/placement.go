package fleet

import (
	"fmt"

	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/model"
)

// MaxPlacementAttempts bounds the random draws tried for a single ship
const MaxPlacementAttempts = 200

// CanPlace returns the ordered cells a ship of length would occupy from origin.
// It reports ErrOutOfBounds or ErrPlacementOverlap and never mutates f.
func CanPlace(f *model.Fleet, origin model.Position, length int, orientation model.Orientation) ([]model.Position, error) {
	dRow, dCol := 0, 1
	if orientation == model.Vertical {
		dRow, dCol = 1, 0
	}

	cells := make([]model.Position, length)
	for i := range cells {
		pos := model.Position{Row: origin.Row + i*dRow, Col: origin.Col + i*dCol}
		if !f.InBounds(pos) {
			return nil, fmt.Errorf("%w: %s", model.ErrOutOfBounds, pos)
		}
		if f.At(pos) != model.CellEmpty {
			return nil, fmt.Errorf("%w at %s", model.ErrPlacementOverlap, pos)
		}
		cells[i] = pos
	}
	return cells, nil
}

// PlaceRandomAll places every remaining ship at random. If any ship cannot be
// placed within MaxPlacementAttempts draws, f is left unchanged.
func PlaceRandomAll(f *model.Fleet, rnd random.Random) error {
	work := f.Clone()
	for _, length := range f.Remaining {
		if length == 0 {
			continue
		}
		if !placeOne(work, length, rnd) {
			return fmt.Errorf("%w: length %d on %dx%d", model.ErrPlacementExhausted, length, f.Size, f.Size)
		}
	}
	*f = *work
	return nil
}

func placeOne(f *model.Fleet, length int, rnd random.Random) bool {
	for attempt := 0; attempt < MaxPlacementAttempts; attempt++ {
		orientation := model.Horizontal
		if rnd.Intn(2) == 1 {
			orientation = model.Vertical
		}
		origin := model.Position{Row: rnd.Intn(f.Size), Col: rnd.Intn(f.Size)}
		if cells, err := CanPlace(f, origin, length, orientation); err == nil {
			f.Place(cells)
			return true
		}
	}
	return false
}
