package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fleetgame-go/internal/dependencies/mocks"
	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage/memory"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.random.Fallback = random.NewSeeded(7)
	s.service = New(s.storage, mocks.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), s.random, testutil.NopLogger())
	s.ctx = context.Background()

	_, err := s.service.CreateFleet(s.ctx, "g1", "p1", model.ModeClassic, 10)
	s.Require().NoError(err)
}

func pos(id string) model.Position {
	p, err := model.ParsePosition(id)
	if err != nil {
		panic(err)
	}
	return p
}

// CanPlace tests

func (s *ServiceSuite) TestCanPlaceReturnsOrderedCells() {
	f := model.NewFleet("g1", "p1", model.ModeClassic, 10)

	cells, err := CanPlace(f, pos("B2"), 3, model.Vertical)
	s.Require().NoError(err)
	s.Equal([]model.Position{pos("B2"), pos("C2"), pos("D2")}, cells)
	s.Equal(model.CellEmpty, f.At(pos("B2")), "CanPlace must not mutate")
}

func (s *ServiceSuite) TestCanPlaceOutOfBounds() {
	f := model.NewFleet("g1", "p1", model.ModeClassic, 10)

	_, err := CanPlace(f, pos("A8"), 4, model.Horizontal)
	s.ErrorIs(err, model.ErrOutOfBounds)

	_, err = CanPlace(f, pos("H1"), 4, model.Vertical)
	s.ErrorIs(err, model.ErrOutOfBounds)
}

func (s *ServiceSuite) TestCanPlaceOverlap() {
	f := model.NewFleet("g1", "p1", model.ModeClassic, 10)
	cells, err := CanPlace(f, pos("C1"), 5, model.Horizontal)
	s.Require().NoError(err)
	f.Place(cells)

	_, err = CanPlace(f, pos("A3"), 4, model.Vertical)
	s.ErrorIs(err, model.ErrPlacementOverlap)
}

// PlaceShip tests

func (s *ServiceSuite) TestPlaceShipConsumesNextLength() {
	f, err := s.service.PlaceShip(s.ctx, "g1", "p1", pos("A1"), 0, model.Horizontal)
	s.Require().NoError(err)

	s.Require().Len(f.Ships, 1)
	s.Equal(5, f.Ships[0].Length)
	s.Equal([]int{0, 4, 3}, f.Remaining)
	s.Equal(4, f.NextLength())
}

func (s *ServiceSuite) TestPlaceShipExplicitLength() {
	f, err := s.service.PlaceShip(s.ctx, "g1", "p1", pos("A1"), 3, model.Vertical)
	s.Require().NoError(err)
	s.Equal([]int{5, 4, 0}, f.Remaining)

	_, err = s.service.PlaceShip(s.ctx, "g1", "p1", pos("A5"), 3, model.Vertical)
	s.ErrorIs(err, model.ErrNoShipRemaining)
}

func (s *ServiceSuite) TestPlaceShipRejectedLeavesFleetUnchanged() {
	_, err := s.service.PlaceShip(s.ctx, "g1", "p1", pos("A9"), 0, model.Horizontal)
	s.ErrorIs(err, model.ErrOutOfBounds)

	f, err := s.service.GetFleet(s.ctx, "g1", "p1")
	s.Require().NoError(err)
	s.Empty(f.Ships)
	s.Equal([]int{5, 4, 3}, f.Remaining)
}

func (s *ServiceSuite) TestPlaceShipAfterReadyIsInvalidPhase() {
	_, err := s.service.PlaceRandom(s.ctx, "g1", "p1")
	s.Require().NoError(err)
	_, err = s.service.MarkReady(s.ctx, "g1", "p1")
	s.Require().NoError(err)

	_, err = s.service.ResetPlacement(s.ctx, "g1", "p1")
	s.ErrorIs(err, model.ErrInvalidPhase)
}

// PlaceRandom tests

func (s *ServiceSuite) TestPlaceRandomFillsComposition() {
	for _, size := range model.BoardSizes {
		for _, mode := range []model.GameMode{model.ModeClassic, model.ModeStreak, model.ModePower} {
			f := model.NewFleet("g", "p", mode, size)
			s.Require().NoError(PlaceRandomAll(f, random.NewSeeded(uint64(size))))
			assertFleetInvariants(s, f)
		}
	}
}

func (s *ServiceSuite) TestPlaceRandomKeepsManualShips() {
	_, err := s.service.PlaceShip(s.ctx, "g1", "p1", pos("J1"), 5, model.Horizontal)
	s.Require().NoError(err)

	f, err := s.service.PlaceRandom(s.ctx, "g1", "p1")
	s.Require().NoError(err)
	s.True(f.PlacementComplete())
	s.Equal([]model.Position{pos("J1"), pos("J2"), pos("J3"), pos("J4"), pos("J5")}, f.Ships[0].Cells)
	assertFleetInvariants(s, f)
}

func (s *ServiceSuite) TestPlaceRandomExhaustedLeavesFleetUnchanged() {
	// A random source stuck on zero always proposes A1 horizontally.
	f := model.NewFleet("g", "p", model.ModeClassic, 10)
	err := PlaceRandomAll(f, mocks.NewMockRandom())
	s.ErrorIs(err, model.ErrPlacementExhausted)
	s.Empty(f.Ships)
	s.Equal(model.CellEmpty, f.At(pos("A1")))
}

// MarkReady tests

func (s *ServiceSuite) TestMarkReadyRequiresCompletePlacement() {
	_, err := s.service.MarkReady(s.ctx, "g1", "p1")
	s.ErrorIs(err, model.ErrFleetIncomplete)

	_, err = s.service.PlaceRandom(s.ctx, "g1", "p1")
	s.Require().NoError(err)

	f, err := s.service.MarkReady(s.ctx, "g1", "p1")
	s.Require().NoError(err)
	s.True(f.Ready)

	f, err = s.service.MarkReady(s.ctx, "g1", "p1")
	s.Require().NoError(err)
	s.True(f.Ready)
}

func (s *ServiceSuite) TestResetPlacement() {
	_, err := s.service.PlaceRandom(s.ctx, "g1", "p1")
	s.Require().NoError(err)

	f, err := s.service.ResetPlacement(s.ctx, "g1", "p1")
	s.Require().NoError(err)
	s.Empty(f.Ships)
	s.Equal([]int{5, 4, 3}, f.Remaining)
	for _, row := range f.Cells {
		for _, c := range row {
			s.Equal(model.CellEmpty, c)
		}
	}
}

// assertFleetInvariants checks ship cells equal the composition sum, stay in
// bounds and never overlap
func assertFleetInvariants(s *ServiceSuite, f *model.Fleet) {
	want := 0
	for _, l := range f.Composition {
		want += l
	}

	seen := map[model.Position]bool{}
	for _, ship := range f.Ships {
		s.Len(ship.Cells, ship.Length)
		for _, c := range ship.Cells {
			s.True(f.InBounds(c), "cell %s out of bounds", c)
			s.False(seen[c], "cell %s occupied twice", c)
			seen[c] = true
		}
	}
	s.Equal(want, len(seen))

	count := 0
	for _, row := range f.Cells {
		for _, c := range row {
			if c == model.CellShip {
				count++
			}
		}
	}
	s.Equal(want, count)
}
