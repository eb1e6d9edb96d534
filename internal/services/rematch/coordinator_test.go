package rematch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fleetgame-go/internal/dependencies/mocks"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/fleet"
	"github.com/mcoot/fleetgame-go/internal/services/game"
	"github.com/mcoot/fleetgame-go/internal/services/lobby"
	"github.com/mcoot/fleetgame-go/internal/services/turn"
	"github.com/mcoot/fleetgame-go/internal/storage"
	"github.com/mcoot/fleetgame-go/internal/storage/memory"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

var (
	alice = model.Player{ID: "alice", DisplayName: "Alice"}
	bob   = model.Player{ID: "bob", DisplayName: "Bob"}
)

type CoordinatorSuite struct {
	suite.Suite
	storage     *memory.Storage
	random      *mocks.MockRandom
	coordinator *Coordinator
	lobbies     *lobby.Controller
	clock       *mocks.MockClock
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.storage = memory.New()
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	logger := testutil.NopLogger()

	fleets := fleet.New(s.storage, clk, s.random, logger)
	games := game.NewController(s.storage, fleets, turn.NewAuthority(s.random), clk, mocks.NewSequentialIDs("move"), logger)
	s.lobbies = lobby.NewController(s.storage, games, clk, s.random, mocks.NewSequentialIDs("game"), logger)
	s.clock = clk
	s.coordinator = NewCoordinator(s.storage, s.lobbies, clk, logger)
	s.ctx = context.Background()

	s.Require().NoError(s.storage.CreateGame(s.ctx, &model.Game{
		ID:        "old",
		Mode:      model.ModeStreak,
		BoardSize: 15,
		Status:    model.StatusFinished,
		Seats: []model.Seat{
			{Player: alice, Slot: 0},
			{Player: bob, Slot: 1},
		},
		WinnerID:        bob.ID,
		ResultRecorded:  true,
		RematchRequests: map[model.PlayerID]bool{},
	}))
}

func (s *CoordinatorSuite) TestSingleRequestWaits() {
	g, err := s.coordinator.RequestRematch(s.ctx, "old", alice.ID)
	s.Require().NoError(err)
	s.True(g.RematchRequests[alice.ID])
	s.False(g.RematchStarted)
	s.Empty(g.RematchGameID)

	g, err = s.coordinator.RequestRematch(s.ctx, "old", alice.ID)
	s.Require().NoError(err)
	s.Len(g.RematchRequests, 1, "requests are a set")
}

func (s *CoordinatorSuite) TestSecondRequestCreatesRematch() {
	s.random.QueueString("NEW001")
	_, err := s.coordinator.RequestRematch(s.ctx, "old", alice.ID)
	s.Require().NoError(err)

	g, err := s.coordinator.RequestRematch(s.ctx, "old", bob.ID)
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), g.RematchGameID)
	s.Equal(model.LobbyCode("NEW001"), g.RematchLobbyCode)

	next, err := s.storage.GetGame(s.ctx, g.RematchGameID)
	s.Require().NoError(err)
	s.Equal(model.ModeStreak, next.Mode)
	s.Equal(15, next.BoardSize)
	s.Equal(model.StatusWaiting, next.Status)
	s.Equal([]model.PlayerID{alice.ID, bob.ID}, next.PlayerIDs())
}

func (s *CoordinatorSuite) TestConcurrentRequestsCreateExactlyOneGame() {
	s.random.QueueString("NEW001", "NEW002")

	var wg sync.WaitGroup
	for _, pid := range []model.PlayerID{alice.ID, bob.ID} {
		wg.Add(1)
		go func(pid model.PlayerID) {
			defer wg.Done()
			_, err := s.coordinator.RequestRematch(s.ctx, "old", pid)
			s.NoError(err)
		}(pid)
	}
	wg.Wait()

	g, err := s.storage.GetGame(s.ctx, "old")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), g.RematchGameID)

	_, err = s.storage.GetGame(s.ctx, "game-2")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *CoordinatorSuite) TestFailedCreationReleasesClaim() {
	// With no queued codes every attempt yields "", which is taken.
	s.Require().NoError(s.storage.CreateLobby(s.ctx, &model.Lobby{Code: ""}))

	_, err := s.coordinator.RequestRematch(s.ctx, "old", alice.ID)
	s.Require().NoError(err)
	_, err = s.coordinator.RequestRematch(s.ctx, "old", bob.ID)
	s.ErrorIs(err, lobby.ErrNoFreeCode)

	g, err := s.storage.GetGame(s.ctx, "old")
	s.Require().NoError(err)
	s.False(g.RematchStarted)

	s.random.QueueString("NEW001")
	g, err = s.coordinator.RequestRematch(s.ctx, "old", alice.ID)
	s.Require().NoError(err)
	s.NotEmpty(g.RematchGameID)
}

func (s *CoordinatorSuite) TestFailedLinkReleasesClaim() {
	store := &failingLinkStore{Storage: s.storage, failures: 1}
	coordinator := NewCoordinator(store, s.lobbies, s.clock, testutil.NopLogger())
	s.random.QueueString("NEW001", "NEW002")

	_, err := coordinator.RequestRematch(s.ctx, "old", alice.ID)
	s.Require().NoError(err)
	_, err = coordinator.RequestRematch(s.ctx, "old", bob.ID)
	s.ErrorIs(err, errLinkFailed)

	g, err := s.storage.GetGame(s.ctx, "old")
	s.Require().NoError(err)
	s.False(g.RematchStarted)
	s.Empty(g.RematchGameID)

	g, err = coordinator.RequestRematch(s.ctx, "old", bob.ID)
	s.Require().NoError(err)
	s.Equal(model.GameID("game-2"), g.RematchGameID)
	s.Equal(model.LobbyCode("NEW002"), g.RematchLobbyCode)
}

func (s *CoordinatorSuite) TestRematchNeedsFinishedGame() {
	s.Require().NoError(s.storage.CreateGame(s.ctx, &model.Game{ID: "live", Status: model.StatusInProgress, Seats: []model.Seat{{Player: alice}}}))

	_, err := s.coordinator.RequestRematch(s.ctx, "live", alice.ID)
	s.ErrorIs(err, model.ErrInvalidPhase)

	_, err = s.coordinator.RequestRematch(s.ctx, "old", "carol")
	s.ErrorIs(err, model.ErrNotInGame)
}

var errLinkFailed = errors.New("write rejected")

// failingLinkStore rejects the next failures writes that link a rematch game
type failingLinkStore struct {
	storage.Storage
	failures int
}

func (f *failingLinkStore) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutator) (*model.Game, error) {
	return f.Storage.UpdateGame(ctx, id, func(g *model.Game) error {
		if err := fn(g); err != nil {
			return err
		}
		if g.RematchGameID != "" && f.failures > 0 {
			f.failures--
			return errLinkFailed
		}
		return nil
	})
}
