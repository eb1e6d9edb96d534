// Package storagetest holds the behaviour every storage.Storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

// Suite is embedded by backend test suites. The embedding suite sets Storage
// in its SetupTest before calling Suite.SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Ctx = context.Background()
}

func (s *Suite) seedGame(id model.GameID) *model.Game {
	game := &model.Game{
		ID:        id,
		LobbyCode: "ABC123",
		Mode:      model.ModeClassic,
		BoardSize: 10,
		Status:    model.StatusWaiting,
		Seats: []model.Seat{
			{Player: model.Player{ID: "p1", DisplayName: "Alice"}, Slot: 0},
			{Player: model.Player{ID: "p2", DisplayName: "Bob"}, Slot: 1},
		},
		RematchRequests: map[model.PlayerID]bool{},
	}
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, game))
	for _, pid := range game.PlayerIDs() {
		s.Require().NoError(s.Storage.SaveFleet(s.Ctx, model.NewFleet(id, pid, game.Mode, game.BoardSize)))
	}
	return game
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice", CreatedAt: time.Now()}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player))

	got, err := s.Storage.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)

	s.Require().NoError(s.Storage.DeletePlayer(s.Ctx, "player-1"))
	_, err = s.Storage.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{PlayerID: "player-1", Username: "alice", PasswordHash: "hash"}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	got, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), got.PlayerID)

	_, err = s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Lobby tests

func (s *Suite) TestCreateLobbyRejectsDuplicateCode() {
	lobby := &model.Lobby{Code: "ABC123", GameID: "g1", Status: model.LobbyWaiting}
	s.Require().NoError(s.Storage.CreateLobby(s.Ctx, lobby))

	err := s.Storage.CreateLobby(s.Ctx, &model.Lobby{Code: "ABC123", GameID: "g2"})
	s.ErrorIs(err, model.ErrLobbyExists)

	got, err := s.Storage.GetLobby(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.GameID("g1"), got.GameID)
}

func (s *Suite) TestUpdateAndDeleteLobby() {
	s.Require().NoError(s.Storage.CreateLobby(s.Ctx, &model.Lobby{Code: "ABC123", Status: model.LobbyWaiting}))

	updated, err := s.Storage.UpdateLobby(s.Ctx, "ABC123", func(l *model.Lobby) error {
		l.Status = model.LobbyReady
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.LobbyReady, updated.Status)

	s.Require().NoError(s.Storage.DeleteLobby(s.Ctx, "ABC123"))
	_, err = s.Storage.GetLobby(s.Ctx, "ABC123")
	s.ErrorIs(err, model.ErrLobbyNotFound)

	_, err = s.Storage.UpdateLobby(s.Ctx, "ABC123", func(*model.Lobby) error { return nil })
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

// Game tests

func (s *Suite) TestUpdateGameRejectedLeavesRecordUnchanged() {
	s.seedGame("g1")
	reject := errors.New("reject")

	_, err := s.Storage.UpdateGame(s.Ctx, "g1", func(g *model.Game) error {
		g.Status = model.StatusFinished
		return reject
	})
	s.ErrorIs(err, reject)

	got, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Equal(model.StatusWaiting, got.Status)
}

func (s *Suite) TestUpdateGameNotFound() {
	_, err := s.Storage.UpdateGame(s.Ctx, "missing", func(*model.Game) error { return nil })
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestConcurrentUpdateGameLosesNoWrites() {
	s.seedGame("g1")
	players := []model.PlayerID{"a", "b", "c", "d", "e"}

	var wg sync.WaitGroup
	for _, pid := range players {
		wg.Add(1)
		go func(pid model.PlayerID) {
			defer wg.Done()
			_, err := s.Storage.UpdateGame(s.Ctx, "g1", func(g *model.Game) error {
				g.RematchRequests[pid] = true
				return nil
			})
			s.NoError(err)
		}(pid)
	}
	wg.Wait()

	got, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Len(got.RematchRequests, len(players))
}

func (s *Suite) TestSetOnceUnderContention() {
	s.seedGame("g1")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.UpdateGame(s.Ctx, "g1", func(g *model.Game) error {
				if g.RematchStarted {
					return model.ErrInvalidPhase
				}
				g.RematchStarted = true
				return nil
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)
}

// Fleet tests

func (s *Suite) TestFleetRoundTrip() {
	fleet := model.NewFleet("g1", "p1", model.ModeClassic, 10)
	fleet.Place([]model.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}, {Row: 0, Col: 4}})
	s.Require().NoError(s.Storage.SaveFleet(s.Ctx, fleet))

	got, err := s.Storage.GetFleet(s.Ctx, "g1", "p1")
	s.Require().NoError(err)
	s.Equal(model.CellShip, got.At(model.Position{Row: 0, Col: 4}))
	s.Len(got.Ships, 1)
	s.Equal([]int{0, 4, 3}, got.Remaining)

	_, err = s.Storage.GetFleet(s.Ctx, "g1", "p2")
	s.ErrorIs(err, model.ErrFleetNotFound)
}

func (s *Suite) TestGetFleetsForGame() {
	s.seedGame("g1")
	s.seedGame("g2")

	fleets, err := s.Storage.GetFleetsForGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Len(fleets, 2)
	for _, f := range fleets {
		s.Equal(model.GameID("g1"), f.GameID)
	}
}

func (s *Suite) TestUpdateFleet() {
	s.seedGame("g1")

	got, err := s.Storage.UpdateFleet(s.Ctx, "g1", "p1", func(f *model.Fleet) error {
		f.Power = 2
		return nil
	})
	s.Require().NoError(err)
	s.Equal(2, got.Power)

	_, err = s.Storage.UpdateFleet(s.Ctx, "g1", "nobody", func(*model.Fleet) error { return nil })
	s.ErrorIs(err, model.ErrFleetNotFound)
}

// Match tests

func (s *Suite) TestUpdateMatchCommitsGameFleetsAndMoves() {
	s.seedGame("g1")

	_, err := s.Storage.UpdateMatch(s.Ctx, "g1", func(m *model.Match) error {
		s.Len(m.Fleets, 2)
		m.Game.Status = model.StatusInProgress
		m.Fleet("p2").Set(model.Position{Row: 1, Col: 1}, model.CellMiss)
		m.Record(&model.Move{ID: "m1", GameID: "g1", By: "p1", Cell: model.Position{Row: 1, Col: 1}, Result: model.ResultMiss})
		return nil
	})
	s.Require().NoError(err)

	game, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Equal(model.StatusInProgress, game.Status)

	fleet, err := s.Storage.GetFleet(s.Ctx, "g1", "p2")
	s.Require().NoError(err)
	s.Equal(model.CellMiss, fleet.At(model.Position{Row: 1, Col: 1}))

	moves, err := s.Storage.GetMoves(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(moves, 1)
	s.Equal(model.MoveID("m1"), moves[0].ID)
}

func (s *Suite) TestUpdateMatchRejectedWritesNothing() {
	s.seedGame("g1")

	_, err := s.Storage.UpdateMatch(s.Ctx, "g1", func(m *model.Match) error {
		m.Fleet("p2").Set(model.Position{Row: 1, Col: 1}, model.CellMiss)
		m.Record(&model.Move{ID: "m1"})
		return model.ErrAlreadyShot
	})
	s.ErrorIs(err, model.ErrAlreadyShot)

	fleet, err := s.Storage.GetFleet(s.Ctx, "g1", "p2")
	s.Require().NoError(err)
	s.Equal(model.CellEmpty, fleet.At(model.Position{Row: 1, Col: 1}))

	moves, err := s.Storage.GetMoves(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Empty(moves)
}

func (s *Suite) TestConcurrentUpdateMatchResolvesCellOnce() {
	s.seedGame("g1")
	target := model.Position{Row: 3, Col: 3}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		already int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Storage.UpdateMatch(s.Ctx, "g1", func(m *model.Match) error {
				f := m.Fleet("p2")
				if f.At(target).Resolved() {
					return model.ErrAlreadyShot
				}
				f.Set(target, model.CellMiss)
				m.Record(&model.Move{ID: model.MoveID(string(rune('a' + i))), GameID: "g1", Cell: target, Result: model.ResultMiss})
				return nil
			})
			if errors.Is(err, model.ErrAlreadyShot) {
				mu.Lock()
				already++
				mu.Unlock()
			} else {
				s.NoError(err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(3, already)
	moves, err := s.Storage.GetMoves(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Len(moves, 1)
}

// Notification tests

func (s *Suite) TestPublishReachesSubscribersOfThatGame() {
	ctx, cancel := context.WithCancel(s.Ctx)
	defer cancel()

	events, err := s.Storage.Subscribe(ctx, "g1")
	s.Require().NoError(err)
	other, err := s.Storage.Subscribe(ctx, "g2")
	s.Require().NoError(err)

	s.Require().NoError(s.Storage.Publish(s.Ctx, model.Event{Type: model.EventShotFired, GameID: "g1", PlayerID: "p1", Cell: "B4"}))

	select {
	case ev := <-events:
		s.Equal(model.EventShotFired, ev.Type)
		s.Equal("B4", ev.Cell)
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for event")
	}

	select {
	case ev := <-other:
		s.Failf("unexpected event", "%+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *Suite) TestSubscriptionClosesWithContext() {
	ctx, cancel := context.WithCancel(s.Ctx)
	events, err := s.Storage.Subscribe(ctx, "g1")
	s.Require().NoError(err)
	cancel()

	s.Eventually(func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
