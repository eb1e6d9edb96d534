package factory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/realtime"
	redisstorage "github.com/mcoot/fleetgame-go/internal/storage/redis"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

func cell(id string) model.Position {
	p, err := model.ParsePosition(id)
	if err != nil {
		panic(err)
	}
	return p
}

// stackedCells lists every ship cell of the stacked layout on a 10x10 board
var stackedCells = []string{"B1", "B2", "B3", "B4", "B5", "D1", "D2", "D3", "D4", "F1", "F2", "F3"}

// bobMisses are empty cells on alice's stacked board
var bobMisses = []string{
	"H1", "H2", "H3", "H4", "H5", "H6", "H7", "H8", "H9", "H10",
	"I1", "I2", "I3", "I4", "I5", "I6", "I7", "I8", "I9", "I10",
}

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close(context.Background()))
}

func (s *IntegrationSuite) guest(name string) model.Player {
	sess, err := s.app.AuthService.CreateGuestPlayer(s.ctx, name)
	s.Require().NoError(err)
	return sess.Player
}

func (s *IntegrationSuite) placeStacked(id model.GameID, pid model.PlayerID) {
	for i, origin := range testutil.StackedOrigins(3) {
		_, err := s.app.Engine.PlaceShip(s.ctx, id, pid, origin, []int{5, 4, 3}[i], model.Horizontal)
		s.Require().NoError(err)
	}
}

// Test: a classic match from lobby creation through the win and a rematch
func (s *IntegrationSuite) TestClassicMatchFlow() {
	s.app.MockRandom.QueueString("LOBBY1", "LOBBY2")

	alice := s.guest("Alice")
	bob := s.guest("Bob")

	// Step 1: alice hosts, bob joins
	lobby, g, err := s.app.LobbyController.CreateLobby(s.ctx, alice, model.ModeClassic, 10)
	s.Require().NoError(err)
	s.Equal(model.LobbyCode("LOBBY1"), lobby.Code)
	s.Equal(model.LobbyWaiting, lobby.Status)

	lobby, g, err = s.app.LobbyController.JoinLobby(s.ctx, lobby.Code, bob)
	s.Require().NoError(err)
	s.Equal(model.LobbyReady, lobby.Status)
	s.True(g.IsFull())

	snap, err := s.app.Engine.Snapshot(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal(model.PhasePlacing, snap.Phase)
	s.Equal([]int{5, 4, 3}, snap.Remaining)

	// Step 2: both place and ready up, alice moves first
	s.placeStacked(g.ID, alice.ID)
	s.placeStacked(g.ID, bob.ID)

	_, err = s.app.Engine.MarkReady(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	snap, err = s.app.Engine.Snapshot(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseWaiting, snap.Phase)

	s.app.MockRandom.QueueIntn(0)
	started, err := s.app.Engine.MarkReady(s.ctx, g.ID, bob.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusInProgress, started.Status)
	s.Equal(alice.ID, started.TurnPlayerID)

	_, err = s.app.LobbyController.GetLobby(s.ctx, lobby.Code)
	s.ErrorIs(err, model.ErrLobbyNotFound)

	// Step 3: alice hits B4, bob misses E1
	out, err := s.app.Engine.FireShot(s.ctx, g.ID, alice.ID, cell("B4"))
	s.Require().NoError(err)
	s.Equal(model.ResultHit, out.Cells[0].Result)
	s.Equal(bob.ID, out.NextTurn)

	_, err = s.app.Engine.FireShot(s.ctx, g.ID, alice.ID, cell("B5"))
	s.ErrorIs(err, model.ErrNotYourTurn)

	out, err = s.app.Engine.FireShot(s.ctx, g.ID, bob.ID, cell("E1"))
	s.Require().NoError(err)
	s.Equal(model.ResultMiss, out.Cells[0].Result)
	s.Equal(alice.ID, out.NextTurn)

	snap, err = s.app.Engine.Snapshot(s.ctx, g.ID, bob.ID)
	s.Require().NoError(err)
	s.Equal(model.CellHit, snap.OwnBoard[1][3])
	s.Equal(model.CellMiss, snap.OpponentBoard[4][0])

	// Step 4: alice sinks the rest while bob keeps missing
	misses := bobMisses
	for _, c := range stackedCells {
		if c == "B4" {
			continue
		}
		out, err = s.app.Engine.FireShot(s.ctx, g.ID, alice.ID, cell(c))
		s.Require().NoError(err, "alice fires %s", c)
		if out.Winner != "" {
			break
		}
		_, err = s.app.Engine.FireShot(s.ctx, g.ID, bob.ID, cell(misses[0]))
		s.Require().NoError(err, "bob fires %s", misses[0])
		misses = misses[1:]
	}
	s.Equal(alice.ID, out.Winner)

	snap, err = s.app.Engine.Snapshot(s.ctx, g.ID, bob.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseEnded, snap.Phase)
	s.Equal(alice.ID, snap.WinnerID)
	s.Zero(snap.OpponentSunk)

	snap, err = s.app.Engine.Snapshot(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal(3, snap.OpponentSunk)

	moves, err := s.app.GameController.GetMoves(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Len(moves, 2*len(stackedCells)-1)

	_, err = s.app.Engine.FireShot(s.ctx, g.ID, bob.ID, cell("J1"))
	s.ErrorIs(err, model.ErrInvalidPhase)

	// Step 5: both ask for a rematch
	pending, err := s.app.Engine.RequestRematch(s.ctx, g.ID, bob.ID)
	s.Require().NoError(err)
	s.Empty(pending.RematchGameID)

	snap, err = s.app.Engine.Snapshot(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseRematchPending, snap.Phase)

	linked, err := s.app.Engine.RequestRematch(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	s.Require().NotEmpty(linked.RematchGameID)
	s.Equal(model.LobbyCode("LOBBY2"), linked.RematchLobbyCode)

	next, err := s.app.GameController.GetGame(s.ctx, linked.RematchGameID)
	s.Require().NoError(err)
	s.Equal(model.ModeClassic, next.Mode)
	s.Equal(10, next.BoardSize)
	s.True(next.IsFull())
	s.Equal(alice.ID, next.Host())

	snap, err = s.app.Engine.Snapshot(s.ctx, next.ID, bob.ID)
	s.Require().NoError(err)
	s.Equal(model.PhasePlacing, snap.Phase)
}

// Test: an outsider can neither join a full lobby nor act in its game
func (s *IntegrationSuite) TestOutsiderIsRejected() {
	alice := s.guest("Alice")
	bob := s.guest("Bob")
	carol := s.guest("Carol")

	lobby, g, err := s.app.LobbyController.CreateLobby(s.ctx, alice, model.ModeStreak, 10)
	s.Require().NoError(err)
	_, _, err = s.app.LobbyController.JoinLobby(s.ctx, lobby.Code, bob)
	s.Require().NoError(err)

	_, _, err = s.app.LobbyController.JoinLobby(s.ctx, lobby.Code, carol)
	s.ErrorIs(err, model.ErrLobbyFull)

	_, err = s.app.Engine.PlaceRandom(s.ctx, g.ID, carol.ID)
	s.ErrorIs(err, model.ErrNotInGame)
	_, err = s.app.Engine.Snapshot(s.ctx, g.ID, carol.ID)
	s.ErrorIs(err, model.ErrNotInGame)
}

// RedisIntegrationSuite runs two application instances against one Redis,
// the way two server replicas would share a deployment
type RedisIntegrationSuite struct {
	suite.Suite
	mini *miniredis.Miniredis
	a    *TestApp
	b    *TestApp
	ctx  context.Context
}

func TestRedisIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) newInstance(idPrefix string) *TestApp {
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	cfg := redisstorage.DefaultConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxAttempts = 2
	return NewTestAppWithStorage(redisstorage.NewWithClient(client, cfg), idPrefix)
}

func (s *RedisIntegrationSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.a = s.newInstance("a")
	s.b = s.newInstance("b")
	s.ctx = context.Background()
}

func (s *RedisIntegrationSuite) TearDownTest() {
	s.NoError(s.a.Close(context.Background()))
	s.NoError(s.b.Close(context.Background()))
}

// startMatch seats alice through instance a and bob through instance b, then
// plays placement to the start of a classic match with alice to move
func (s *RedisIntegrationSuite) startMatch(alice, bob model.Player) model.GameID {
	lobby, _, err := s.a.LobbyController.CreateLobby(s.ctx, alice, model.ModeClassic, 10)
	s.Require().NoError(err)
	_, g, err := s.b.LobbyController.JoinLobby(s.ctx, lobby.Code, bob)
	s.Require().NoError(err)

	_, err = s.a.Engine.PlaceRandom(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	_, err = s.b.Engine.PlaceRandom(s.ctx, g.ID, bob.ID)
	s.Require().NoError(err)

	_, err = s.a.Engine.MarkReady(s.ctx, g.ID, alice.ID)
	s.Require().NoError(err)
	s.a.MockRandom.QueueIntn(0)
	s.b.MockRandom.QueueIntn(0)
	started, err := s.b.Engine.MarkReady(s.ctx, g.ID, bob.ID)
	s.Require().NoError(err)
	s.Require().Equal(alice.ID, started.TurnPlayerID)
	return g.ID
}

func (s *RedisIntegrationSuite) TestInstancesConvergeOnOneMatch() {
	alice := model.Player{ID: "alice", DisplayName: "Alice"}
	bob := model.Player{ID: "bob", DisplayName: "Bob"}
	id := s.startMatch(alice, bob)

	out, err := s.a.Engine.FireShot(s.ctx, id, alice.ID, cell("A1"))
	s.Require().NoError(err)
	s.Equal(bob.ID, out.NextTurn)

	snap, err := s.b.Engine.Snapshot(s.ctx, id, bob.ID)
	s.Require().NoError(err)
	s.True(snap.YourTurn)
	s.True(snap.OwnBoard[0][0].Resolved())

	_, err = s.a.Engine.FireShot(s.ctx, id, alice.ID, cell("A2"))
	s.ErrorIs(err, model.ErrNotYourTurn)

	_, err = s.b.Engine.FireShot(s.ctx, id, bob.ID, cell("J10"))
	s.Require().NoError(err)

	moves, err := s.a.GameController.GetMoves(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(moves, 2)
	s.Equal(alice.ID, moves[0].By)
	s.Equal(bob.ID, moves[1].By)
}

func (s *RedisIntegrationSuite) TestShotOnOneInstanceIsPushedFromTheOther() {
	alice := model.Player{ID: "alice", DisplayName: "Alice"}
	bob := model.Player{ID: "bob", DisplayName: "Bob"}
	id := s.startMatch(alice, bob)

	// bob watches through instance b
	hub := s.b.HubManager.GetOrCreateHub(id)
	client := realtime.NewClient(hub, bob.ID, "sse")
	hub.Register(client)
	_, err := s.b.Engine.Snapshot(s.ctx, id, bob.ID)
	s.Require().NoError(err)

	_, err = s.a.Engine.FireShot(s.ctx, id, alice.ID, cell("C3"))
	s.Require().NoError(err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-client.Messages():
			s.Require().True(ok, "client closed")
			if msg.Type != realtime.TypeSnapshot {
				continue
			}
			var snap model.Snapshot
			s.Require().NoError(json.Unmarshal(msg.Data, &snap))
			if snap.OwnBoard[2][2].Resolved() {
				s.True(snap.YourTurn)
				return
			}
		case <-deadline:
			s.FailNow("shot from instance a never reached bob on instance b")
		}
	}
}

func (s *RedisIntegrationSuite) TestConcurrentRematchAcrossInstancesCreatesOneGame() {
	alice := model.Player{ID: "alice", DisplayName: "Alice"}
	bob := model.Player{ID: "bob", DisplayName: "Bob"}
	id := s.startMatch(alice, bob)

	_, err := s.a.Storage.UpdateGame(s.ctx, id, func(g *model.Game) error {
		g.Status = model.StatusFinished
		g.WinnerID = bob.ID
		g.TurnPlayerID = ""
		return nil
	})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	results := make([]*model.Game, 2)
	errs := make([]error, 2)
	for i, app := range []*TestApp{s.a, s.b} {
		wg.Add(1)
		go func(i int, app *TestApp, pid model.PlayerID) {
			defer wg.Done()
			results[i], errs[i] = app.RematchCoordinator.RequestRematch(s.ctx, id, pid)
		}(i, app, []model.PlayerID{alice.ID, bob.ID}[i])
	}
	wg.Wait()
	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])

	g, err := s.b.GameController.GetGame(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotEmpty(g.RematchGameID)

	var games []string
	for _, key := range s.mini.Keys() {
		if strings.HasPrefix(key, "fleet:game:") {
			games = append(games, key)
		}
	}
	s.Len(games, 2)
	s.Contains(games, "fleet:game:"+string(g.RematchGameID))
}
