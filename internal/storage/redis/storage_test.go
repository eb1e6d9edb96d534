package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini  *miniredis.Miniredis
	redis *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestPlayerTTL = time.Hour
	cfg.LobbyTTL = time.Hour
	cfg.GameTTL = time.Hour
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxAttempts = 2

	s.redis = NewWithClient(client, cfg)
	s.Storage = s.redis
	s.Suite.SetupTest()
}

func (s *StorageSuite) TearDownTest() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func (s *StorageSuite) TestGuestPlayerExpires() {
	s.Require().NoError(s.redis.SavePlayer(s.Ctx, &model.Player{ID: "guest", IsGuest: true}))
	s.Require().NoError(s.redis.SavePlayer(s.Ctx, &model.Player{ID: "member"}))

	s.Equal(time.Hour, s.mini.TTL(playerKey("guest")))
	s.Zero(s.mini.TTL(playerKey("member")))
}

func (s *StorageSuite) TestUpdateLobbyKeepsTTL() {
	s.Require().NoError(s.redis.CreateLobby(s.Ctx, &model.Lobby{Code: "ABC123"}))
	s.mini.FastForward(30 * time.Minute)

	_, err := s.redis.UpdateLobby(s.Ctx, "ABC123", func(l *model.Lobby) error {
		l.Status = model.LobbyReady
		return nil
	})
	s.Require().NoError(err)
	s.Equal(30*time.Minute, s.mini.TTL(lobbyKey("ABC123")))
}

func (s *StorageSuite) TestMovesAreAppendedToList() {
	s.Require().NoError(s.redis.CreateGame(s.Ctx, &model.Game{ID: "g1"}))

	for _, id := range []model.MoveID{"m1", "m2"} {
		_, err := s.redis.UpdateMatch(s.Ctx, "g1", func(m *model.Match) error {
			m.Record(&model.Move{ID: id, GameID: "g1"})
			return nil
		})
		s.Require().NoError(err)
	}

	items, err := s.mini.List(movesKey("g1"))
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *StorageSuite) TestUnreachableStoreIsUnavailable() {
	s.mini.Close()

	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()

	_, err := s.redis.GetGame(ctx, "g1")
	s.ErrorIs(err, model.ErrStoreUnavailable)

	_, err = s.redis.UpdateGame(ctx, "g1", func(*model.Game) error { return nil })
	s.ErrorIs(err, model.ErrStoreUnavailable)
}
