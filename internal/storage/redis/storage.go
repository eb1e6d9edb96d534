package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

var _ storage.Storage = (*Storage)(nil)

// getter is satisfied by both the client and a WATCH transaction
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, c getter, key string, notFound error) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}
	return s.withRetry(ctx, func() error {
		return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
	})
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player *model.Player
	err := s.withRetry(ctx, func() (err error) {
		player, err = getJSON[model.Player](ctx, s.client, playerKey(id), model.ErrPlayerNotFound)
		return err
	})
	return player, err
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.withRetry(ctx, func() error {
		return s.client.Del(ctx, playerKey(id)).Err()
	})
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
			pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
			return nil
		})
		return err
	})
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var rp *model.RegisteredPlayer
	err := s.withRetry(ctx, func() (err error) {
		rp, err = getJSON[model.RegisteredPlayer](ctx, s.client, registeredPlayerKey(playerID), model.ErrPlayerNotFound)
		return err
	})
	return rp, err
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	var playerID string
	err := s.withRetry(ctx, func() (err error) {
		playerID, err = s.client.Get(ctx, usernameIndexKey(username)).Result()
		if errors.Is(err, redis.Nil) {
			return model.ErrPlayerNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerID))
}

// Lobby operations

func (s *Storage) CreateLobby(ctx context.Context, lobby *model.Lobby) error {
	data, err := json.Marshal(lobby)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, func() error {
		ok, err := s.client.SetNX(ctx, lobbyKey(lobby.Code), data, s.cfg.LobbyTTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			return model.ErrLobbyExists
		}
		return nil
	})
}

func (s *Storage) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	var lobby *model.Lobby
	err := s.withRetry(ctx, func() (err error) {
		lobby, err = getJSON[model.Lobby](ctx, s.client, lobbyKey(code), model.ErrLobbyNotFound)
		return err
	})
	return lobby, err
}

func (s *Storage) UpdateLobby(ctx context.Context, code model.LobbyCode, fn storage.LobbyMutator) (*model.Lobby, error) {
	key := lobbyKey(code)
	var result *model.Lobby
	err := s.transact(ctx, func(tx *redis.Tx) error {
		lobby, err := getJSON[model.Lobby](ctx, tx, key, model.ErrLobbyNotFound)
		if err != nil {
			return err
		}
		if err := fn(lobby); err != nil {
			return err
		}
		data, err := json.Marshal(lobby)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		result = lobby
		return err
	}, key)
	return result, err
}

func (s *Storage) DeleteLobby(ctx context.Context, code model.LobbyCode) error {
	return s.withRetry(ctx, func() error {
		return s.client.Del(ctx, lobbyKey(code)).Err()
	})
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, func() error {
		return s.client.Set(ctx, gameKey(game.ID), data, s.cfg.GameTTL).Err()
	})
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game *model.Game
	err := s.withRetry(ctx, func() (err error) {
		game, err = getJSON[model.Game](ctx, s.client, gameKey(id), model.ErrGameNotFound)
		return err
	})
	return game, err
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutator) (*model.Game, error) {
	key := gameKey(id)
	var result *model.Game
	err := s.transact(ctx, func(tx *redis.Tx) error {
		game, err := getJSON[model.Game](ctx, tx, key, model.ErrGameNotFound)
		if err != nil {
			return err
		}
		if err := fn(game); err != nil {
			return err
		}
		data, err := json.Marshal(game)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.cfg.GameTTL)
			return nil
		})
		result = game
		return err
	}, key)
	return result, err
}

// Fleet operations

func (s *Storage) SaveFleet(ctx context.Context, fleet *model.Fleet) error {
	data, err := json.Marshal(fleet)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.queueFleetWrite(ctx, pipe, fleet.GameID, fleet.PlayerID, data)
			return nil
		})
		return err
	})
}

// queueFleetWrite stores a fleet and keeps the per-game index in sync
func (s *Storage) queueFleetWrite(ctx context.Context, pipe redis.Pipeliner, gameID model.GameID, playerID model.PlayerID, data []byte) {
	fKey := fleetKey(gameID, playerID)
	indexKey := fleetsForGameIndexKey(gameID)
	pipe.Set(ctx, fKey, data, s.cfg.GameTTL)
	pipe.SAdd(ctx, indexKey, fKey)
	pipe.Expire(ctx, indexKey, s.cfg.GameTTL)
}

func (s *Storage) GetFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	var fleet *model.Fleet
	err := s.withRetry(ctx, func() (err error) {
		fleet, err = getJSON[model.Fleet](ctx, s.client, fleetKey(gameID, playerID), model.ErrFleetNotFound)
		return err
	})
	return fleet, err
}

func (s *Storage) GetFleetsForGame(ctx context.Context, gameID model.GameID) ([]*model.Fleet, error) {
	var fleets []*model.Fleet
	err := s.withRetry(ctx, func() error {
		keys, err := s.client.SMembers(ctx, fleetsForGameIndexKey(gameID)).Result()
		if err != nil {
			return err
		}
		fleets = make([]*model.Fleet, 0, len(keys))
		if len(keys) == 0 {
			return nil
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		for _, val := range values {
			str, ok := val.(string)
			if !ok {
				continue // expired
			}
			var fleet model.Fleet
			if err := json.Unmarshal([]byte(str), &fleet); err != nil {
				return err
			}
			fleets = append(fleets, &fleet)
		}
		return nil
	})
	return fleets, err
}

func (s *Storage) UpdateFleet(ctx context.Context, gameID model.GameID, playerID model.PlayerID, fn storage.FleetMutator) (*model.Fleet, error) {
	key := fleetKey(gameID, playerID)
	var result *model.Fleet
	err := s.transact(ctx, func(tx *redis.Tx) error {
		fleet, err := getJSON[model.Fleet](ctx, tx, key, model.ErrFleetNotFound)
		if err != nil {
			return err
		}
		if err := fn(fleet); err != nil {
			return err
		}
		data, err := json.Marshal(fleet)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.queueFleetWrite(ctx, pipe, gameID, playerID, data)
			return nil
		})
		result = fleet
		return err
	}, key)
	return result, err
}
