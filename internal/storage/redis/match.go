package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

func (s *Storage) GetMatch(ctx context.Context, gameID model.GameID) (*model.Match, error) {
	var match *model.Match
	err := s.withRetry(ctx, func() (err error) {
		match, err = s.loadMatch(ctx, s.client, gameID)
		return err
	})
	return match, err
}

// UpdateMatch watches the game key, then every seated player's fleet, so a
// concurrent shot on either board aborts and replays this update.
func (s *Storage) UpdateMatch(ctx context.Context, gameID model.GameID, fn storage.MatchMutator) (*model.Match, error) {
	gKey := gameKey(gameID)
	var result *model.Match
	err := s.transact(ctx, func(tx *redis.Tx) error {
		game, err := getJSON[model.Game](ctx, tx, gKey, model.ErrGameNotFound)
		if err != nil {
			return err
		}
		if ids := game.PlayerIDs(); len(ids) > 0 {
			keys := make([]string, len(ids))
			for i, pid := range ids {
				keys[i] = fleetKey(gameID, pid)
			}
			if err := tx.Watch(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		match, err := s.loadMatch(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if err := fn(match); err != nil {
			return err
		}

		gameData, err := json.Marshal(match.Game)
		if err != nil {
			return err
		}
		fleetData := make(map[model.PlayerID][]byte, len(match.Fleets))
		for pid, fleet := range match.Fleets {
			if fleetData[pid], err = json.Marshal(fleet); err != nil {
				return err
			}
		}
		moveData := make([]any, len(match.NewMoves))
		for i, move := range match.NewMoves {
			data, err := json.Marshal(move)
			if err != nil {
				return err
			}
			moveData[i] = data
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gKey, gameData, s.cfg.GameTTL)
			for pid, data := range fleetData {
				s.queueFleetWrite(ctx, pipe, gameID, pid, data)
			}
			if len(moveData) > 0 {
				pipe.RPush(ctx, movesKey(gameID), moveData...)
				pipe.Expire(ctx, movesKey(gameID), s.cfg.GameTTL)
			}
			return nil
		})
		result = match
		return err
	}, gKey)
	return result, err
}

func (s *Storage) loadMatch(ctx context.Context, c getter, gameID model.GameID) (*model.Match, error) {
	game, err := getJSON[model.Game](ctx, c, gameKey(gameID), model.ErrGameNotFound)
	if err != nil {
		return nil, err
	}
	match := &model.Match{Game: game, Fleets: make(map[model.PlayerID]*model.Fleet)}
	for _, pid := range game.PlayerIDs() {
		fleet, err := getJSON[model.Fleet](ctx, c, fleetKey(gameID, pid), model.ErrFleetNotFound)
		if errors.Is(err, model.ErrFleetNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		match.Fleets[pid] = fleet
	}
	return match, nil
}

func (s *Storage) GetMoves(ctx context.Context, gameID model.GameID) ([]*model.Move, error) {
	var moves []*model.Move
	err := s.withRetry(ctx, func() error {
		values, err := s.client.LRange(ctx, movesKey(gameID), 0, -1).Result()
		if err != nil {
			return err
		}
		moves = make([]*model.Move, 0, len(values))
		for _, val := range values {
			var move model.Move
			if err := json.Unmarshal([]byte(val), &move); err != nil {
				return err
			}
			moves = append(moves, &move)
		}
		return nil
	})
	return moves, err
}
