package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/game"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

var errSessionStopped = errors.New("session stopped")

// Rematcher records rematch requests
type Rematcher interface {
	RequestRematch(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error)
}

// Manager owns the live sessions of this instance, one per game, and is the
// entry point for every in-game player action.
type Manager struct {
	storage   storage.Storage
	games     game.ControllerInterface
	rematches Rematcher
	presenter Presenter
	clock     clock.Clock
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[model.GameID]*Session
}

func NewManager(
	storage storage.Storage,
	games game.ControllerInterface,
	rematches Rematcher,
	presenter Presenter,
	clock clock.Clock,
	logger *slog.Logger,
) *Manager {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	return &Manager{
		storage:   storage,
		games:     games,
		rematches: rematches,
		presenter: presenter,
		clock:     clock,
		logger:    logger.With(slog.String("component", "engine")),
		sessions:  make(map[model.GameID]*Session),
	}
}

// session returns the running session for id, starting one if the game exists
func (m *Manager) session(ctx context.Context, id model.GameID) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	if _, err := m.storage.GetGame(ctx, id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := newSession(id, m.storage, m.presenter, m.clock, m.logger)
	m.sessions[id] = s
	s.Start()
	return s, nil
}

func submit[T any](ctx context.Context, m *Manager, id model.GameID, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for {
		s, err := m.session(ctx, id)
		if err != nil {
			return zero, err
		}
		value, err := s.submit(ctx, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
		if errors.Is(err, errSessionStopped) {
			// Evicted between lookup and submit; the next lookup starts a new one.
			m.forget(id, s)
			continue
		}
		if err != nil {
			return zero, err
		}
		return value.(T), nil
	}
}

func (m *Manager) PlaceShip(ctx context.Context, id model.GameID, playerID model.PlayerID, origin model.Position, length int, orientation model.Orientation) (*model.Fleet, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*model.Fleet, error) {
		return m.games.PlaceShip(ctx, id, playerID, origin, length, orientation)
	})
}

func (m *Manager) PlaceRandom(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*model.Fleet, error) {
		return m.games.PlaceRandom(ctx, id, playerID)
	})
}

func (m *Manager) ResetPlacement(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*model.Fleet, error) {
		return m.games.ResetPlacement(ctx, id, playerID)
	})
}

func (m *Manager) MarkReady(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*model.Game, error) {
		return m.games.MarkReady(ctx, id, playerID)
	})
}

func (m *Manager) FireShot(ctx context.Context, id model.GameID, shooter model.PlayerID, cell model.Position) (*game.ShotOutcome, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*game.ShotOutcome, error) {
		return m.games.FireShot(ctx, id, shooter, cell)
	})
}

func (m *Manager) UsePowerShot(ctx context.Context, id model.GameID, shooter model.PlayerID, center model.Position) (*game.ShotOutcome, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*game.ShotOutcome, error) {
		return m.games.UsePowerShot(ctx, id, shooter, center)
	})
}

func (m *Manager) RequestRematch(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error) {
	return submit(ctx, m, id, func(ctx context.Context) (*model.Game, error) {
		return m.rematches.RequestRematch(ctx, id, playerID)
	})
}

// Snapshot returns what viewer may see of the game right now
func (m *Manager) Snapshot(ctx context.Context, id model.GameID, viewer model.PlayerID) (model.Snapshot, error) {
	return submit(ctx, m, id, func(ctx context.Context) (model.Snapshot, error) {
		match, err := m.games.GetMatch(ctx, id)
		if err != nil {
			return model.Snapshot{}, err
		}
		if !match.Game.HasPlayer(viewer) {
			return model.Snapshot{}, fmt.Errorf("%w: %s", model.ErrNotInGame, viewer)
		}
		return model.BuildSnapshot(match, viewer), nil
	})
}

// EvictIdle stops sessions that have seen no activity for longer than idle
// and returns how many were stopped. Games for which keep reports true stay
// open regardless; keep may be nil.
func (m *Manager) EvictIdle(idle time.Duration, keep func(model.GameID) bool) int {
	cutoff := m.clock.Now().Add(-idle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if keep != nil && keep(id) {
			continue
		}
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Stop()
	}
	if len(stale) > 0 {
		m.logger.Info("idle sessions evicted", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// SessionCount returns the number of live sessions
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops every session and waits for their loops to exit
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Manager) forget(id model.GameID, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[id] == s {
		delete(m.sessions, id)
	}
}
