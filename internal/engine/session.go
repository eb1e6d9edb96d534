package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mcoot/fleetgame-go/internal/dependencies/clock"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/storage"
)

const inboxSize = 64

// intent is one player request queued on a session
type intent struct {
	ctx   context.Context
	apply func(ctx context.Context) (any, error)
	reply chan result
}

type result struct {
	value any
	err   error
}

// Session serialises every intent for one game on a single goroutine and
// re-renders both players whenever the stored game changes, whichever
// instance made the change.
type Session struct {
	gameID    model.GameID
	storage   storage.Storage
	presenter Presenter
	clock     clock.Clock
	logger    *slog.Logger

	inbox      chan intent
	quit       chan struct{}
	done       chan struct{}
	stopped    atomic.Bool
	lastActive atomic.Int64
}

func newSession(gameID model.GameID, store storage.Storage, presenter Presenter, clk clock.Clock, logger *slog.Logger) *Session {
	s := &Session{
		gameID:    gameID,
		storage:   store,
		presenter: presenter,
		clock:     clk,
		logger:    logger.With(slog.String("game_id", string(gameID))),
		inbox:     make(chan intent, inboxSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.touch()
	return s
}

// Start subscribes to the game's events and runs the session loop until Stop
// is called. The subscription is in place before Start returns.
func (s *Session) Start() {
	subCtx, cancel := context.WithCancel(context.Background())
	events, err := s.storage.Subscribe(subCtx, s.gameID)
	if err != nil {
		// Intents still work; players just won't get pushed updates.
		s.logger.Warn("session subscribe failed", slog.Any("error", err))
	}
	go s.run(subCtx, cancel, events)
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, events <-chan model.Event) {
	defer close(s.done)
	defer cancel()

	s.logger.Debug("session started")
	s.render(ctx)
	for {
		select {
		case <-s.quit:
			s.logger.Debug("session stopped")
			return
		case in := <-s.inbox:
			s.handle(in)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.touch()
			s.logger.Debug("session event", slog.String("type", string(event.Type)))
			s.render(ctx)
		}
	}
}

func (s *Session) handle(in intent) {
	s.touch()
	// The caller may stop waiting, but a started intent always runs to completion.
	value, err := in.apply(context.WithoutCancel(in.ctx))
	in.reply <- result{value: value, err: err}
}

// render pushes a snapshot to every seated player
func (s *Session) render(ctx context.Context) {
	match, err := s.storage.GetMatch(ctx, s.gameID)
	if err != nil {
		s.logger.Warn("session render failed", slog.Any("error", err))
		return
	}
	for _, pid := range match.Game.PlayerIDs() {
		s.presenter.Present(ctx, model.BuildSnapshot(match, pid))
	}
}

// submit queues an intent and waits for its result
func (s *Session) submit(ctx context.Context, apply func(ctx context.Context) (any, error)) (any, error) {
	in := intent{ctx: ctx, apply: apply, reply: make(chan result, 1)}
	select {
	case s.inbox <- in:
	case <-s.quit:
		return nil, errSessionStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-in.reply:
		return res.value, res.err
	case <-s.done:
		select {
		case res := <-in.reply:
			return res.value, res.err
		default:
			return nil, errSessionStopped
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop ends the session loop. Safe to call more than once.
func (s *Session) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.quit)
	}
}

// Done is closed once the session loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) touch() {
	s.lastActive.Store(s.clock.Now().UnixNano())
}

// IdleSince reports when the session last handled an intent or event
func (s *Session) IdleSince() time.Time {
	return time.Unix(0, s.lastActive.Load()).UTC()
}
