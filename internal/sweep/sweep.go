package sweep

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mcoot/fleetgame-go/internal/model"
)

// Sessions evicts idle engine sessions
type Sessions interface {
	EvictIdle(idle time.Duration, keep func(model.GameID) bool) int
}

// Hubs tracks connected push clients
type Hubs interface {
	HasClients(gameID model.GameID) bool
	CleanupEmptyHubs() int
}

// Tokens expires auth sessions
type Tokens interface {
	CleanExpiredSessions() int
}

// Config controls the sweep
type Config struct {
	Interval    time.Duration
	IdleTimeout time.Duration
}

// Start schedules the periodic sweep and returns the running scheduler. The
// caller shuts it down.
func Start(cfg Config, sessions Sessions, hubs Hubs, tokens Tokens, logger *slog.Logger) (gocron.Scheduler, error) {
	logger = logger.With(slog.String("component", "sweeper"))

	sched, err := gocron.NewScheduler(gocron.WithLogger(gocron.NewLogger(gocron.LogLevelError)))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			evicted := sessions.EvictIdle(cfg.IdleTimeout, hubs.HasClients)
			hubsRemoved := hubs.CleanupEmptyHubs()
			expired := tokens.CleanExpiredSessions()
			if evicted+hubsRemoved+expired > 0 {
				logger.Info("sweep finished",
					slog.Int("sessions_evicted", evicted),
					slog.Int("hubs_removed", hubsRemoved),
					slog.Int("tokens_expired", expired))
			}
		}),
		gocron.WithName("sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
