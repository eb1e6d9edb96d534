package sweep

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

type fakeSessions struct {
	calls atomic.Int32
	kept  atomic.Bool
}

func (f *fakeSessions) EvictIdle(idle time.Duration, keep func(model.GameID) bool) int {
	f.calls.Add(1)
	f.kept.Store(keep("watched"))
	return 1
}

type fakeHubs struct{ cleanups atomic.Int32 }

func (f *fakeHubs) HasClients(id model.GameID) bool { return id == "watched" }

func (f *fakeHubs) CleanupEmptyHubs() int {
	f.cleanups.Add(1)
	return 0
}

type fakeTokens struct{ calls atomic.Int32 }

func (f *fakeTokens) CleanExpiredSessions() int {
	f.calls.Add(1)
	return 0
}

func TestStartRunsEverySweep(t *testing.T) {
	sessions, hubs, tokens := &fakeSessions{}, &fakeHubs{}, &fakeTokens{}

	sched, err := Start(Config{Interval: 10 * time.Millisecond, IdleTimeout: time.Minute}, sessions, hubs, tokens, testutil.NopLogger())
	require.NoError(t, err)
	defer func() { _ = sched.Shutdown() }()

	require.Eventually(t, func() bool {
		return sessions.calls.Load() >= 2 && hubs.cleanups.Load() >= 2 && tokens.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, sessions.kept.Load())
}

func TestStartRejectsBadInterval(t *testing.T) {
	_, err := Start(Config{Interval: 0}, &fakeSessions{}, &fakeHubs{}, &fakeTokens{}, testutil.NopLogger())
	assert.Error(t, err)
}
