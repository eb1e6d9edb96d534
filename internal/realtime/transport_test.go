package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/game"
	"github.com/mcoot/fleetgame-go/internal/testutil"
)

// fakeIntents records the intents it receives
type fakeIntents struct {
	mu    sync.Mutex
	shots []model.Position
}

func (f *fakeIntents) PlaceShip(_ context.Context, id model.GameID, pid model.PlayerID, origin model.Position, length int, o model.Orientation) (*model.Fleet, error) {
	fl := model.NewFleet(id, pid, model.ModeClassic, 10)
	return fl, nil
}

func (f *fakeIntents) PlaceRandom(_ context.Context, id model.GameID, pid model.PlayerID) (*model.Fleet, error) {
	return model.NewFleet(id, pid, model.ModeClassic, 10), nil
}

func (f *fakeIntents) ResetPlacement(_ context.Context, id model.GameID, pid model.PlayerID) (*model.Fleet, error) {
	return model.NewFleet(id, pid, model.ModeClassic, 10), nil
}

func (f *fakeIntents) MarkReady(context.Context, model.GameID, model.PlayerID) (*model.Game, error) {
	return nil, model.ErrFleetIncomplete
}

func (f *fakeIntents) FireShot(_ context.Context, _ model.GameID, shooter model.PlayerID, cell model.Position) (*game.ShotOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, prev := range f.shots {
		if prev == cell {
			return nil, model.ErrAlreadyShot
		}
	}
	f.shots = append(f.shots, cell)
	return &game.ShotOutcome{
		Cells:    []game.CellOutcome{{Cell: cell, Result: model.ResultMiss}},
		NextTurn: "bob",
	}, nil
}

func (f *fakeIntents) UsePowerShot(context.Context, model.GameID, model.PlayerID, model.Position) (*game.ShotOutcome, error) {
	return nil, model.ErrNoPower
}

func (f *fakeIntents) RequestRematch(context.Context, model.GameID, model.PlayerID) (*model.Game, error) {
	return nil, model.ErrInvalidPhase
}

func (f *fakeIntents) Snapshot(_ context.Context, id model.GameID, viewer model.PlayerID) (model.Snapshot, error) {
	return model.Snapshot{GameID: id, Viewer: viewer, Phase: model.PhasePlacing}, nil
}

func TestServeSSE(t *testing.T) {
	hubs := NewHubManager(testutil.NopLogger())
	defer hubs.CloseAll()
	hub := hubs.GetOrCreateHub("g1")

	initial, err := NewMessage(TypeSnapshot, model.Snapshot{GameID: "g1", Viewer: "alice"})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, hub, "alice", initial)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				events <- name
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case name := <-events:
			return name
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return ""
		}
	}

	assert.Equal(t, TypeConnected, next())
	assert.Equal(t, TypeSnapshot, next())

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.SendTo("alice", Message{Type: TypeSnapshot, Data: []byte(`{}`)})
	assert.Equal(t, TypeSnapshot, next())
}

func TestServeWS(t *testing.T) {
	hubs := NewHubManager(testutil.NopLogger())
	defer hubs.CloseAll()
	hub := hubs.GetOrCreateHub("g1")
	intents := &fakeIntents{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(w, r, hub, "g1", "alice", intents, testutil.NopLogger())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, TypeSnapshot, read().Type)

	require.NoError(t, conn.WriteJSON(Intent{ID: "1", Type: IntentFire, Cell: "B4"}))
	msg := read()
	require.Equal(t, TypeAck, msg.Type)
	var ack struct {
		ID     string `json:"id"`
		Result struct {
			Cells []struct {
				Cell   string `json:"cell"`
				Result string `json:"result"`
			} `json:"cells"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &ack))
	assert.Equal(t, "1", ack.ID)
	require.Len(t, ack.Result.Cells, 1)
	assert.Equal(t, "B4", ack.Result.Cells[0].Cell)
	assert.Equal(t, "miss", ack.Result.Cells[0].Result)

	require.NoError(t, conn.WriteJSON(Intent{ID: "2", Type: IntentFire, Cell: "b4"}))
	msg = read()
	require.Equal(t, TypeError, msg.Type)
	var failure Failure
	require.NoError(t, json.Unmarshal(msg.Data, &failure))
	assert.Equal(t, "2", failure.ID)
	assert.Equal(t, "ALREADY_SHOT", failure.Code)

	require.NoError(t, conn.WriteJSON(Intent{Type: "teleport"}))
	msg = read()
	require.NoError(t, json.Unmarshal(msg.Data, &failure))
	assert.Equal(t, "INVALID_REQUEST", failure.Code)

	// Hub pushes reach the socket too.
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.SendTo("alice", Message{Type: TypeSnapshot, Data: []byte(`{"phase":"playing"}`)})
	msg = read()
	assert.Equal(t, TypeSnapshot, msg.Type)
	assert.JSONEq(t, `{"phase":"playing"}`, string(msg.Data))
}
