package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/fleetgame-go/internal/api/apierr"
	"github.com/mcoot/fleetgame-go/internal/api/response"
	"github.com/mcoot/fleetgame-go/internal/model"
	"github.com/mcoot/fleetgame-go/internal/services/game"
)

// Intents is the set of player actions a websocket client may submit
type Intents interface {
	PlaceShip(ctx context.Context, id model.GameID, playerID model.PlayerID, origin model.Position, length int, orientation model.Orientation) (*model.Fleet, error)
	PlaceRandom(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	ResetPlacement(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Fleet, error)
	MarkReady(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error)
	FireShot(ctx context.Context, id model.GameID, shooter model.PlayerID, cell model.Position) (*game.ShotOutcome, error)
	UsePowerShot(ctx context.Context, id model.GameID, shooter model.PlayerID, center model.Position) (*game.ShotOutcome, error)
	RequestRematch(ctx context.Context, id model.GameID, playerID model.PlayerID) (*model.Game, error)
	Snapshot(ctx context.Context, id model.GameID, viewer model.PlayerID) (model.Snapshot, error)
}

// Intent is a player action received over a websocket
type Intent struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	Cell        string `json:"cell,omitempty"`
	Orientation string `json:"orientation,omitempty"`
	Length      int    `json:"length,omitempty"`
}

// Intent types
const (
	IntentPlace    = "place"
	IntentRandom   = "random"
	IntentReset    = "reset"
	IntentReady    = "ready"
	IntentFire     = "fire"
	IntentPower    = "power"
	IntentRematch  = "rematch"
	IntentSnapshot = "snapshot"
)

// Ack answers a successful intent
type Ack struct {
	ID     string `json:"id,omitempty"`
	Intent string `json:"intent"`
	Result any    `json:"result,omitempty"`
}

// Failure answers a rejected intent
type Failure struct {
	ID      string `json:"id,omitempty"`
	Intent  string `json:"intent,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients are served from other origins; the bearer token
	// authenticates the connection.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and runs a duplex session for playerID:
// snapshots and intent replies go out, intents come in.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, gameID model.GameID, playerID model.PlayerID, intents Intents, logger *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := NewClient(hub, playerID, "websocket")
	hub.Register(client)
	replies := make(chan Message, sendBufferSize)
	stop := make(chan struct{})

	go writePump(conn, client, replies, stop)
	defer func() {
		hub.Unregister(client)
		close(stop)
	}()

	reply := func(msg Message) {
		select {
		case replies <- msg:
		case <-stop:
		}
	}

	if snap, err := intents.Snapshot(r.Context(), gameID, playerID); err == nil {
		if msg, err := NewMessage(TypeSnapshot, snap); err == nil {
			reply(msg)
		}
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in Intent
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read failed", slog.Any("error", err))
			}
			return
		}

		result, err := dispatch(r.Context(), intents, gameID, playerID, in)
		if err != nil {
			_, apiError := apierr.Lookup(err)
			msg, _ := NewMessage(TypeError, Failure{ID: in.ID, Intent: in.Type, Code: apiError.Code, Message: apiError.Message})
			reply(msg)
			continue
		}
		msg, err := NewMessage(TypeAck, Ack{ID: in.ID, Intent: in.Type, Result: result})
		if err != nil {
			logger.Error("ack encode failed", slog.Any("error", err))
			continue
		}
		reply(msg)
	}
}

// writePump owns every write on conn
func writePump(conn *websocket.Conn, client *Client, replies <-chan Message, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	write := func(msg Message) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(msg); err != nil {
				return
			}
		case msg := <-replies:
			if err := write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func dispatch(ctx context.Context, intents Intents, gameID model.GameID, playerID model.PlayerID, in Intent) (any, error) {
	switch in.Type {
	case IntentPlace:
		origin, err := model.ParsePosition(in.Cell)
		if err != nil {
			return nil, err
		}
		orientation, err := model.ParseOrientation(in.Orientation)
		if err != nil {
			return nil, apierr.NewInvalidRequestError(err.Error())
		}
		f, err := intents.PlaceShip(ctx, gameID, playerID, origin, in.Length, orientation)
		if err != nil {
			return nil, err
		}
		return response.FleetFromModel(f), nil

	case IntentRandom:
		f, err := intents.PlaceRandom(ctx, gameID, playerID)
		if err != nil {
			return nil, err
		}
		return response.FleetFromModel(f), nil

	case IntentReset:
		f, err := intents.ResetPlacement(ctx, gameID, playerID)
		if err != nil {
			return nil, err
		}
		return response.FleetFromModel(f), nil

	case IntentReady:
		g, err := intents.MarkReady(ctx, gameID, playerID)
		if err != nil {
			return nil, err
		}
		return response.GameFromModel(g), nil

	case IntentFire, IntentPower:
		cell, err := model.ParsePosition(in.Cell)
		if err != nil {
			return nil, err
		}
		var outcome *game.ShotOutcome
		if in.Type == IntentFire {
			outcome, err = intents.FireShot(ctx, gameID, playerID, cell)
		} else {
			outcome, err = intents.UsePowerShot(ctx, gameID, playerID, cell)
		}
		if err != nil {
			return nil, err
		}
		return response.ShotResultFromOutcome(outcome), nil

	case IntentRematch:
		g, err := intents.RequestRematch(ctx, gameID, playerID)
		if err != nil {
			return nil, err
		}
		return response.GameFromModel(g), nil

	case IntentSnapshot:
		return intents.Snapshot(ctx, gameID, playerID)
	}
	return nil, apierr.NewInvalidRequestError(fmt.Sprintf("unknown intent %q", in.Type))
}
