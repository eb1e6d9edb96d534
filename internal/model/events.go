package model

import "time"

// EventType identifies what changed in a game
type EventType string

const (
	EventPlayerJoined     EventType = "player_joined"
	EventFleetUpdated     EventType = "fleet_updated"
	EventPlayerReady      EventType = "player_ready"
	EventGameStarted      EventType = "game_started"
	EventShotFired        EventType = "shot_fired"
	EventPowerShotFired   EventType = "power_shot_fired"
	EventGameFinished     EventType = "game_finished"
	EventRematchRequested EventType = "rematch_requested"
	EventRematchReady     EventType = "rematch_ready"
)

// Event is published on a game's channel after every committed change.
// Subscribers re-read the store; the event only says what happened.
type Event struct {
	Type      EventType
	GameID    GameID
	PlayerID  PlayerID
	Cell      string
	NewGameID GameID
	Timestamp time.Time
}
