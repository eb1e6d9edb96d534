package model

import "time"

// LobbyCode is a short human-readable code used to join a game
type LobbyCode string

// LobbyStatus tracks whether the lobby is still looking for an opponent
type LobbyStatus string

const (
	LobbyWaiting LobbyStatus = "waiting" // one seat taken
	LobbyReady   LobbyStatus = "ready"   // both seats taken, players are placing
)

// Lobby is the pre-match rendezvous record. It is removed once its game starts.
type Lobby struct {
	Code      LobbyCode
	GameID    GameID
	Mode      GameMode
	BoardSize int
	Status    LobbyStatus
	HostID    PlayerID
	CreatedAt time.Time
	UpdatedAt time.Time
}
