package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is the identity a client acts under. The engine treats the ID as opaque.
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool
	CreatedAt   time.Time
}

// RegisteredPlayer holds login credentials for a non-guest Player
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // immutable
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Seat binds a player to a slot of a game. Slot 0 is the creator.
type Seat struct {
	Player   Player
	Slot     int
	JoinedAt time.Time
}
