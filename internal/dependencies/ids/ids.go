package ids

import "github.com/google/uuid"

// Generator produces unique identifiers for games and moves
type Generator interface {
	NewID() string
}

// UUID generates random (version 4) UUIDs
type UUID struct{}

func New() *UUID {
	return &UUID{}
}

func (UUID) NewID() string {
	return uuid.NewString()
}
