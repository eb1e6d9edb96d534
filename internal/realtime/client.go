package realtime

import (
	"time"

	"github.com/mcoot/fleetgame-go/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 25 * time.Second

	// Time allowed to read the next pong from a websocket peer
	pongWait = 60 * time.Second

	// Largest intent frame accepted from a websocket peer
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client is one connected stream of a player
type Client struct {
	hub         *Hub
	playerID    model.PlayerID
	transport   string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a new client
func NewClient(hub *Hub, playerID model.PlayerID, transport string) *Client {
	return &Client{
		hub:         hub,
		playerID:    playerID,
		transport:   transport,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Messages is the client's outgoing queue. It is closed when the client is
// unregistered or its hub closes.
func (c *Client) Messages() <-chan Message {
	return c.send
}
