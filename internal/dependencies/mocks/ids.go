package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/fleetgame-go/internal/dependencies/ids"
)

// SequentialIDs yields "<prefix>-1", "<prefix>-2", ...
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

var _ ids.Generator = (*SequentialIDs)(nil)

func NewSequentialIDs(prefix string) *SequentialIDs {
	return &SequentialIDs{prefix: prefix}
}

func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
