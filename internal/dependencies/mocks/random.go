package mocks

import (
	"sync"

	"github.com/mcoot/fleetgame-go/internal/dependencies/random"
)

// MockRandom replays queued results. Once a queue is drained it falls back
// to Fallback, or to 0 / "" when Fallback is nil.
type MockRandom struct {
	mu sync.Mutex

	intnResults   []int
	stringResults []string

	Fallback random.Random
}

var _ random.Random = (*MockRandom)(nil)

func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result reduced into [0, n)
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	if len(r.intnResults) > 0 {
		result := r.intnResults[0]
		r.intnResults = r.intnResults[1:]
		r.mu.Unlock()
		if n <= 0 {
			return 0
		}
		return result % n
	}
	fallback := r.Fallback
	r.mu.Unlock()

	if fallback != nil {
		return fallback.Intn(n)
	}
	return 0
}

func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	if len(r.stringResults) > 0 {
		result := r.stringResults[0]
		r.stringResults = r.stringResults[1:]
		r.mu.Unlock()
		return result
	}
	fallback := r.Fallback
	r.mu.Unlock()

	if fallback != nil {
		return fallback.String(length, alphabet)
	}
	return ""
}

func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = append(r.intnResults, values...)
}

func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stringResults = append(r.stringResults, values...)
}

// Reset drops every queued result
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = nil
	r.stringResults = nil
}
