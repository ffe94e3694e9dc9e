package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/battleship-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued tokens are handed out first; after that it falls back to
// deterministic "token-N" values so ids stay unique.
type MockRandom struct {
	mu         sync.Mutex
	tokens     []string
	tokenIndex int
	generated  int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Token returns the next queued token, or a generated one when the queue is empty
func (r *MockRandom) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokenIndex < len(r.tokens) {
		token := r.tokens[r.tokenIndex]
		r.tokenIndex++
		return token
	}
	r.generated++
	return fmt.Sprintf("token-%d", r.generated)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = nil
	r.tokenIndex = 0
	r.generated = 0
}
