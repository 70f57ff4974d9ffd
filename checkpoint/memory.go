package checkpoint

import (
	"context"
	"sync"

	"github.com/arloliu/subpoll/types"
)

// Memory is an in-process Checkpointer.
type Memory struct {
	mu    sync.Mutex
	pos   types.Position
	saved bool
	saves int
}

var _ types.Checkpointer = (*Memory)(nil)

// NewMemory creates an empty Memory checkpointer.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the last saved position.
func (m *Memory) Load(_ context.Context) (types.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return types.Position{}, types.ErrNoCheckpoint
	}

	return m.pos, nil
}

// Save stores pos.
func (m *Memory) Save(_ context.Context, pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pos = pos
	m.saved = true
	m.saves++

	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}
