package state

import (
	"context"
	"sync"

	"github.com/hupe1980/agentruntime/core"
)

// Cache stores the last composed State per room id.
type Cache interface {
	Get(ctx context.Context, roomID string) (*core.State, bool, error)
	Set(ctx context.Context, roomID string, st *core.State) error
	Delete(ctx context.Context, roomID string) error
}

// MemoryCache is a process-local Cache. Get returns the identical *State that
// was stored. Safe for concurrent access.
type MemoryCache struct {
	mu     sync.RWMutex
	states map[string]*core.State
}

// NewMemoryCache constructs an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{states: make(map[string]*core.State)}
}

func (c *MemoryCache) Get(_ context.Context, roomID string) (*core.State, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st, ok := c.states[roomID]

	return st, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, roomID string, st *core.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.states[roomID] = st

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.states, roomID)

	return nil
}

var _ Cache = (*MemoryCache)(nil)
