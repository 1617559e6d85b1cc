// Package persistence provides the adapter used when no database is configured.
package persistence

import (
	"context"

	"github.com/hupe1980/agentruntime/core"
)

// Noop is a core.DatabaseAdapter whose calls succeed without storing anything.
// Queries return empty results; CreateMemory returns the memory's id,
// assigning one when empty.
type Noop struct{}

var _ core.DatabaseAdapter = Noop{}

func (Noop) EnsureWorld(context.Context, core.World) error   { return nil }
func (Noop) EnsureRoom(context.Context, core.Room) error     { return nil }
func (Noop) EnsureEntity(context.Context, core.Entity) error { return nil }

func (Noop) IsRoomParticipant(context.Context, string, string) (bool, error) { return false, nil }
func (Noop) AddParticipant(context.Context, string, string) error            { return nil }

func (Noop) CreateMemory(_ context.Context, memory *core.Memory, _ string) (string, error) {
	if memory == nil {
		return "", nil
	}
	if memory.ID == "" {
		memory.ID = core.NewID()
	}
	return memory.ID, nil
}

func (Noop) GetMemories(context.Context, core.MemoryQuery) ([]*core.Memory, error) { return nil, nil }

// OrNoop returns db, or Noop when db is nil.
func OrNoop(db core.DatabaseAdapter) core.DatabaseAdapter {
	if db == nil {
		return Noop{}
	}
	return db
}
