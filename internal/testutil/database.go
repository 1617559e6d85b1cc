package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentruntime/core"
)

// InMemoryDatabase is a naive process-local core.DatabaseAdapter.
//
// Memories are kept per table in insertion order; GetMemories returns the
// newest Count entries for a room (all when Count is zero). Protected by RWMutex.
type InMemoryDatabase struct {
	mu           sync.RWMutex
	worlds       map[string]core.World
	rooms        map[string]core.Room
	entities     map[string]core.Entity
	participants map[string]map[string]bool // roomID -> entityID
	memories     map[string][]*core.Memory   // table -> memories
	calls        map[string]int
}

// NewInMemoryDatabase creates an empty database.
func NewInMemoryDatabase() *InMemoryDatabase {
	return &InMemoryDatabase{
		worlds:       make(map[string]core.World),
		rooms:        make(map[string]core.Room),
		entities:     make(map[string]core.Entity),
		participants: make(map[string]map[string]bool),
		memories:     make(map[string][]*core.Memory),
		calls:        make(map[string]int),
	}
}

// Calls returns how often the named method was invoked.
func (d *InMemoryDatabase) Calls(method string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.calls[method]
}

func (d *InMemoryDatabase) EnsureWorld(_ context.Context, world core.World) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["EnsureWorld"]++
	d.worlds[world.ID] = world
	return nil
}

func (d *InMemoryDatabase) EnsureRoom(_ context.Context, room core.Room) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["EnsureRoom"]++
	d.rooms[room.ID] = room
	return nil
}

func (d *InMemoryDatabase) EnsureEntity(_ context.Context, entity core.Entity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["EnsureEntity"]++
	d.entities[entity.ID] = entity
	return nil
}

func (d *InMemoryDatabase) IsRoomParticipant(_ context.Context, roomID, entityID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.participants[roomID][entityID], nil
}

func (d *InMemoryDatabase) AddParticipant(_ context.Context, roomID, entityID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["AddParticipant"]++
	if _, ok := d.participants[roomID]; !ok {
		d.participants[roomID] = make(map[string]bool)
	}
	d.participants[roomID][entityID] = true
	return nil
}

func (d *InMemoryDatabase) CreateMemory(_ context.Context, memory *core.Memory, tableName string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls["CreateMemory"]++
	if memory.ID == "" {
		memory.ID = core.NewID()
	}
	clone := *memory
	d.memories[tableName] = append(d.memories[tableName], &clone)
	return memory.ID, nil
}

func (d *InMemoryDatabase) GetMemories(_ context.Context, query core.MemoryQuery) ([]*core.Memory, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*core.Memory
	for _, m := range d.memories[query.TableName] {
		if query.RoomID != "" && m.RoomID != query.RoomID {
			continue
		}
		if query.EntityID != "" && m.EntityID != query.EntityID {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}

	if query.Count > 0 && len(out) > query.Count {
		out = out[len(out)-query.Count:]
	}

	return out, nil
}

var _ core.DatabaseAdapter = (*InMemoryDatabase)(nil)
