package core

import "context"

// World groups rooms (e.g. a server or a benchmark suite).
type World struct {
	ID      string
	Name    string
	AgentID string
}

// Room is a conversation scope. State caching is keyed by room id.
type Room struct {
	ID      string
	WorldID string
	Name    string
	Source  string
	Type    string
}

// Entity is a participant (user or agent).
type Entity struct {
	ID       string
	Names    []string
	AgentID  string
	Metadata map[string]any
}

// MemoryQuery selects memories from a table.
type MemoryQuery struct {
	TableName string
	RoomID    string
	EntityID  string
	Count     int
}

// DatabaseAdapter is the persistence collaborator. The runtime calls it
// opportunistically and works without one (see persistence.Noop).
type DatabaseAdapter interface {
	EnsureWorld(ctx context.Context, world World) error
	EnsureRoom(ctx context.Context, room Room) error
	EnsureEntity(ctx context.Context, entity Entity) error
	IsRoomParticipant(ctx context.Context, roomID, entityID string) (bool, error)
	AddParticipant(ctx context.Context, roomID, entityID string) error
	CreateMemory(ctx context.Context, memory *Memory, tableName string) (string, error)
	GetMemories(ctx context.Context, query MemoryQuery) ([]*Memory, error)
}

// Well-known memory tables.
const (
	TableMessages    = "messages"
	TableReflections = "reflections"
)
