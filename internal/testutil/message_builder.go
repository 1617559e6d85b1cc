package testutil

import (
	"github.com/hupe1980/agentruntime/core"
)

// MessageBuilder provides a fluent helper for constructing memories in tests.
// Example:
//
//	msg := NewMessageBuilder().Room("room-1").Text("hello").Actions("REPLY").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	id       string
	roomID   string
	entityID string
	agentID  string
	content  core.Content
	metadata core.MemoryMetadata
}

// NewMessageBuilder creates a builder with default room "room-1" and entity "user-1".
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{roomID: "room-1", entityID: "user-1"}
}

// ID overrides the generated memory id (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// Room sets the room id (chainable).
func (b *MessageBuilder) Room(id string) *MessageBuilder { b.roomID = id; return b }

// Entity sets the author entity id (chainable).
func (b *MessageBuilder) Entity(id string) *MessageBuilder { b.entityID = id; return b }

// Agent sets the agent id (chainable).
func (b *MessageBuilder) Agent(id string) *MessageBuilder { b.agentID = id; return b }

// Text sets the content text (chainable).
func (b *MessageBuilder) Text(t string) *MessageBuilder { b.content.Text = t; return b }

// Thought sets the content thought (chainable).
func (b *MessageBuilder) Thought(t string) *MessageBuilder { b.content.Thought = t; return b }

// Actions appends action names (chainable).
func (b *MessageBuilder) Actions(names ...string) *MessageBuilder {
	b.content.Actions = append(b.content.Actions, names...)
	return b
}

// Params sets the raw parameter payload (chainable).
func (b *MessageBuilder) Params(p core.ActionParams) *MessageBuilder { b.content.Params = p; return b }

// TrajectoryStep marks the message as part of a trajectory capture (chainable).
func (b *MessageBuilder) TrajectoryStep(id string) *MessageBuilder {
	b.metadata.TrajectoryStepID = id
	return b
}

// Build returns the memory.
func (b *MessageBuilder) Build() *core.Memory {
	m := core.NewMemory(b.roomID, b.entityID, b.content)
	if b.id != "" {
		m.ID = b.id
	}
	m.AgentID = b.agentID
	m.Metadata = b.metadata
	return m
}
