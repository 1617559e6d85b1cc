package core

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a random identifier used for memories, results and steps.
func NewID() string { return uuid.NewString() }

// ActionParams is the raw parameter payload attached to a response. It is a
// closed union: StructuredParams or MarkupParams.
type ActionParams interface{ isActionParams() }

// StructuredParams maps an action name to either one parameter block
// (map[string]any) or a list of blocks ([]any / []map[string]any).
type StructuredParams map[string]any

func (StructuredParams) isActionParams() {}

// MarkupParams is an embedded markup string such as
// "<params><MOVE><direction>north</direction></MOVE></params>".
type MarkupParams string

func (MarkupParams) isActionParams() {}

// Content is the free-form payload of a Memory.
type Content struct {
	Text      string         `json:"text,omitempty"`
	Thought   string         `json:"thought,omitempty"`
	Actions   []string       `json:"actions,omitempty"`
	Providers []string       `json:"providers,omitempty"`
	Params    ActionParams   `json:"params,omitempty"`
	Source    string         `json:"source,omitempty"`
	InReplyTo string         `json:"inReplyTo,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MemoryMetadata carries routing and tracing hints for a Memory.
type MemoryMetadata struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
	// TrajectoryStepID marks the turn as part of an observability capture.
	TrajectoryStepID string         `json:"trajectoryStepId,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Memory is one message in a room: an inbound turn or an agent response.
type Memory struct {
	ID        string         `json:"id"`
	EntityID  string         `json:"entityId"`
	AgentID   string         `json:"agentId,omitempty"`
	RoomID    string         `json:"roomId"`
	WorldID   string         `json:"worldId,omitempty"`
	Content   Content        `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Metadata  MemoryMetadata `json:"metadata"`
}

// NewMemory creates a memory with a fresh id and creation timestamp.
func NewMemory(roomID, entityID string, content Content) *Memory {
	return &Memory{
		ID:        NewID(),
		EntityID:  entityID,
		RoomID:    roomID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
