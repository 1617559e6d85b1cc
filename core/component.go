package core

import (
	"context"
	"net/http"
)

// Provider is a read-only context contributor invoked during state composition.
//
// Providers run in ascending Position order (registration order breaks ties).
// Private providers are skipped unless a caller names them explicitly.
type Provider interface {
	Name() string
	Position() int
	Private() bool
	Get(ctx context.Context, rt Runtime, message *Memory, state *State) (*ProviderResult, error)
}

// ParameterType is the declared type of an action parameter.
type ParameterType string

// Supported parameter types.
const (
	ParamString  ParameterType = "string"
	ParamNumber  ParameterType = "number"
	ParamBoolean ParameterType = "boolean"
	ParamArray   ParameterType = "array"
	ParamObject  ParameterType = "object"
)

// ParameterSchema declares one named action parameter.
type ParameterSchema struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Type        ParameterType `json:"type"`
	Required    bool          `json:"required,omitempty"`
	// Enum and Pattern apply to string parameters.
	Enum    []string `json:"enum,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	// Minimum and Maximum apply to number parameters.
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
	Default any      `json:"default,omitempty"`
}

// Float returns a pointer to v; handy for Minimum/Maximum literals.
func Float(v float64) *float64 { return &v }

// HandlerCallback lets a handler send content back to the caller (e.g. a chat
// surface). It may return memories created for the sent content.
type HandlerCallback func(ctx context.Context, content Content) ([]*Memory, error)

// HandlerOptions is passed to action handlers.
type HandlerOptions struct {
	// Parameters holds validated parameters; nil when validation failed or
	// the action declares none.
	Parameters map[string]any
	// ParameterErrors lists human-readable validation problems.
	ParameterErrors []string
	// PreviousResults are the results of actions already executed for this message.
	PreviousResults []ActionResult
	// ActionPlan is the ordered list of action names chosen for the turn.
	ActionPlan []string
}

// Action is a named, schema-validated operation invokable by a turn's response.
type Action interface {
	Name() string
	Description() string
	Parameters() []ParameterSchema
	Validate(ctx context.Context, rt Runtime, message *Memory, state *State) (bool, error)
	Handle(
		ctx context.Context,
		rt Runtime,
		message *Memory,
		state *State,
		opts *HandlerOptions,
		callback HandlerCallback,
		responses []*Memory,
	) (*ActionResult, error)
}

// Evaluator is a post-turn hook. It runs when AlwaysRun is true or the agent responded.
type Evaluator interface {
	Name() string
	AlwaysRun() bool
	Validate(ctx context.Context, rt Runtime, message *Memory, state *State) (bool, error)
	Handle(
		ctx context.Context,
		rt Runtime,
		message *Memory,
		state *State,
		callback HandlerCallback,
		responses []*Memory,
	) error
}

// Service is a long-lived plugin component addressed by type.
type Service interface {
	Type() string
	Stop(ctx context.Context) error
}

// TaskWorker executes named background tasks on behalf of plugins.
type TaskWorker struct {
	Name    string
	Execute func(ctx context.Context, rt Runtime, options map[string]any) error
}

// Route is an HTTP endpoint contributed by a plugin.
type Route struct {
	// Type is the HTTP method (GET, POST, ...).
	Type    string
	Path    string
	Public  bool
	Handler func(w http.ResponseWriter, r *http.Request, rt Runtime)
	// PluginName is set by the loader at registration.
	PluginName string
}

// EventPayload is handed to event handlers.
type EventPayload struct {
	Runtime Runtime
	Source  string
	Message *Memory
	Data    map[string]any
}

// EventHandler reacts to a named runtime event.
type EventHandler func(ctx context.Context, payload EventPayload) error

// Runtime events emitted by the engine.
const (
	EventMessageReceived   = "MESSAGE_RECEIVED"
	EventRunStarted        = "RUN_STARTED"
	EventRunEnded          = "RUN_ENDED"
	EventActionStarted     = "ACTION_STARTED"
	EventActionCompleted   = "ACTION_COMPLETED"
	EventEvaluatorsStarted = "EVALUATORS_STARTED"
	EventTurnComplete      = "TURN_COMPLETE"
)
