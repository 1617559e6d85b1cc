package core

import (
	"context"

	"github.com/hupe1980/agentruntime/logging"
)

// ComposeOptions refines provider selection for one ComposeState call.
type ComposeOptions struct {
	// Include names providers to add to the default set, or with OnlyInclude
	// the exact set to run.
	Include     []string
	OnlyInclude bool
	SkipCache   bool
}

// Runtime is the view of the engine that components receive on every call.
type Runtime interface {
	AgentID() string
	Character() Character
	GetSetting(key string) (any, bool)
	Logger() logging.Logger

	ComposeState(ctx context.Context, message *Memory, opts ComposeOptions) (*State, error)
	UseModel(ctx context.Context, kind ModelType, params ModelParams, provider string) (any, error)
	EmitEvent(ctx context.Context, payload EventPayload, names ...string) error

	Actions() []Action
	Providers() []Provider
	Evaluators() []Evaluator
	Service(serviceType string) (Service, bool)
	ActionResults(messageID string) []ActionResult

	// Database returns the persistence collaborator or a *ConfigurationError.
	Database() (DatabaseAdapter, error)
	// DatabaseOrNoop returns the collaborator, or an adapter whose calls are no-ops.
	DatabaseOrNoop() DatabaseAdapter
}
