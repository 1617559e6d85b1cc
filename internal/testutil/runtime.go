package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
)

// Runtime is a configurable core.Runtime stub. Unset hooks return zero values.
type Runtime struct {
	ID             string
	CharacterValue core.Character
	Settings       map[string]any
	Log            logging.Logger

	ActionList    []core.Action
	ProviderList  []core.Provider
	EvaluatorList []core.Evaluator
	ServiceMap    map[string]core.Service
	DB            core.DatabaseAdapter

	ComposeFn  func(ctx context.Context, message *core.Memory, opts core.ComposeOptions) (*core.State, error)
	UseModelFn func(ctx context.Context, kind core.ModelType, params core.ModelParams, provider string) (any, error)
	EmitFn     func(ctx context.Context, payload core.EventPayload, names ...string) error

	mu      sync.Mutex
	results map[string][]core.ActionResult
	emitted []string
}

// NewRuntime returns a stub runtime with agent id "agent-1".
func NewRuntime() *Runtime {
	return &Runtime{ID: "agent-1", CharacterValue: core.Character{Name: "Eliza"}}
}

func (r *Runtime) AgentID() string           { return r.ID }
func (r *Runtime) Character() core.Character { return r.CharacterValue }

func (r *Runtime) GetSetting(key string) (any, bool) {
	v, ok := r.Settings[key]
	return v, ok
}

func (r *Runtime) Logger() logging.Logger { return logging.OrNoop(r.Log) }

func (r *Runtime) ComposeState(ctx context.Context, message *core.Memory, opts core.ComposeOptions) (*core.State, error) {
	if r.ComposeFn == nil {
		return core.NewState(), nil
	}
	return r.ComposeFn(ctx, message, opts)
}

func (r *Runtime) UseModel(ctx context.Context, kind core.ModelType, params core.ModelParams, provider string) (any, error) {
	if r.UseModelFn == nil {
		return "", nil
	}
	return r.UseModelFn(ctx, kind, params, provider)
}

// EmitEvent records the event names and forwards to EmitFn.
func (r *Runtime) EmitEvent(ctx context.Context, payload core.EventPayload, names ...string) error {
	r.mu.Lock()
	r.emitted = append(r.emitted, names...)
	r.mu.Unlock()

	if r.EmitFn == nil {
		return nil
	}
	return r.EmitFn(ctx, payload, names...)
}

// Emitted returns the event names seen by EmitEvent.
func (r *Runtime) Emitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.emitted...)
}

func (r *Runtime) Actions() []core.Action       { return r.ActionList }
func (r *Runtime) Providers() []core.Provider   { return r.ProviderList }
func (r *Runtime) Evaluators() []core.Evaluator { return r.EvaluatorList }

func (r *Runtime) Service(serviceType string) (core.Service, bool) {
	s, ok := r.ServiceMap[serviceType]
	return s, ok
}

// AddActionResult appends a result for a message id.
func (r *Runtime) AddActionResult(messageID string, result core.ActionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string][]core.ActionResult)
	}
	r.results[messageID] = append(r.results[messageID], result)
}

func (r *Runtime) ActionResults(messageID string) []core.ActionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.ActionResult(nil), r.results[messageID]...)
}

func (r *Runtime) Database() (core.DatabaseAdapter, error) {
	if r.DB == nil {
		return nil, &core.ConfigurationError{Component: "database", Message: "not configured", Err: core.ErrNoDatabase}
	}
	return r.DB, nil
}

func (r *Runtime) DatabaseOrNoop() core.DatabaseAdapter {
	if r.DB == nil {
		return NewInMemoryDatabase()
	}
	return r.DB
}

var _ core.Runtime = (*Runtime)(nil)
