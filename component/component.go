// Package component provides function adapters that expose plain Go functions
// as runtime Providers, Actions, Evaluators and Services.
//
// Adapters have no internal mutable state after construction and are safe for
// concurrent use.
package component

import (
	"context"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/internal/util"
)

// ValidateFunc decides whether a component applies to the current turn.
type ValidateFunc func(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (bool, error)

// ProviderFunc produces a provider contribution.
type ProviderFunc func(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (*core.ProviderResult, error)

// ProviderOptions configures a FunctionProvider.
type ProviderOptions struct {
	Description string
	Position    int
	Private     bool
}

// FunctionProvider adapts a ProviderFunc to core.Provider.
type FunctionProvider struct {
	name string
	opts ProviderOptions
	fn   ProviderFunc
}

// NewProvider constructs a provider.
//
// Example:
//
//	timeProvider := component.NewProvider("TIME", func(ctx context.Context, rt core.Runtime, m *core.Memory, s *core.State) (*core.ProviderResult, error) {
//	  return &core.ProviderResult{Text: time.Now().String()}, nil
//	}, func(o *component.ProviderOptions) { o.Position = -10 })
func NewProvider(name string, fn ProviderFunc, optFns ...func(o *ProviderOptions)) *FunctionProvider {
	opts := ProviderOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	return &FunctionProvider{name: name, opts: opts, fn: fn}
}

func (p *FunctionProvider) Name() string        { return p.name }
func (p *FunctionProvider) Description() string { return p.opts.Description }
func (p *FunctionProvider) Position() int       { return p.opts.Position }
func (p *FunctionProvider) Private() bool       { return p.opts.Private }

// Get invokes the wrapped function.
func (p *FunctionProvider) Get(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (*core.ProviderResult, error) {
	return p.fn(ctx, rt, message, state)
}

// ActionFunc is an action handler.
type ActionFunc func(
	ctx context.Context,
	rt core.Runtime,
	message *core.Memory,
	state *core.State,
	opts *core.HandlerOptions,
	callback core.HandlerCallback,
	responses []*core.Memory,
) (*core.ActionResult, error)

// ActionOptions configures a FunctionAction.
type ActionOptions struct {
	Description string
	Similes     []string
	Parameters  []core.ParameterSchema
	// Validate defaults to always true.
	Validate ValidateFunc
}

// FunctionAction adapts an ActionFunc to core.Action.
type FunctionAction struct {
	name string
	opts ActionOptions
	fn   ActionFunc
}

// NewAction constructs an action.
func NewAction(name string, fn ActionFunc, optFns ...func(o *ActionOptions)) *FunctionAction {
	opts := ActionOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	return &FunctionAction{name: name, opts: opts, fn: fn}
}

// NewActionFromStruct derives the parameter schema from a struct using reflection.
//
// Example:
//
//	type MoveArgs struct {
//	  Direction string `json:"direction" enum:"north,south,east,west"`
//	  Steps     int    `json:"steps,omitempty" minimum:"1"`
//	}
//
//	move := component.NewActionFromStruct("MOVE", "Move the avatar", MoveArgs{}, handle)
func NewActionFromStruct(name, description string, structType any, fn ActionFunc) *FunctionAction {
	return NewAction(name, fn, func(o *ActionOptions) {
		o.Description = description
		o.Parameters = util.CreateParameters(structType)
	})
}

func (a *FunctionAction) Name() string                       { return a.name }
func (a *FunctionAction) Description() string                { return a.opts.Description }
func (a *FunctionAction) Similes() []string                  { return a.opts.Similes }
func (a *FunctionAction) Parameters() []core.ParameterSchema { return a.opts.Parameters }

// Validate runs the configured validate function, or reports true.
func (a *FunctionAction) Validate(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (bool, error) {
	if a.opts.Validate == nil {
		return true, nil
	}
	return a.opts.Validate(ctx, rt, message, state)
}

// Handle invokes the wrapped handler.
func (a *FunctionAction) Handle(
	ctx context.Context,
	rt core.Runtime,
	message *core.Memory,
	state *core.State,
	opts *core.HandlerOptions,
	callback core.HandlerCallback,
	responses []*core.Memory,
) (*core.ActionResult, error) {
	return a.fn(ctx, rt, message, state, opts, callback, responses)
}

// EvaluatorFunc is an evaluator handler.
type EvaluatorFunc func(
	ctx context.Context,
	rt core.Runtime,
	message *core.Memory,
	state *core.State,
	callback core.HandlerCallback,
	responses []*core.Memory,
) error

// EvaluatorOptions configures a FunctionEvaluator.
type EvaluatorOptions struct {
	Description string
	AlwaysRun   bool
	Validate    ValidateFunc
}

// FunctionEvaluator adapts an EvaluatorFunc to core.Evaluator.
type FunctionEvaluator struct {
	name string
	opts EvaluatorOptions
	fn   EvaluatorFunc
}

// NewEvaluator constructs an evaluator.
func NewEvaluator(name string, fn EvaluatorFunc, optFns ...func(o *EvaluatorOptions)) *FunctionEvaluator {
	opts := EvaluatorOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}

	return &FunctionEvaluator{name: name, opts: opts, fn: fn}
}

func (e *FunctionEvaluator) Name() string        { return e.name }
func (e *FunctionEvaluator) Description() string { return e.opts.Description }
func (e *FunctionEvaluator) AlwaysRun() bool     { return e.opts.AlwaysRun }

func (e *FunctionEvaluator) Validate(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (bool, error) {
	if e.opts.Validate == nil {
		return true, nil
	}
	return e.opts.Validate(ctx, rt, message, state)
}

func (e *FunctionEvaluator) Handle(
	ctx context.Context,
	rt core.Runtime,
	message *core.Memory,
	state *core.State,
	callback core.HandlerCallback,
	responses []*core.Memory,
) error {
	return e.fn(ctx, rt, message, state, callback, responses)
}

// FunctionService adapts a stop function to core.Service.
type FunctionService struct {
	serviceType string
	stop        func(ctx context.Context) error
}

// NewService constructs a service. stop may be nil.
func NewService(serviceType string, stop func(ctx context.Context) error) *FunctionService {
	return &FunctionService{serviceType: serviceType, stop: stop}
}

func (s *FunctionService) Type() string { return s.serviceType }

func (s *FunctionService) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	return s.stop(ctx)
}

var (
	_ core.Provider  = (*FunctionProvider)(nil)
	_ core.Action    = (*FunctionAction)(nil)
	_ core.Evaluator = (*FunctionEvaluator)(nil)
	_ core.Service   = (*FunctionService)(nil)
)
