package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/agentruntime/action"
	"github.com/hupe1980/agentruntime/bootstrap"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/evaluator"
	"github.com/hupe1980/agentruntime/event"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/model"
	"github.com/hupe1980/agentruntime/observability"
	"github.com/hupe1980/agentruntime/persistence"
	"github.com/hupe1980/agentruntime/plugin"
	"github.com/hupe1980/agentruntime/registry"
	"github.com/hupe1980/agentruntime/state"
)

// Config defines tuning parameters for the Engine's turn processing.
//
// Example:
//
//	cfg := Config{
//	    ActionPlanning:     false,
//	    LLMMode:            core.LLMModeSmall,
//	    MaxConcurrentTurns: 4,
//	}
type Config struct {
	// ActionPlanning enables multi-action mode: every action named by every
	// response runs. When disabled only the first chosen action runs.
	ActionPlanning bool

	// LLMMode forces text-generation model kinds to their small or large
	// variant. LLMModeDefault leaves requested kinds unchanged.
	LLMMode core.LLMMode

	// MaxConcurrentTurns bounds how many HandleMessage calls run at once.
	// Zero or less means unlimited.
	MaxConcurrentTurns int
}

// DefaultConfig enables action planning, keeps requested model kinds and
// allows ten concurrent turns.
var DefaultConfig = Config{
	ActionPlanning:     true,
	LLMMode:            core.LLMModeDefault,
	MaxConcurrentTurns: 10,
}

// Options configures an Engine instance using the functional options pattern.
//
// Every collaborator is optional. Without a Database the engine uses a no-op
// adapter; without an Observer trajectory reports are dropped; without a
// StateCache composed states are cached in memory.
//
// Example:
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Character = core.Character{Name: "Eliza"}
//	    o.Plugins = []*core.Plugin{openai.NewPlugin(openai.NewHandler())}
//	    o.Logger = logging.NewDefaultSlogLogger()
//	})
type Options struct {
	Config Config

	// AgentID defaults to Character.ID, then to a random UUID.
	AgentID   string
	Character core.Character
	// Settings are consulted before Character.Settings by GetSetting.
	Settings map[string]any

	// Plugins are registered by Initialize after the capability plugin.
	Plugins []*core.Plugin
	// Capabilities, when set, builds the capability plugin through
	// CapabilityFactory instead of using a supplied or default instance.
	Capabilities      *core.CapabilityConfig
	CapabilityFactory plugin.Factory

	Database       core.DatabaseAdapter
	Observer       observability.Observer
	StateCache     state.Cache
	MessageHandler MessageHandler
	// MessageTemplate is the planning prompt of DefaultMessageHandler.
	MessageTemplate string

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Engine is the agent runtime. It owns the component registry and wires the
// plugin loader, state composer, model gateway, action dispatcher, event bus
// and evaluator runner together. It implements core.Runtime, so every
// component receives the engine itself on each call.
//
// Concurrency Model:
//   - Registries and caches are safe for concurrent use
//   - Each HandleMessage call runs its compose, model, dispatch and evaluate
//     steps strictly in order on the calling goroutine
//   - Concurrent turns are bounded by Config.MaxConcurrentTurns
//   - Active turns can be cancelled individually via StopRun
type Engine struct {
	agentID   string
	character core.Character
	settings  map[string]any
	config    Config
	plugins   []*core.Plugin

	registry   *registry.Registry
	loader     *plugin.Loader
	composer   *state.Composer
	gateway    *model.Gateway
	dispatcher *action.Dispatcher
	bus        *event.Bus
	runner     *evaluator.Runner
	handler    MessageHandler

	messageTemplate string

	db       core.DatabaseAdapter
	observer observability.Observer
	logger   logging.Logger

	initOnce sync.Once
	initErr  error

	slots  chan struct{}
	runsMu sync.Mutex
	runs   map[string]context.CancelFunc
}

var _ core.Runtime = (*Engine)(nil)

// New creates an Engine. Call Initialize before handling messages.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:            DefaultConfig,
		CapabilityFactory: bootstrap.Factory(),
		MessageHandler:    DefaultMessageHandler,
		MessageTemplate:   DefaultMessageTemplate,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoop(opts.Logger)

	agentID := opts.AgentID
	if agentID == "" {
		agentID = opts.Character.ID
	}
	if agentID == "" {
		agentID = uuid.NewString()
	}

	character := opts.Character
	character.ID = agentID

	reg := registry.New()
	bus := event.NewBus(reg, func(o *event.Options) { o.Logger = logger })

	e := &Engine{
		agentID:   agentID,
		character: character,
		settings:  opts.Settings,
		config:    opts.Config,
		plugins:   opts.Plugins,
		registry:  reg,
		loader: plugin.NewLoader(reg, func(o *plugin.Options) {
			o.Capabilities = opts.Capabilities
			o.Factory = opts.CapabilityFactory
			o.Logger = logger
		}),
		composer: state.NewComposer(reg, func(o *state.Options) {
			o.Cache = opts.StateCache
			o.Observer = opts.Observer
			o.Logger = logger
		}),
		gateway: model.NewGateway(reg, func(o *model.Options) {
			o.Mode = opts.Config.LLMMode
			o.Observer = opts.Observer
			o.Logger = logger
		}),
		dispatcher: action.NewDispatcher(reg, func(o *action.Options) {
			o.ActionPlanning = opts.Config.ActionPlanning
			o.Emitter = bus
			o.Logger = logger
		}),
		bus:             bus,
		runner:          evaluator.NewRunner(reg, func(o *evaluator.Options) { o.Logger = logger }),
		handler:         opts.MessageHandler,
		messageTemplate: opts.MessageTemplate,
		db:              opts.Database,
		observer:        opts.Observer,
		logger:          logger,
		runs:            make(map[string]context.CancelFunc),
	}

	if e.handler == nil {
		e.handler = DefaultMessageHandler
	}

	if opts.Config.MaxConcurrentTurns > 0 {
		e.slots = make(chan struct{}, opts.Config.MaxConcurrentTurns)
	}

	return e
}

// Initialize registers the capability plugin and the configured plugins and
// records the agent entity with the database when one is configured. It runs
// once; later calls return the first result.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initOnce.Do(func() {
		if err := e.loader.RegisterAll(ctx, e, e.plugins); err != nil {
			e.initErr = fmt.Errorf("initialize plugins: %w", err)
			return
		}

		if e.db != nil {
			if err := e.db.EnsureEntity(ctx, core.Entity{ID: e.agentID, Names: []string{e.character.Name}, AgentID: e.agentID}); err != nil {
				e.logger.Warn("engine.agent_entity.failed", "agent_id", e.agentID, "error", err.Error())
			}
		}

		e.logger.Info("engine.initialized",
			"agent_id", e.agentID,
			"plugins", e.registry.Plugins(),
			"action_planning", e.config.ActionPlanning,
			"llm_mode", string(e.gateway.Mode()),
		)
	})

	return e.initErr
}

// RegisterPlugin registers one plugin after initialization.
func (e *Engine) RegisterPlugin(ctx context.Context, p *core.Plugin) error {
	return e.loader.Register(ctx, e, p)
}

// Registry exposes the component registry for inspection.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Routes returns the HTTP routes contributed by plugins.
func (e *Engine) Routes() []core.Route { return e.registry.Routes() }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// AgentID implements core.Runtime.
func (e *Engine) AgentID() string { return e.agentID }

// Character implements core.Runtime.
func (e *Engine) Character() core.Character { return e.character }

// Logger implements core.Runtime.
func (e *Engine) Logger() logging.Logger { return e.logger }

// GetSetting looks a key up in the engine settings, then the character settings.
func (e *Engine) GetSetting(key string) (any, bool) {
	if v, ok := e.settings[key]; ok {
		return v, true
	}

	v, ok := e.character.Settings[key]

	return v, ok
}

// ComposeState implements core.Runtime.
func (e *Engine) ComposeState(ctx context.Context, message *core.Memory, opts core.ComposeOptions) (*core.State, error) {
	return e.composer.Compose(withStep(ctx, message), e, message, opts)
}

// InvalidateState drops the cached state of a room.
func (e *Engine) InvalidateState(ctx context.Context, roomID string) error {
	return e.composer.Invalidate(ctx, roomID)
}

// UseModel implements core.Runtime.
func (e *Engine) UseModel(ctx context.Context, kind core.ModelType, params core.ModelParams, provider string) (any, error) {
	return e.gateway.UseModel(ctx, e, kind, params, provider)
}

// UseModelStream streams text chunks from the selected streaming handler.
func (e *Engine) UseModelStream(ctx context.Context, kind core.ModelType, params core.ModelParams, provider string) (<-chan string, <-chan error, error) {
	return e.gateway.UseModelStream(ctx, e, kind, params, provider)
}

// RegisterModel registers a model handler outside of a plugin.
func (e *Engine) RegisterModel(kind core.ModelType, handler core.ModelHandler, provider string, priority int) {
	e.gateway.RegisterModel(kind, handler, provider, priority)
}

// RegisterStreamingModel registers a streaming model handler outside of a plugin.
func (e *Engine) RegisterStreamingModel(kind core.ModelType, handler core.StreamingModelHandler, provider string, priority int) {
	e.gateway.RegisterStreamingModel(kind, handler, provider, priority)
}

// HasModel reports whether a handler is registered for kind.
func (e *Engine) HasModel(kind core.ModelType) bool { return e.gateway.HasModel(kind) }

// SetLLMMode changes the global text-generation override.
func (e *Engine) SetLLMMode(mode core.LLMMode) { e.gateway.SetMode(mode) }

// ProcessActions dispatches the actions named by responses.
func (e *Engine) ProcessActions(ctx context.Context, message *core.Memory, responses []*core.Memory, st *core.State, callback core.HandlerCallback) error {
	return e.dispatcher.ProcessActions(withStep(ctx, message), e, message, responses, st, callback)
}

// Evaluate runs the post-turn evaluators and returns those that ran.
func (e *Engine) Evaluate(ctx context.Context, message *core.Memory, st *core.State, didRespond bool, callback core.HandlerCallback, responses []*core.Memory) []core.Evaluator {
	return e.runner.Run(withStep(ctx, message), e, message, st, didRespond, callback, responses)
}

// RegisterEvent appends an event handler.
func (e *Engine) RegisterEvent(name string, h core.EventHandler) { e.bus.Register(name, h) }

// EmitEvent implements core.Runtime. A payload without a runtime gets the engine.
func (e *Engine) EmitEvent(ctx context.Context, payload core.EventPayload, names ...string) error {
	if payload.Runtime == nil {
		payload.Runtime = e
	}
	return e.bus.Emit(ctx, payload, names...)
}

// Actions implements core.Runtime.
func (e *Engine) Actions() []core.Action { return e.registry.Actions() }

// Providers implements core.Runtime.
func (e *Engine) Providers() []core.Provider { return e.registry.Providers() }

// Evaluators implements core.Runtime.
func (e *Engine) Evaluators() []core.Evaluator { return e.registry.Evaluators() }

// Service implements core.Runtime.
func (e *Engine) Service(serviceType string) (core.Service, bool) { return e.registry.Service(serviceType) }

// ActionResults implements core.Runtime.
func (e *Engine) ActionResults(messageID string) []core.ActionResult {
	return e.dispatcher.Results(messageID)
}

// Database returns the configured adapter or a *core.ConfigurationError.
func (e *Engine) Database() (core.DatabaseAdapter, error) {
	if e.db == nil {
		return nil, &core.ConfigurationError{Component: "database", Message: "no adapter configured", Err: core.ErrNoDatabase}
	}
	return e.db, nil
}

// DatabaseOrNoop returns the configured adapter or persistence.Noop.
func (e *Engine) DatabaseOrNoop() core.DatabaseAdapter { return persistence.OrNoop(e.db) }

// RunTask executes a registered task worker.
func (e *Engine) RunTask(ctx context.Context, name string, options map[string]any) error {
	w, ok := e.registry.TaskWorker(name)
	if !ok || w.Execute == nil {
		return &core.LookupError{Kind: "task_worker", Name: name, Err: core.ErrTaskWorkerNotFound}
	}
	return w.Execute(ctx, e, options)
}

// HandleMessage runs one turn for message through the configured
// MessageHandler. It returns a run id usable with StopRun alongside the
// handler's result.
func (e *Engine) HandleMessage(ctx context.Context, message *core.Memory, callback core.HandlerCallback) (*Turn, error) {
	if message == nil {
		return nil, errors.New("handle message: message is nil")
	}

	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}

	if e.slots != nil {
		select {
		case e.slots <- struct{}{}:
			defer func() { <-e.slots }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	runID := uuid.NewString()

	runCtx, cancel := context.WithCancel(withStep(ctx, message))
	defer cancel()

	e.runsMu.Lock()
	e.runs[runID] = cancel
	e.runsMu.Unlock()

	defer func() {
		e.runsMu.Lock()
		delete(e.runs, runID)
		e.runsMu.Unlock()
	}()

	turn, err := e.handler(runCtx, e, runID, message, callback)
	if turn != nil {
		turn.RunID = runID
	}

	return turn, err
}

// StopRun cancels an active turn. It reports whether the run was found.
func (e *Engine) StopRun(runID string) bool {
	e.runsMu.Lock()
	defer e.runsMu.Unlock()

	cancel, ok := e.runs[runID]
	if ok {
		cancel()
	}

	return ok
}

// ActiveRuns returns the number of turns in flight.
func (e *Engine) ActiveRuns() int {
	e.runsMu.Lock()
	defer e.runsMu.Unlock()
	return len(e.runs)
}

// Stop cancels active turns and stops every registered service.
func (e *Engine) Stop(ctx context.Context) error {
	e.runsMu.Lock()
	for _, cancel := range e.runs {
		cancel()
	}
	e.runsMu.Unlock()

	var errs []error
	for _, s := range e.registry.Services() {
		if err := s.Stop(ctx); err != nil {
			e.logger.Warn("engine.service.stop_failed", "service", s.Type(), "error", err.Error())
			errs = append(errs, fmt.Errorf("stop service %s: %w", s.Type(), err))
		}
	}

	return errors.Join(errs...)
}

func withStep(ctx context.Context, message *core.Memory) context.Context {
	if message == nil || message.Metadata.TrajectoryStepID == "" {
		return ctx
	}
	if _, ok := observability.StepFromContext(ctx); ok {
		return ctx
	}
	return observability.ContextWithStep(ctx, message.Metadata.TrajectoryStepID)
}
