// Package agentruntime provides a high-level façade over engine.Engine. Most
// applications interact with this package by:
//  1. Creating an AgentRuntime via New() or NewFromConfig()
//  2. Initializing it, which registers the capability plugin and the
//     configured plugins
//  3. Handling messages (HandleMessage) and serving plugin routes (Handler)
//
// All collaborators default to safe in-process implementations: a no-op
// database, an in-memory state cache and no trajectory observer. Production
// deployments typically supply a database adapter, a shared Redis cache and
// OpenTelemetry or Prometheus observers.
package agentruntime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/agentruntime/config"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/engine"
	"github.com/hupe1980/agentruntime/httpapi"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/observability"
	"github.com/hupe1980/agentruntime/observability/metrics"
	"github.com/hupe1980/agentruntime/observability/otel"
	"github.com/hupe1980/agentruntime/state"
	"github.com/hupe1980/agentruntime/state/redis"
)

// Options configures the AgentRuntime instance.
type Options struct {
	// Engine configuration (action planning, LLM mode, concurrency)
	EngineConfig engine.Config

	Character core.Character
	Settings  map[string]any
	Plugins   []*core.Plugin
	// Capabilities reconfigures the capability plugin; nil keeps its defaults.
	Capabilities *core.CapabilityConfig

	// Collaborators (defaults: no-op database, in-memory cache, no observer)
	Database   core.DatabaseAdapter
	StateCache state.Cache
	Observers  []observability.Observer

	// APIKey protects non-public plugin routes served by Handler.
	APIKey string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentRuntime is the high-level façade aggregating the engine and its
// optional infrastructure.
type AgentRuntime struct {
	*engine.Engine

	opts    Options
	closers []func() error
}

// New creates a new AgentRuntime with optional overrides.
func New(optFns ...func(o *Options)) *AgentRuntime {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return newRuntime(opts, nil)
}

// NewFromConfig builds an AgentRuntime from a loaded configuration. A Redis
// address enables the shared state cache; telemetry flags add the
// OpenTelemetry and Prometheus observers (registered with reg, or the
// default registerer when reg is nil). optFns run last.
func NewFromConfig(cfg *config.Config, reg prometheus.Registerer, optFns ...func(o *Options)) (*AgentRuntime, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		EngineConfig: engine.Config{
			ActionPlanning:     cfg.ActionPlanning,
			LLMMode:            cfg.LLMMode,
			MaxConcurrentTurns: cfg.MaxConcurrentTurns,
		},
		Character:    cfg.Character,
		Settings:     cfg.Settings,
		Capabilities: cfg.CapabilityOverride(),
		APIKey:       cfg.HTTP.APIKey,
		Logger:       cfg.NewLogger(),
	}

	var closers []func() error

	if cfg.Telemetry.Tracing {
		opts.Observers = append(opts.Observers, otel.New())
	}

	if cfg.Telemetry.Metrics {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m, err := metrics.New(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		opts.Observers = append(opts.Observers, m)
	}

	if cfg.Redis.Addr != "" {
		cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		opts.StateCache = cache
		closers = append(closers, cache.Close)
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return newRuntime(opts, closers), nil
}

func newRuntime(opts Options, closers []func() error) *AgentRuntime {
	var observer observability.Observer
	switch len(opts.Observers) {
	case 0:
	case 1:
		observer = opts.Observers[0]
	default:
		observer = observability.Multi(opts.Observers)
	}

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Character = opts.Character
		o.Settings = opts.Settings
		o.Plugins = opts.Plugins
		o.Capabilities = opts.Capabilities
		o.Database = opts.Database
		o.StateCache = opts.StateCache
		o.Observer = observer
		o.Logger = opts.Logger
	})

	return &AgentRuntime{Engine: e, opts: opts, closers: closers}
}

// Handler serves the plugin routes and a health endpoint.
func (r *AgentRuntime) Handler() http.Handler {
	return httpapi.NewRouter(r.Engine, r.Routes(), func(o *httpapi.Options) {
		o.APIKey = r.opts.APIKey
		o.Logger = r.Logger()
	})
}

// Close stops the engine and releases infrastructure such as the Redis client.
func (r *AgentRuntime) Close(ctx context.Context) error {
	errs := []error{r.Stop(ctx)}

	for _, c := range r.closers {
		errs = append(errs, c())
	}

	return errors.Join(errs...)
}
