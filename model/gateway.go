package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/observability"
)

// PurposeKey is the ModelParams.Extra key carrying the purpose tag reported
// to the observer. Defaults to DefaultPurpose.
const (
	PurposeKey     = "purpose"
	DefaultPurpose = "use_model"
)

// Store holds model registrations. *registry.Registry satisfies it.
type Store interface {
	AddModel(kind core.ModelType, reg core.ModelRegistration)
	Models(kind core.ModelType) []core.ModelRegistration
	AddStreamingModel(kind core.ModelType, reg core.StreamingModelRegistration)
	StreamingModels(kind core.ModelType) []core.StreamingModelRegistration
}

// Options configures a Gateway.
type Options struct {
	Mode     core.LLMMode
	Observer observability.Observer
	Logger   logging.Logger
}

// Gateway selects and invokes model handlers.
type Gateway struct {
	store    Store
	recorder *observability.Recorder
	logger   logging.Logger

	mu   sync.RWMutex
	mode core.LLMMode
}

// NewGateway creates a Gateway over store.
func NewGateway(store Store, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Mode: core.LLMModeDefault,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.ForComponent(opts.Logger, "gateway")

	return &Gateway{
		store:    store,
		recorder: observability.NewRecorder(opts.Observer, logger),
		logger:   logger,
		mode:     opts.Mode,
	}
}

// SetMode changes the global text-generation override.
func (g *Gateway) SetMode(mode core.LLMMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = mode
}

// Mode returns the global text-generation override.
func (g *Gateway) Mode() core.LLMMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// RegisterModel adds a handler for kind.
func (g *Gateway) RegisterModel(kind core.ModelType, handler core.ModelHandler, provider string, priority int) {
	g.store.AddModel(kind, core.ModelRegistration{Handler: handler, Provider: provider, Priority: priority})
	g.logger.Debug("model.registered", "model_type", string(kind), "provider", provider, "priority", priority)
}

// RegisterStreamingModel adds a streaming handler for kind.
func (g *Gateway) RegisterStreamingModel(kind core.ModelType, handler core.StreamingModelHandler, provider string, priority int) {
	g.store.AddStreamingModel(kind, core.StreamingModelRegistration{Handler: handler, Provider: provider, Priority: priority})
	g.logger.Debug("model.streaming.registered", "model_type", string(kind), "provider", provider, "priority", priority)
}

// HasModel reports whether any handler is registered for kind.
func (g *Gateway) HasModel(kind core.ModelType) bool {
	return len(g.store.Models(kind)) > 0
}

// HasStreamingModel reports whether any streaming handler is registered for kind.
func (g *Gateway) HasStreamingModel(kind core.ModelType) bool {
	return len(g.store.StreamingModels(kind)) > 0
}

// EffectiveKind applies the global mode to text-generation kinds.
func (g *Gateway) EffectiveKind(kind core.ModelType) core.ModelType {
	if !kind.IsTextGeneration() {
		return kind
	}

	switch g.Mode() {
	case core.LLMModeSmall:
		return core.ModelTextSmall
	case core.LLMModeLarge:
		return core.ModelTextLarge
	default:
		return kind
	}
}

// UseModel invokes the selected handler and returns its result unchanged.
// Lookup failures are *core.LookupError values wrapping core.ErrNoModelHandler
// or core.ErrNoProviderHandler.
func (g *Gateway) UseModel(ctx context.Context, rt core.Runtime, kind core.ModelType, params core.ModelParams, provider string) (any, error) {
	effective := g.EffectiveKind(kind)

	regs := g.store.Models(effective)
	if len(regs) == 0 {
		return nil, &core.LookupError{Kind: "model", Name: string(effective), Err: core.ErrNoModelHandler}
	}

	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Priority > regs[j].Priority })

	if provider != "" {
		regs = filter(regs, func(r core.ModelRegistration) bool { return r.Provider == provider })
		if len(regs) == 0 {
			return nil, &core.LookupError{Kind: "model", Name: string(effective), Provider: provider, Err: core.ErrNoProviderHandler}
		}
	}

	selected := regs[0]

	start := time.Now()
	result, err := selected.Handler(ctx, rt, params)
	latency := time.Since(start)

	logging.Calls(g.logger).LogModelCall(string(effective), selected.Provider, latency, err)

	if err != nil {
		return nil, fmt.Errorf("model %s (%s): %w", effective, selected.Provider, err)
	}

	g.report(ctx, effective, params, ResponseText(result), latency)

	return result, nil
}

// UseModelStream invokes the selected streaming handler. Chunks are forwarded
// as they arrive; the error channel yields at most one error and both channels
// close when the stream ends. The call is reported once the stream closes.
func (g *Gateway) UseModelStream(ctx context.Context, rt core.Runtime, kind core.ModelType, params core.ModelParams, provider string) (<-chan string, <-chan error, error) {
	effective := g.EffectiveKind(kind)

	regs := g.store.StreamingModels(effective)
	if len(regs) == 0 {
		return nil, nil, &core.LookupError{Kind: "streaming_model", Name: string(effective), Err: core.ErrNoModelHandler}
	}

	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Priority > regs[j].Priority })

	if provider != "" {
		regs = filter(regs, func(r core.StreamingModelRegistration) bool { return r.Provider == provider })
		if len(regs) == 0 {
			return nil, nil, &core.LookupError{Kind: "streaming_model", Name: string(effective), Provider: provider, Err: core.ErrNoProviderHandler}
		}
	}

	selected := regs[0]

	start := time.Now()
	inChunks, inErrs := selected.Handler(ctx, rt, params)

	out := make(chan string, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		var (
			sb       strings.Builder
			firstErr error
		)

		chunks, errs := inChunks, inErrs
		for chunks != nil || errs != nil {
			select {
			case c, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				sb.WriteString(c)
				select {
				case out <- c:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}

		latency := time.Since(start)
		logging.Calls(g.logger).LogModelCall(string(effective), selected.Provider, latency, firstErr)

		if firstErr != nil {
			errCh <- fmt.Errorf("model stream %s (%s): %w", effective, selected.Provider, firstErr)
			return
		}

		g.report(ctx, effective, params, sb.String(), latency)
	}()

	return out, errCh, nil
}

func (g *Gateway) report(ctx context.Context, kind core.ModelType, params core.ModelParams, response string, latency time.Duration) {
	stepID := observability.StepID(ctx, nil)
	if stepID == "" {
		return
	}

	purpose := DefaultPurpose
	if p, ok := params.Extra[PurposeKey].(string); ok && p != "" {
		purpose = p
	}

	var temperature float64
	if params.Temperature != nil {
		temperature = *params.Temperature
	}

	g.recorder.LLMCall(ctx, observability.LLMCall{
		StepID:       stepID,
		Model:        string(kind),
		SystemPrompt: params.System,
		UserPrompt:   params.Prompt,
		Response:     response,
		Temperature:  temperature,
		MaxTokens:    params.MaxTokens,
		Purpose:      purpose,
		Latency:      latency,
	})
}

// ResponseText renders an opaque handler result as text.
func ResponseText(result any) string {
	switch r := result.(type) {
	case nil:
		return ""
	case string:
		return r
	case fmt.Stringer:
		return r.String()
	}

	if b, err := json.Marshal(result); err == nil {
		return string(b)
	}

	return fmt.Sprintf("%v", result)
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
