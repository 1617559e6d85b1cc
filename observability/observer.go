// Package observability defines the optional trajectory collaborator and the
// guarded recorder every runtime call site goes through.
//
// Observers receive provider accesses and LLM calls made while a trajectory
// step is active. Observer errors and panics never reach the caller: the
// Recorder logs them at debug level and moves on.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
)

// Purpose tags attached to reports.
const (
	PurposeComposeState = "compose_state"
	PurposeAction       = "action"
	PurposeEvaluation   = "evaluation"
)

// ProviderAccess describes one provider invocation during composition.
type ProviderAccess struct {
	StepID       string
	ProviderName string
	// Data is a JSON-safe projection of the provider's data.
	Data    map[string]any
	Purpose string
	Query   map[string]any
}

// LLMCall describes one model handler invocation.
type LLMCall struct {
	StepID       string
	Model        string
	SystemPrompt string
	UserPrompt   string
	Response     string
	Temperature  float64
	MaxTokens    int
	Purpose      string
	Latency      time.Duration
}

// Observer receives trajectory reports.
type Observer interface {
	LogProviderAccess(ctx context.Context, access ProviderAccess) error
	LogLLMCall(ctx context.Context, call LLMCall) error
}

// Noop discards every report.
type Noop struct{}

func (Noop) LogProviderAccess(context.Context, ProviderAccess) error { return nil }
func (Noop) LogLLMCall(context.Context, LLMCall) error               { return nil }

// Multi fans a report out to several observers, in order. Every observer is
// called; errors are joined.
type Multi []Observer

func (m Multi) LogProviderAccess(ctx context.Context, access ProviderAccess) error {
	var errs []error
	for _, o := range m {
		if err := o.LogProviderAccess(ctx, access); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) LogLLMCall(ctx context.Context, call LLMCall) error {
	var errs []error
	for _, o := range m {
		if err := o.LogLLMCall(ctx, call); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder guards an Observer. It is safe to use with a nil observer.
type Recorder struct {
	observer Observer
	logger   logging.Logger
}

// NewRecorder wraps observer. A nil observer records nothing.
func NewRecorder(observer Observer, logger logging.Logger) *Recorder {
	if observer == nil {
		observer = Noop{}
	}

	return &Recorder{observer: observer, logger: logging.OrNoop(logger)}
}

// Enabled reports whether a real observer is attached.
func (r *Recorder) Enabled() bool {
	if r == nil {
		return false
	}
	_, noop := r.observer.(Noop)
	return !noop
}

// ProviderAccess reports a provider access. Failures are logged at debug level.
func (r *Recorder) ProviderAccess(ctx context.Context, access ProviderAccess) {
	if !r.Enabled() {
		return
	}

	r.guard("observability.provider_access.failed", func() error {
		return r.observer.LogProviderAccess(ctx, access)
	})
}

// LLMCall reports a model call. Failures are logged at debug level.
func (r *Recorder) LLMCall(ctx context.Context, call LLMCall) {
	if !r.Enabled() {
		return
	}

	r.guard("observability.llm_call.failed", func() error {
		return r.observer.LogLLMCall(ctx, call)
	})
}

func (r *Recorder) guard(msg string, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug(msg, "error", fmt.Sprintf("panic: %v", rec))
		}
	}()

	if err := fn(); err != nil {
		r.logger.Debug(msg, "error", err.Error())
	}
}

type stepKey struct{}

// ContextWithStep marks ctx as part of a trajectory step.
func ContextWithStep(ctx context.Context, stepID string) context.Context {
	return context.WithValue(ctx, stepKey{}, stepID)
}

// StepFromContext returns the trajectory step carried by ctx.
func StepFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(stepKey{}).(string)
	return id, ok && id != ""
}

// StepID returns the active step marker: the message metadata wins over ctx.
func StepID(ctx context.Context, message *core.Memory) string {
	if message != nil && message.Metadata.TrajectoryStepID != "" {
		return message.Metadata.TrajectoryStepID
	}
	id, _ := StepFromContext(ctx)
	return id
}
