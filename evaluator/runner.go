// Package evaluator runs post-turn evaluators.
package evaluator

import (
	"context"
	"time"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
)

// Source lists registered evaluators. *registry.Registry satisfies it.
type Source interface {
	Evaluators() []core.Evaluator
}

// Options configures a Runner.
type Options struct {
	Logger logging.Logger
}

// Runner invokes evaluators after a turn.
type Runner struct {
	source Source
	logger logging.Logger
}

// NewRunner creates a Runner over source.
func NewRunner(source Source, optFns ...func(o *Options)) *Runner {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{source: source, logger: logging.ForComponent(opts.Logger, "evaluator")}
}

// Run executes each evaluator whose AlwaysRun is set, or all of them when
// didRespond is true, provided Validate passes. Validate errors, handler
// errors and panics are logged and do not stop the pass. It returns every
// evaluator whose handler was invoked, failed or not, or nil if none was.
// A cancelled context stops the pass.
func (r *Runner) Run(
	ctx context.Context,
	rt core.Runtime,
	message *core.Memory,
	state *core.State,
	didRespond bool,
	callback core.HandlerCallback,
	responses []*core.Memory,
) []core.Evaluator {
	var ran []core.Evaluator

	for _, ev := range r.source.Evaluators() {
		if !ev.AlwaysRun() && !didRespond {
			continue
		}

		if ctx.Err() != nil {
			r.logger.Debug("evaluator.cancelled", "evaluator", ev.Name())
			break
		}

		if !r.validate(ctx, rt, ev, message, state) {
			continue
		}

		start := time.Now()
		err := r.handle(ctx, rt, ev, message, state, callback, responses)
		ran = append(ran, ev)

		if err != nil {
			r.logger.Error("evaluator.failed", "evaluator", ev.Name(), "error", err.Error())
			continue
		}

		r.logger.Debug("evaluator.executed", "evaluator", ev.Name(), "duration_ms", time.Since(start).Milliseconds())
	}

	if len(ran) == 0 {
		return nil
	}

	return ran
}

func (r *Runner) validate(ctx context.Context, rt core.Runtime, ev core.Evaluator, message *core.Memory, state *core.State) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("evaluator.validate.panic", "evaluator", ev.Name(), "recover", rec)
			ok = false
		}
	}()

	valid, err := ev.Validate(ctx, rt, message, state)
	if err != nil {
		r.logger.Warn("evaluator.validate.failed", "evaluator", ev.Name(), "error", err.Error())
		return false
	}

	return valid
}

func (r *Runner) handle(
	ctx context.Context,
	rt core.Runtime,
	ev core.Evaluator,
	message *core.Memory,
	state *core.State,
	callback core.HandlerCallback,
	responses []*core.Memory,
) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = core.NewPanicError("evaluator", ev.Name(), rec)
		}
	}()

	if err := ev.Handle(ctx, rt, message, state, callback, responses); err != nil {
		return &core.HandlerError{Component: "evaluator", Name: ev.Name(), Err: err}
	}

	return nil
}
