package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/params"
)

// Source resolves actions by exact name. *registry.Registry satisfies it.
type Source interface {
	Action(name string) (core.Action, bool)
}

// Emitter publishes lifecycle events. *event.Bus satisfies it.
type Emitter interface {
	Emit(ctx context.Context, payload core.EventPayload, names ...string) error
}

// Options configures a Dispatcher.
type Options struct {
	// ActionPlanning enables multi-action mode. When false only the first
	// action of the first response that names one is executed.
	ActionPlanning bool
	Emitter        Emitter
	Results        *ResultStore
	Logger         logging.Logger
}

// DefaultOptions enables action planning.
var DefaultOptions = Options{
	ActionPlanning: true,
}

// Dispatcher selects, binds and invokes the actions named by a turn's responses.
type Dispatcher struct {
	source   Source
	emitter  Emitter
	results  *ResultStore
	logger   logging.Logger
	planning bool
}

// NewDispatcher creates a Dispatcher over source.
func NewDispatcher(source Source, optFns ...func(o *Options)) *Dispatcher {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Results == nil {
		opts.Results = NewResultStore()
	}

	return &Dispatcher{
		source:   source,
		emitter:  opts.Emitter,
		results:  opts.Results,
		logger:   logging.ForComponent(opts.Logger, "dispatcher"),
		planning: opts.ActionPlanning,
	}
}

// Planning reports whether multi-action mode is enabled.
func (d *Dispatcher) Planning() bool { return d.planning }

// Results returns the results recorded for a message id.
func (d *Dispatcher) Results(messageID string) []core.ActionResult {
	return d.results.Get(messageID)
}

// Plan returns the ordered action names a dispatch pass would consider.
func (d *Dispatcher) Plan(responses []*core.Memory) []string {
	return Plan(responses, d.planning)
}

// Plan computes the action names to process. With planning every action of
// every response is listed in order; without it only the first one found.
func Plan(responses []*core.Memory, planning bool) []string {
	var plan []string

	for _, r := range responses {
		if r == nil || len(r.Content.Actions) == 0 {
			continue
		}

		if !planning {
			return []string{r.Content.Actions[0]}
		}

		plan = append(plan, r.Content.Actions...)
	}

	return plan
}

// ProcessActions runs the actions named by responses against message.
//
// Unknown actions are skipped. Validation failures never prevent the
// handler from running: it receives nil Parameters and the error messages.
// Handler errors and panics are logged, recorded as failed results and do
// not stop later actions. The context is checked before each action; on
// cancellation ctx.Err() is returned and earlier results stay recorded.
//
// Handlers receive a copy of state that accumulates this pass's results in
// Data.ActionResults. The caller's state, which may be a cached composition,
// is left untouched.
func (d *Dispatcher) ProcessActions(
	ctx context.Context,
	rt core.Runtime,
	message *core.Memory,
	responses []*core.Memory,
	state *core.State,
	callback core.HandlerCallback,
) error {
	if message == nil {
		return fmt.Errorf("process actions: message is nil")
	}

	plan := d.Plan(responses)
	if len(plan) == 0 {
		return nil
	}

	chosen := plan[0]
	executed := 0
	turn := state.Clone()

	for _, response := range responses {
		if response == nil || len(response.Content.Actions) == 0 {
			continue
		}

		var extracted params.Extracted
		counters := map[string]int{}

		for _, name := range response.Content.Actions {
			if !d.planning && (name != chosen || executed > 0) {
				continue
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			act, ok := d.source.Action(name)
			if !ok {
				d.logger.Warn("action.not_found", "action", name, "message_id", message.ID, "error", core.ErrActionNotFound.Error())
				continue
			}

			if extracted == nil {
				extracted = params.Extract(response.Content.Params)
			}

			index := counters[name]
			counters[name]++

			block, _ := extracted.Block(name, index)
			opts := d.bind(act, block, plan, message.ID)

			d.run(ctx, rt, act, message, turn, opts, callback, responses)
			executed++
		}
	}

	return nil
}

func (d *Dispatcher) bind(act core.Action, block map[string]any, plan []string, messageID string) *core.HandlerOptions {
	opts := &core.HandlerOptions{
		PreviousResults: d.results.Get(messageID),
		ActionPlan:      append([]string(nil), plan...),
	}

	result := params.Validate(act.Parameters(), block)
	if result.Valid {
		opts.Parameters = result.Params
		return opts
	}

	opts.ParameterErrors = result.Messages()
	d.logger.Warn("action.parameters.invalid", "action", act.Name(), "errors", opts.ParameterErrors)

	return opts
}

func (d *Dispatcher) run(
	ctx context.Context,
	rt core.Runtime,
	act core.Action,
	message *core.Memory,
	state *core.State,
	opts *core.HandlerOptions,
	callback core.HandlerCallback,
	responses []*core.Memory,
) {
	name := act.Name()

	d.emit(ctx, rt, message, core.EventActionStarted, map[string]any{"action": name})

	start := time.Now()

	var (
		result *core.ActionResult
		err    error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = core.NewPanicError("action", name, r)
				d.logger.Error("action.panic", "action", name, "recover", r)
			}
		}()
		result, err = act.Handle(ctx, rt, message, state, opts, callback, responses)
	}()

	dur := time.Since(start)

	if err != nil {
		var handlerErr *core.HandlerError
		if !errors.As(err, &handlerErr) {
			err = &core.HandlerError{Component: "action", Name: name, Err: err}
		}

		result = &core.ActionResult{ActionName: name, Success: false, Error: err.Error()}
	}

	logging.Calls(d.logger).LogActionCall(name, dur, result == nil || result.Success, err)

	if result != nil {
		if result.ActionName == "" {
			result.ActionName = name
		}

		d.results.Append(message.ID, *result)

		if state != nil {
			state.Data.ActionResults = append(state.Data.ActionResults, *result)
		}
	}

	data := map[string]any{"action": name, "success": err == nil}
	if result != nil {
		data["result"] = *result
	}

	d.emit(ctx, rt, message, core.EventActionCompleted, data)
}

func (d *Dispatcher) emit(ctx context.Context, rt core.Runtime, message *core.Memory, name string, data map[string]any) {
	if d.emitter == nil {
		return
	}

	payload := core.EventPayload{Runtime: rt, Source: "action", Message: message, Data: data}
	if err := d.emitter.Emit(ctx, payload, name); err != nil {
		d.logger.Debug("action.event.failed", "event", name, "error", err.Error())
	}
}
