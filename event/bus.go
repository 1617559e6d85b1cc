// Package event provides the runtime's named-event bus.
//
// Handlers are invoked sequentially in registration order, each awaited
// before the next starts. A failing handler never prevents its siblings from
// running:
//
//	bus := event.NewBus(reg)
//	bus.Register(core.EventTurnComplete, func(ctx context.Context, p core.EventPayload) error {
//	    log.Printf("turn complete for %s", p.Message.ID)
//	    return nil
//	})
//	_ = bus.Emit(ctx, payload, core.EventTurnComplete)
package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
)

// Store holds event handlers. *registry.Registry satisfies it.
type Store interface {
	AddEventHandler(name string, h core.EventHandler)
	EventHandlers(name string) []core.EventHandler
}

// Options configures a Bus.
type Options struct {
	Logger logging.Logger
}

// Bus dispatches named events to registered handlers.
type Bus struct {
	store  Store
	logger logging.Logger
}

// NewBus creates a Bus over store.
func NewBus(store Store, optFns ...func(o *Options)) *Bus {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{store: store, logger: logging.OrNoop(opts.Logger)}
}

// Register appends a handler for name. Nil handlers are ignored.
func (b *Bus) Register(name string, h core.EventHandler) {
	if h == nil {
		return
	}
	b.store.AddEventHandler(name, h)
}

// Emit invokes every handler registered for each name, in order. Handler
// errors and panics are logged and joined into the returned error. A
// cancelled context stops the emission.
func (b *Bus) Emit(ctx context.Context, payload core.EventPayload, names ...string) error {
	var errs []error

	for _, name := range names {
		for i, h := range b.store.EventHandlers(name) {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}

			if err := b.invoke(ctx, name, h, payload); err != nil {
				b.logger.Warn("event.handler.failed", "event", name, "handler_index", i, "error", err.Error())
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func (b *Bus) invoke(ctx context.Context, name string, h core.EventHandler, payload core.EventPayload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewPanicError("event", name, r)
		}
	}()

	if err := h(ctx, payload); err != nil {
		return &core.HandlerError{Component: "event", Name: name, Err: fmt.Errorf("handler: %w", err)}
	}

	return nil
}
