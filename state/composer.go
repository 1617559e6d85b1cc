// Package state composes the per-turn State from registered providers.
//
// Providers run sequentially in ascending (position, registration order).
// Their texts are joined with newlines, their values merged last-write-wins
// and their data stored per provider name. Results are cached per room id
// unless the caller bypasses the cache or a trajectory step is active.
package state

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/observability"
)

// ProvidersKey is the State.Values key mirroring the joined provider text.
const ProvidersKey = "providers"

// ProviderSource lists providers in registration order.
type ProviderSource interface {
	Providers() []core.Provider
}

// Options configures a Composer.
type Options struct {
	Cache    Cache
	Observer observability.Observer
	Logger   logging.Logger
}

// Composer builds States.
type Composer struct {
	source   ProviderSource
	cache    Cache
	recorder *observability.Recorder
	logger   logging.Logger
}

// NewComposer creates a Composer over source. The cache defaults to a MemoryCache.
func NewComposer(source ProviderSource, optFns ...func(o *Options)) *Composer {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}

	logger := logging.ForComponent(opts.Logger, "composer")

	return &Composer{
		source:   source,
		cache:    opts.Cache,
		recorder: observability.NewRecorder(opts.Observer, logger),
		logger:   logger,
	}
}

// Compose builds the State for message.
//
// A cached State for the room is returned unchanged unless opts.SkipCache is
// set or a trajectory step marker is active (message metadata or ctx).
// Provider errors are logged and the provider contributes nothing. The only
// error returned is ctx's when cancelled between providers.
func (c *Composer) Compose(ctx context.Context, rt core.Runtime, message *core.Memory, opts core.ComposeOptions) (*core.State, error) {
	if message == nil {
		return nil, errors.New("compose state: message is required")
	}

	stepID := observability.StepID(ctx, message)
	skipCache := opts.SkipCache || stepID != ""

	if !skipCache {
		cached, ok, err := c.cache.Get(ctx, message.RoomID)
		if err != nil {
			c.logger.Warn("state.cache.get_failed", "room_id", message.RoomID, "error", err.Error())
		} else if ok {
			c.logger.Debug("state.cache.hit", "room_id", message.RoomID)
			return cached, nil
		}
	}

	providers := SelectProviders(c.source.Providers(), opts)

	st := core.NewState()
	texts := make([]string, 0, len(providers))

	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := c.get(ctx, rt, p, message, st)
		logging.Calls(c.logger).LogProviderCall(p.Name(), time.Since(start), err)

		if err != nil {
			continue
		}

		if res == nil {
			continue
		}

		if res.Text != "" {
			texts = append(texts, res.Text)
		}

		for k, v := range res.Values {
			st.Values[k] = v
		}

		if res.Data != nil {
			st.Data.Providers[p.Name()] = res.Data
		}

		if stepID != "" {
			c.recorder.ProviderAccess(ctx, observability.ProviderAccess{
				StepID:       stepID,
				ProviderName: p.Name(),
				Data:         observability.JSONSafe(res.Data),
				Purpose:      observability.PurposeComposeState,
			})
		}
	}

	st.Text = strings.Join(texts, "\n")
	st.Values[ProvidersKey] = st.Text

	if !skipCache {
		if err := c.cache.Set(ctx, message.RoomID, st); err != nil {
			c.logger.Warn("state.cache.set_failed", "room_id", message.RoomID, "error", err.Error())
		}
	}

	return st, nil
}

// Invalidate drops the cached State for a room.
func (c *Composer) Invalidate(ctx context.Context, roomID string) error {
	return c.cache.Delete(ctx, roomID)
}

func (c *Composer) get(ctx context.Context, rt core.Runtime, p core.Provider, message *core.Memory, st *core.State) (res *core.ProviderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewPanicError("provider", p.Name(), r)
		}
	}()

	return p.Get(ctx, rt, message, st)
}

// SelectProviders applies the include rules and orders the result by
// (position, registration order).
//
// Without Include every non-private provider is selected. Include without
// OnlyInclude adds the named providers (private ones too) to that default
// set. Include with OnlyInclude selects exactly the named providers. Unknown
// names are ignored.
func SelectProviders(all []core.Provider, opts core.ComposeOptions) []core.Provider {
	named := make(map[string]bool, len(opts.Include))
	for _, n := range opts.Include {
		named[n] = true
	}

	only := opts.OnlyInclude && len(named) > 0

	selected := make([]core.Provider, 0, len(all))

	for _, p := range all {
		switch {
		case only:
			if named[p.Name()] {
				selected = append(selected, p)
			}
		case named[p.Name()] || !p.Private():
			selected = append(selected, p)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Position() < selected[j].Position()
	})

	return selected
}
