package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentruntime/component"
	"github.com/hupe1980/agentruntime/core"
)

func noopProvider(name string) core.Provider {
	return component.NewProvider(name, func(context.Context, core.Runtime, *core.Memory, *core.State) (*core.ProviderResult, error) {
		return &core.ProviderResult{}, nil
	})
}

func noopAction(name string) core.Action {
	return component.NewAction(name, func(context.Context, core.Runtime, *core.Memory, *core.State, *core.HandlerOptions, core.HandlerCallback, []*core.Memory) (*core.ActionResult, error) {
		return nil, nil
	})
}

func TestRegistryProvidersKeepRegistrationOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.AddProvider(noopProvider("B")))
	require.NoError(t, r.AddProvider(noopProvider("A")))

	err := r.AddProvider(noopProvider("A"))
	assert.True(t, errors.Is(err, core.ErrDuplicateComponent))

	providers := r.Providers()
	require.Len(t, providers, 2)
	assert.Equal(t, "B", providers[0].Name())
	assert.Equal(t, "A", providers[1].Name())
}

func TestRegistryActionLookupIsCaseSensitive(t *testing.T) {
	r := New()
	require.NoError(t, r.AddAction(noopAction("MOVE")))

	_, ok := r.Action("MOVE")
	assert.True(t, ok)

	_, ok = r.Action("move")
	assert.False(t, ok)

	assert.ErrorIs(t, r.AddAction(noopAction("MOVE")), core.ErrDuplicateComponent)
}

func TestRegistryModelsAppend(t *testing.T) {
	r := New()
	r.AddModel(core.ModelTextLarge, core.ModelRegistration{Provider: "a", Priority: 1})
	r.AddModel(core.ModelTextLarge, core.ModelRegistration{Provider: "b", Priority: 5})

	models := r.Models(core.ModelTextLarge)
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Provider)
	assert.Empty(t, r.Models(core.ModelTextSmall))

	// returned slices are copies
	models[0].Provider = "mutated"
	assert.Equal(t, "a", r.Models(core.ModelTextLarge)[0].Provider)
}

func TestRegistryEventsAndServices(t *testing.T) {
	r := New()
	var calls []int
	r.AddEventHandler("X", func(context.Context, core.EventPayload) error { calls = append(calls, 1); return nil })
	r.AddEventHandler("X", func(context.Context, core.EventPayload) error { calls = append(calls, 2); return nil })

	for _, h := range r.EventHandlers("X") {
		require.NoError(t, h(context.Background(), core.EventPayload{}))
	}
	assert.Equal(t, []int{1, 2}, calls)

	require.NoError(t, r.AddService(component.NewService("cache", nil)))
	assert.ErrorIs(t, r.AddService(component.NewService("cache", nil)), core.ErrDuplicateComponent)

	s, ok := r.Service("cache")
	require.True(t, ok)
	assert.Equal(t, "cache", s.Type())
	assert.Len(t, r.Services(), 1)
}

func TestRegistryMarkPlugin(t *testing.T) {
	r := New()
	assert.True(t, r.MarkPlugin("bootstrap"))
	assert.False(t, r.MarkPlugin("bootstrap"))
	assert.Equal(t, []string{"bootstrap"}, r.Plugins())
}
