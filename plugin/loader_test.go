package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentruntime/component"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/internal/testutil"
	"github.com/hupe1980/agentruntime/registry"
)

func text(s string) component.ProviderFunc {
	return func(context.Context, core.Runtime, *core.Memory, *core.State) (*core.ProviderResult, error) {
		return &core.ProviderResult{Text: s}, nil
	}
}

func noopAction(context.Context, core.Runtime, *core.Memory, *core.State, *core.HandlerOptions, core.HandlerCallback, []*core.Memory) (*core.ActionResult, error) {
	return &core.ActionResult{Success: true}, nil
}

func providerNames(reg *registry.Registry) []string {
	var names []string
	for _, p := range reg.Providers() {
		names = append(names, p.Name())
	}
	return names
}

// capabilityFactory mimics the capability plugin: a CHARACTER provider unless skipped.
func capabilityFactory(calls *[]core.CapabilityConfig) Factory {
	return func(cfg core.CapabilityConfig) *core.Plugin {
		*calls = append(*calls, cfg)

		p := &core.Plugin{Name: DefaultCapabilityName}
		if !cfg.SkipCharacterProvider {
			p.Providers = append(p.Providers, component.NewProvider("CHARACTER", text("character")))
		}
		p.Providers = append(p.Providers, component.NewProvider("TIME", text("time")))
		return p
	}
}

func TestRegisterAppendsComponents(t *testing.T) {
	reg := registry.New()
	loader := NewLoader(reg)

	p := &core.Plugin{
		Name:      "demo",
		Priority:  7,
		Providers: []core.Provider{component.NewProvider("P", text("p"))},
		Actions:   []core.Action{component.NewAction("A", noopAction)},
		Evaluators: []core.Evaluator{component.NewEvaluator("E", func(context.Context, core.Runtime, *core.Memory, *core.State, core.HandlerCallback, []*core.Memory) error {
			return nil
		})},
		Models: map[core.ModelType]core.ModelHandler{
			core.ModelTextSmall: func(context.Context, core.Runtime, core.ModelParams) (any, error) { return "ok", nil },
		},
		Events: map[string][]core.EventHandler{
			core.EventTurnComplete: {func(context.Context, core.EventPayload) error { return nil }},
		},
		TaskWorkers: []core.TaskWorker{{Name: "cleanup"}},
		Services:    []core.Service{component.NewService("cache", nil)},
		Routes:      []core.Route{{Type: http.MethodGet, Path: "/status"}},
	}

	require.NoError(t, loader.Register(context.Background(), nil, p))

	assert.Equal(t, []string{"demo"}, reg.Plugins())
	assert.Equal(t, []string{"P"}, providerNames(reg))
	_, ok := reg.Action("A")
	assert.True(t, ok)
	assert.Len(t, reg.Evaluators(), 1)

	models := reg.Models(core.ModelTextSmall)
	require.Len(t, models, 1)
	assert.Equal(t, "demo", models[0].Provider)
	assert.Equal(t, 7, models[0].Priority)

	assert.Len(t, reg.EventHandlers(core.EventTurnComplete), 1)
	_, ok = reg.TaskWorker("cleanup")
	assert.True(t, ok)
	_, ok = reg.Service("cache")
	assert.True(t, ok)

	routes := reg.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "demo", routes[0].PluginName)
}

func TestRegisterRejectsInvalidPlugins(t *testing.T) {
	loader := NewLoader(registry.New())

	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, loader.Register(context.Background(), nil, nil), &cfgErr)
	assert.ErrorAs(t, loader.Register(context.Background(), nil, &core.Plugin{}), &cfgErr)
}

func TestRegisterSkipsSecondInstance(t *testing.T) {
	reg := registry.New()
	loader := NewLoader(reg)

	inits := 0
	newPlugin := func(provider string) *core.Plugin {
		return &core.Plugin{
			Name:      "demo",
			Providers: []core.Provider{component.NewProvider(provider, text(provider))},
			Init: func(context.Context, map[string]any, core.Runtime) error {
				inits++
				return nil
			},
		}
	}

	require.NoError(t, loader.Register(context.Background(), nil, newPlugin("FIRST")))
	require.NoError(t, loader.Register(context.Background(), nil, newPlugin("SECOND")))

	assert.Equal(t, 1, inits)
	assert.Equal(t, []string{"FIRST"}, providerNames(reg))
}

func TestRegisterInitFailure(t *testing.T) {
	reg := registry.New()
	loader := NewLoader(reg)

	boom := errors.New("boom")
	err := loader.Register(context.Background(), nil, &core.Plugin{
		Name: "broken",
		Init: func(context.Context, map[string]any, core.Runtime) error { return boom },
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, loader.Loaded("broken"))
}

func TestRegisterDuplicateComponentsAreSkipped(t *testing.T) {
	reg := registry.New()
	loader := NewLoader(reg)

	require.NoError(t, loader.Register(context.Background(), nil, &core.Plugin{
		Name:      "one",
		Providers: []core.Provider{component.NewProvider("SHARED", text("one"))},
	}))
	require.NoError(t, loader.Register(context.Background(), nil, &core.Plugin{
		Name:      "two",
		Providers: []core.Provider{component.NewProvider("SHARED", text("two")), component.NewProvider("OWN", text("own"))},
	}))

	assert.Equal(t, []string{"SHARED", "OWN"}, providerNames(reg))
}

func TestInitReceivesResolvedConfig(t *testing.T) {
	rt := testutil.NewRuntime()
	rt.Settings = map[string]any{"API_URL": "https://override"}

	var got map[string]any
	loader := NewLoader(registry.New())
	require.NoError(t, loader.Register(context.Background(), rt, &core.Plugin{
		Name:   "demo",
		Config: map[string]any{"API_URL": "https://default", "RETRIES": "3"},
		Init: func(_ context.Context, config map[string]any, _ core.Runtime) error {
			got = config
			return nil
		},
	}))

	assert.Equal(t, map[string]any{"API_URL": "https://override", "RETRIES": "3"}, got)

	var decoded struct {
		APIURL  string `mapstructure:"API_URL"`
		Retries int    `mapstructure:"RETRIES"`
	}
	require.NoError(t, DecodeConfig(got, &decoded))
	assert.Equal(t, "https://override", decoded.APIURL)
	assert.Equal(t, 3, decoded.Retries)
}

func TestRegisterAllAutoInsertsCapability(t *testing.T) {
	var calls []core.CapabilityConfig
	reg := registry.New()
	loader := NewLoader(reg, func(o *Options) { o.Factory = capabilityFactory(&calls) })

	other := &core.Plugin{Name: "other", Providers: []core.Provider{component.NewProvider("OTHER", text("o"))}}
	require.NoError(t, loader.RegisterAll(context.Background(), nil, []*core.Plugin{other}))

	assert.Equal(t, []string{DefaultCapabilityName, "other"}, reg.Plugins())
	assert.Equal(t, []string{"CHARACTER", "TIME", "OTHER"}, providerNames(reg))
	assert.Len(t, calls, 1)
}

func TestRegisterAllUsesCallerCapabilityFirst(t *testing.T) {
	var calls []core.CapabilityConfig
	reg := registry.New()
	loader := NewLoader(reg, func(o *Options) { o.Factory = capabilityFactory(&calls) })

	custom := &core.Plugin{Name: DefaultCapabilityName, Providers: []core.Provider{component.NewProvider("CUSTOM", text("c"))}}
	duplicate := &core.Plugin{Name: DefaultCapabilityName, Providers: []core.Provider{component.NewProvider("DUP", text("d"))}}
	other := &core.Plugin{Name: "other"}

	require.NoError(t, loader.RegisterAll(context.Background(), nil, []*core.Plugin{other, custom, duplicate}))

	assert.Equal(t, []string{DefaultCapabilityName, "other"}, reg.Plugins())
	assert.Equal(t, []string{"CUSTOM"}, providerNames(reg))
	assert.Empty(t, calls)
}

func TestRegisterAllWithCapabilityConfig(t *testing.T) {
	var calls []core.CapabilityConfig
	reg := registry.New()
	loader := NewLoader(reg, func(o *Options) {
		o.Factory = capabilityFactory(&calls)
		o.Capabilities = &core.CapabilityConfig{SkipCharacterProvider: true}
	})

	custom := &core.Plugin{Name: DefaultCapabilityName, Providers: []core.Provider{component.NewProvider("CUSTOM", text("c"))}}
	require.NoError(t, loader.RegisterAll(context.Background(), nil, []*core.Plugin{custom}))

	assert.Equal(t, []string{DefaultCapabilityName}, reg.Plugins())
	assert.Equal(t, []string{"TIME"}, providerNames(reg))
	require.Len(t, calls, 1)
	assert.True(t, calls[0].SkipCharacterProvider)
}

func TestRegisterAllCapabilityConfigRequiresFactory(t *testing.T) {
	reg := registry.New()
	loader := NewLoader(reg, func(o *Options) {
		o.Capabilities = &core.CapabilityConfig{EnableExtended: true}
	})

	custom := &core.Plugin{Name: DefaultCapabilityName, Providers: []core.Provider{component.NewProvider("CUSTOM", text("c"))}}
	err := loader.RegisterAll(context.Background(), nil, []*core.Plugin{custom, {Name: "other"}})
	require.Error(t, err)

	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, core.ErrNoCapabilityFactory)
	assert.Empty(t, reg.Plugins())
	assert.Empty(t, providerNames(reg))
}
