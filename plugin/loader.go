// Package plugin loads plugins into the component registry.
//
// Each plugin name is registered at most once. The capability plugin is
// always loaded first; when capability settings are supplied the loader
// builds it through its Factory instead of using a caller-supplied instance.
package plugin

import (
	"context"
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/registry"
)

// DefaultCapabilityName is the name of the built-in capability plugin.
const DefaultCapabilityName = "bootstrap"

// Factory builds the capability plugin for a configuration.
type Factory func(cfg core.CapabilityConfig) *core.Plugin

// Options configures a Loader.
type Options struct {
	// CapabilityName identifies the capability plugin among caller plugins.
	CapabilityName string
	// Capabilities, when set, forces the factory-built variant. Factory is
	// then required.
	Capabilities *core.CapabilityConfig
	Factory      Factory
	Logger       logging.Logger
}

// Loader registers plugin components.
type Loader struct {
	reg  *registry.Registry
	opts Options
	log  logging.Logger
}

// NewLoader creates a Loader writing into reg.
func NewLoader(reg *registry.Registry, optFns ...func(o *Options)) *Loader {
	opts := Options{
		CapabilityName: DefaultCapabilityName,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Loader{reg: reg, opts: opts, log: logging.OrNoop(opts.Logger)}
}

// Loaded reports whether a plugin name has been registered.
func (l *Loader) Loaded(name string) bool {
	return slices.Contains(l.reg.Plugins(), name)
}

// Register initializes a plugin and appends its components. A plugin whose
// name is already registered is skipped. Duplicate component names are
// logged and skipped; the rest of the plugin still loads.
func (l *Loader) Register(ctx context.Context, rt core.Runtime, p *core.Plugin) error {
	if p == nil {
		return &core.ConfigurationError{Component: "plugin", Message: "plugin is nil"}
	}

	if p.Name == "" {
		return &core.ConfigurationError{Component: "plugin", Message: "plugin name is required"}
	}

	if l.Loaded(p.Name) {
		l.log.Debug("plugin.skipped", "plugin", p.Name, "reason", "already registered")
		return nil
	}

	if p.Init != nil {
		if err := p.Init(ctx, ResolveConfig(p.Config, rt), rt); err != nil {
			return &core.ConfigurationError{Component: "plugin", Message: fmt.Sprintf("init %s", p.Name), Err: err}
		}
	}

	if !l.reg.MarkPlugin(p.Name) {
		return nil
	}

	l.registerComponents(p)

	l.log.Info("plugin.registered",
		"plugin", p.Name,
		"providers", len(p.Providers),
		"actions", len(p.Actions),
		"evaluators", len(p.Evaluators),
		"models", len(p.Models),
	)

	return nil
}

func (l *Loader) registerComponents(p *core.Plugin) {
	for _, provider := range p.Providers {
		if err := l.reg.AddProvider(provider); err != nil {
			l.log.Warn("plugin.provider.skipped", "plugin", p.Name, "error", err.Error())
		}
	}

	for _, action := range p.Actions {
		if err := l.reg.AddAction(action); err != nil {
			l.log.Warn("plugin.action.skipped", "plugin", p.Name, "error", err.Error())
		}
	}

	for _, evaluator := range p.Evaluators {
		if err := l.reg.AddEvaluator(evaluator); err != nil {
			l.log.Warn("plugin.evaluator.skipped", "plugin", p.Name, "error", err.Error())
		}
	}

	for kind, handler := range p.Models {
		l.reg.AddModel(kind, core.ModelRegistration{Handler: handler, Provider: p.Name, Priority: p.Priority})
	}

	for kind, handler := range p.StreamingModels {
		l.reg.AddStreamingModel(kind, core.StreamingModelRegistration{Handler: handler, Provider: p.Name, Priority: p.Priority})
	}

	for name, handlers := range p.Events {
		for _, h := range handlers {
			if h != nil {
				l.reg.AddEventHandler(name, h)
			}
		}
	}

	for _, w := range p.TaskWorkers {
		l.reg.AddTaskWorker(w)
	}

	for _, s := range p.Services {
		if err := l.reg.AddService(s); err != nil {
			l.log.Warn("plugin.service.skipped", "plugin", p.Name, "error", err.Error())
		}
	}

	for _, route := range p.Routes {
		route.PluginName = p.Name
		l.reg.AddRoute(route)
	}
}

// RegisterAll loads the capability plugin first and then every other plugin
// in order. It stops at the first registration error.
func (l *Loader) RegisterAll(ctx context.Context, rt core.Runtime, plugins []*core.Plugin) error {
	capability, err := l.capability(plugins)
	if err != nil {
		return err
	}

	if capability != nil {
		if err := l.Register(ctx, rt, capability); err != nil {
			return err
		}
	}

	for _, p := range plugins {
		if p == nil || p.Name == l.opts.CapabilityName {
			continue
		}

		if err := l.Register(ctx, rt, p); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) capability(plugins []*core.Plugin) (*core.Plugin, error) {
	if l.opts.Capabilities != nil {
		if l.opts.Factory == nil {
			return nil, &core.ConfigurationError{Component: "plugin", Message: fmt.Sprintf("capability settings for %s", l.opts.CapabilityName), Err: core.ErrNoCapabilityFactory}
		}

		l.log.Debug("plugin.capability.configured", "plugin", l.opts.CapabilityName,
			"disable_basic", l.opts.Capabilities.DisableBasic,
			"enable_extended", l.opts.Capabilities.EnableExtended,
			"skip_character_provider", l.opts.Capabilities.SkipCharacterProvider,
		)

		p := l.opts.Factory(*l.opts.Capabilities)
		if p == nil {
			return nil, &core.ConfigurationError{Component: "plugin", Message: fmt.Sprintf("capability factory returned no plugin for %s", l.opts.CapabilityName)}
		}

		return l.named(p), nil
	}

	for _, p := range plugins {
		if p != nil && p.Name == l.opts.CapabilityName {
			return p, nil
		}
	}

	if l.opts.Factory != nil {
		return l.named(l.opts.Factory(core.CapabilityConfig{})), nil
	}

	return nil, nil
}

func (l *Loader) named(p *core.Plugin) *core.Plugin {
	if p == nil || p.Name == l.opts.CapabilityName {
		return p
	}

	clone := *p
	clone.Name = l.opts.CapabilityName

	return &clone
}

// ResolveConfig returns a copy of config in which every key that the runtime
// also knows as a setting takes the runtime's value.
func ResolveConfig(config map[string]any, rt core.Runtime) map[string]any {
	out := make(map[string]any, len(config))

	for k, v := range config {
		out[k] = v

		if rt == nil {
			continue
		}

		if setting, ok := rt.GetSetting(k); ok && setting != nil {
			out[k] = setting
		}
	}

	return out
}

// DecodeConfig decodes a resolved plugin config into target (a pointer to a
// struct with mapstructure tags). String values such as "true" or "5" are
// converted to the field type.
func DecodeConfig(config map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}

	return dec.Decode(config)
}
