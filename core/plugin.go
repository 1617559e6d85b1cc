package core

import "context"

// Plugin bundles components for registration. A plugin is consumed once by
// the loader and never mutated afterwards.
type Plugin struct {
	Name        string
	Description string
	// Priority is applied to every model handler the plugin registers.
	Priority int
	Config   map[string]any
	Init     func(ctx context.Context, config map[string]any, rt Runtime) error

	Providers       []Provider
	Actions         []Action
	Evaluators      []Evaluator
	Models          map[ModelType]ModelHandler
	StreamingModels map[ModelType]StreamingModelHandler
	Services        []Service
	Routes          []Route
	Events          map[string][]EventHandler
	TaskWorkers     []TaskWorker
}

// CapabilityConfig reconfigures the capability plugin before registration.
type CapabilityConfig struct {
	DisableBasic          bool `mapstructure:"disable_basic" yaml:"disable_basic" json:"disable_basic"`
	EnableExtended        bool `mapstructure:"enable_extended" yaml:"enable_extended" json:"enable_extended"`
	SkipCharacterProvider bool `mapstructure:"skip_character_provider" yaml:"skip_character_provider" json:"skip_character_provider"`
}

// IsZero reports whether the config requests no change from the defaults.
func (c CapabilityConfig) IsZero() bool { return c == CapabilityConfig{} }

// Character describes the agent persona.
type Character struct {
	ID         string         `yaml:"id" json:"id"`
	Name       string         `yaml:"name" json:"name"`
	Username   string         `yaml:"username" json:"username,omitempty"`
	System     string         `yaml:"system" json:"system,omitempty"`
	Bio        []string       `yaml:"bio" json:"bio,omitempty"`
	Adjectives []string       `yaml:"adjectives" json:"adjectives,omitempty"`
	Topics     []string       `yaml:"topics" json:"topics,omitempty"`
	Settings   map[string]any `yaml:"settings" json:"settings,omitempty"`
}
