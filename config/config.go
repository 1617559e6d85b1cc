// Package config loads runtime configuration from YAML or JSONC files and
// the environment.
//
// Files are optional: Default returns a usable configuration, Load overlays a
// file on top of it and ApplyEnv applies environment overrides last.
//
//	cfg, err := config.Load("agent.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv(os.LookupEnv)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvActionPlanning     = "AGENT_ACTION_PLANNING"
	EnvLLMMode            = "AGENT_LLM_MODE"
	EnvDisableBasic       = "DISABLE_BASIC_CAPABILITIES"
	EnvEnableExtended     = "ENABLE_EXTENDED_CAPABILITIES"
	EnvSkipCharacter      = "SKIP_CHARACTER_PROVIDER"
	EnvLogLevel           = "AGENT_LOG_LEVEL"
	EnvRedisAddr          = "AGENT_REDIS_ADDR"
	EnvHTTPAddr           = "AGENT_HTTP_ADDR"
	EnvMaxConcurrentTurns = "AGENT_MAX_CONCURRENT_TURNS"
	EnvTracing            = "AGENT_TRACING"
	EnvMetrics            = "AGENT_METRICS"
)

// LogConfig selects the log level and format ("json" or "text").
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// RedisConfig enables the shared state cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// HTTPConfig configures the plugin route server.
type HTTPConfig struct {
	Addr   string `yaml:"addr" json:"addr"`
	APIKey string `yaml:"api_key" json:"api_key"`
}

// TelemetryConfig toggles the trajectory observers.
type TelemetryConfig struct {
	Tracing bool `yaml:"tracing" json:"tracing"`
	Metrics bool `yaml:"metrics" json:"metrics"`
}

// Config is the complete runtime configuration.
type Config struct {
	Character core.Character `yaml:"character" json:"character"`
	// Settings are exposed through Runtime.GetSetting.
	Settings map[string]any `yaml:"settings" json:"settings"`

	ActionPlanning     bool                  `yaml:"action_planning" json:"action_planning"`
	LLMMode            core.LLMMode          `yaml:"llm_mode" json:"llm_mode"`
	MaxConcurrentTurns int                   `yaml:"max_concurrent_turns" json:"max_concurrent_turns"`
	Capabilities       core.CapabilityConfig `yaml:"capabilities" json:"capabilities"`

	Log       LogConfig       `yaml:"log" json:"log"`
	Redis     RedisConfig     `yaml:"redis" json:"redis"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Character:          core.Character{Name: "Agent"},
		Settings:           map[string]any{},
		ActionPlanning:     true,
		LLMMode:            core.LLMModeDefault,
		MaxConcurrentTurns: 10,
		Log:                LogConfig{Level: "info", Format: "text"},
		Redis:              RedisConfig{Prefix: "agentruntime:state:", TTL: 5 * time.Minute},
		HTTP:               HTTPConfig{Addr: ":3000"},
	}
}

// Load reads a YAML (.yaml, .yml) or JSON/JSONC (.json, .jsonc) file over
// the defaults. Capability flags found in the file's settings are decoded
// into Capabilities.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("parse json config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	if cfg.Settings == nil {
		cfg.Settings = map[string]any{}
	}

	caps, err := DecodeCapabilities(cfg.Settings)
	if err != nil {
		return nil, err
	}
	cfg.Capabilities = merge(cfg.Capabilities, caps)

	cfg.LLMMode = core.ParseLLMMode(string(cfg.LLMMode))

	return cfg, cfg.Validate()
}

// LookupFunc resolves an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from the environment. Malformed booleans and
// integers are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if v, ok := lookupBool(lookup, EnvActionPlanning); ok {
		c.ActionPlanning = v
	}
	if v, ok := lookup(EnvLLMMode); ok && v != "" {
		c.LLMMode = core.ParseLLMMode(v)
	}
	if v, ok := lookupBool(lookup, EnvDisableBasic); ok {
		c.Capabilities.DisableBasic = v
	}
	if v, ok := lookupBool(lookup, EnvEnableExtended); ok {
		c.Capabilities.EnableExtended = v
	}
	if v, ok := lookupBool(lookup, EnvSkipCharacter); ok {
		c.Capabilities.SkipCharacterProvider = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup(EnvMaxConcurrentTurns); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentTurns = n
		}
	}
	if v, ok := lookupBool(lookup, EnvTracing); ok {
		c.Telemetry.Tracing = v
	}
	if v, ok := lookupBool(lookup, EnvMetrics); ok {
		c.Telemetry.Metrics = v
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxConcurrentTurns < 0 {
		errs = append(errs, &core.ConfigurationError{Component: "config", Message: "max_concurrent_turns must not be negative"})
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, &core.ConfigurationError{Component: "config", Message: "redis.ttl must not be negative"})
	}
	if f := c.Log.Format; f != "" && f != "json" && f != "text" {
		errs = append(errs, &core.ConfigurationError{Component: "config", Message: fmt.Sprintf("unknown log format %q", f)})
	}

	return errors.Join(errs...)
}

// CapabilityOverride returns the capability config to hand to the engine,
// or nil when the defaults apply.
func (c *Config) CapabilityOverride() *core.CapabilityConfig {
	if c.Capabilities.IsZero() {
		return nil
	}
	caps := c.Capabilities
	return &caps
}

// NewLogger builds the structured logger described by Log.
func (c *Config) NewLogger() *logging.RuntimeLogger {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	cfg.AgentID = c.Character.ID
	return logging.NewLogger(cfg)
}

// capabilitySettings names the capability flags as they appear in settings.
type capabilitySettings struct {
	DisableBasic          bool `mapstructure:"DISABLE_BASIC_CAPABILITIES"`
	EnableExtended        bool `mapstructure:"ENABLE_EXTENDED_CAPABILITIES"`
	SkipCharacterProvider bool `mapstructure:"SKIP_CHARACTER_PROVIDER"`
}

// DecodeCapabilities reads capability flags from a settings map. Values may
// be booleans or strings such as "true" and "1".
func DecodeCapabilities(settings map[string]any) (core.CapabilityConfig, error) {
	var out capabilitySettings

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return core.CapabilityConfig{}, err
	}

	if err := dec.Decode(settings); err != nil {
		return core.CapabilityConfig{}, &core.ConfigurationError{Component: "config", Message: "decode capability settings", Err: err}
	}

	return core.CapabilityConfig{
		DisableBasic:          out.DisableBasic,
		EnableExtended:        out.EnableExtended,
		SkipCharacterProvider: out.SkipCharacterProvider,
	}, nil
}

func merge(a, b core.CapabilityConfig) core.CapabilityConfig {
	return core.CapabilityConfig{
		DisableBasic:          a.DisableBasic || b.DisableBasic,
		EnableExtended:        a.EnableExtended || b.EnableExtended,
		SkipCharacterProvider: a.SkipCharacterProvider || b.SkipCharacterProvider,
	}
}

func lookupBool(lookup LookupFunc, key string) (bool, bool) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
