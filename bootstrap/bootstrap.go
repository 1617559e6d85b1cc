// Package bootstrap provides the capability plugin every runtime loads first.
//
// The basic subset contributes the CHARACTER, ACTIONS, TIME and
// RECENT_MESSAGES providers and the REPLY, IGNORE and NONE actions. The
// extended subset adds the ACTION_STATE provider, the CHOOSE_OPTION action
// and the REFLECTION evaluator.
package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/plugin"
)

// Name is the capability plugin name.
const Name = plugin.DefaultCapabilityName

// Settings are decoded from the plugin config (overridable by runtime settings).
type Settings struct {
	RecentMessageCount int `mapstructure:"RECENT_MESSAGE_COUNT"`
}

// Options configures the plugin built by New.
type Options struct {
	// Now is the clock used by the TIME provider.
	Now func() time.Time
	// ReplyTemplate and ReflectionTemplate are text/template prompts
	// rendered against State.Values.
	ReplyTemplate      string
	ReflectionTemplate string
	Settings           Settings
}

type capability struct {
	opts Options

	mu       sync.RWMutex
	settings Settings
}

func (c *capability) current() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *capability) init(_ context.Context, config map[string]any, _ core.Runtime) error {
	settings := c.opts.Settings
	if err := plugin.DecodeConfig(config, &settings); err != nil {
		return err
	}

	if settings.RecentMessageCount <= 0 {
		settings.RecentMessageCount = c.opts.Settings.RecentMessageCount
	}

	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()

	return nil
}

// New builds the capability plugin for cfg.
func New(cfg core.CapabilityConfig, optFns ...func(o *Options)) *core.Plugin {
	opts := Options{
		Now:                time.Now,
		ReplyTemplate:      DefaultReplyTemplate,
		ReflectionTemplate: DefaultReflectionTemplate,
		Settings:           Settings{RecentMessageCount: 20},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := &capability{opts: opts, settings: opts.Settings}

	p := &core.Plugin{
		Name:        Name,
		Description: "Core providers, actions and evaluators for agent conversations",
		Config: map[string]any{
			"RECENT_MESSAGE_COUNT": opts.Settings.RecentMessageCount,
		},
		Init: c.init,
	}

	if !cfg.DisableBasic {
		if !cfg.SkipCharacterProvider {
			p.Providers = append(p.Providers, characterProvider())
		}

		p.Providers = append(p.Providers,
			actionsProvider(),
			timeProvider(opts.Now),
			c.recentMessagesProvider(),
		)

		p.Actions = append(p.Actions,
			c.replyAction(),
			ignoreAction(),
			noneAction(),
		)
	}

	if cfg.EnableExtended {
		p.Providers = append(p.Providers, actionStateProvider())
		p.Actions = append(p.Actions, chooseOptionAction())
		p.Evaluators = append(p.Evaluators, c.reflectionEvaluator())
	}

	return p
}

// Factory adapts New to plugin.Factory.
func Factory(optFns ...func(o *Options)) plugin.Factory {
	return func(cfg core.CapabilityConfig) *core.Plugin {
		return New(cfg, optFns...)
	}
}
