package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentruntime"
	"github.com/hupe1980/agentruntime/config"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/model/anthropic"
	"github.com/hupe1980/agentruntime/model/openai"
)

type rootOptions struct {
	configPath string
	provider   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agentrt",
		Short:         "agentrt runs and inspects an agent runtime",
		Long:          `agentrt loads an agent configuration, registers the capability plugin and a model provider, and lets you inspect components, compose state, chat or serve plugin routes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSONC configuration file")
	cmd.PersistentFlags().StringVar(&opts.provider, "model-provider", "none", "Model provider plugin: none, mock, openai or anthropic")

	cmd.AddCommand(
		newComponentsCmd(opts),
		newComposeCmd(opts),
		newChatCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

// loadConfig reads the configuration file, if any, and applies the environment.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.LookupEnv)

	return cfg, nil
}

// modelPlugin builds the plugin for the selected model provider.
func (o *rootOptions) modelPlugin() (*core.Plugin, error) {
	switch o.provider {
	case "", "none":
		return nil, nil
	case "mock":
		return mockPlugin(), nil
	case openai.ProviderName:
		return openai.NewPlugin(openai.NewHandler()), nil
	case anthropic.ProviderName:
		return anthropic.NewPlugin(anthropic.NewHandler()), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", o.provider)
	}
}

// newRuntime builds and initializes a runtime from the flags.
func (o *rootOptions) newRuntime(ctx context.Context) (*agentruntime.AgentRuntime, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	p, err := o.modelPlugin()
	if err != nil {
		return nil, nil, err
	}

	rt, err := agentruntime.NewFromConfig(cfg, nil, func(opts *agentruntime.Options) {
		if p != nil {
			opts.Plugins = append(opts.Plugins, p)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	if err := rt.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	return rt, cfg, nil
}

const offlineReply = "<response><thought>no model provider configured</thought><actions>REPLY</actions><text>I am running without a model provider.</text></response>"

// mockPlugin answers every text request with a canned REPLY plan.
func mockPlugin() *core.Plugin {
	handler := func(ctx context.Context, _ core.Runtime, _ core.ModelParams) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return offlineReply, nil
	}

	return &core.Plugin{
		Name: "mock",
		Models: map[core.ModelType]core.ModelHandler{
			core.ModelTextSmall: handler,
			core.ModelTextLarge: handler,
		},
	}
}
