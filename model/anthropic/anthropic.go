// Package anthropic provides model handlers backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/agentruntime/core"
)

// ProviderName tags every handler registered by this package.
const ProviderName = "anthropic"

// Options configures the Anthropic handlers.
type Options struct {
	SmallModel  anthropic.Model
	LargeModel  anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	// Priority is applied to every registered handler.
	Priority int
}

// Handler adapts an Anthropic client to core model handlers.
type Handler struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		SmallModel:  anthropic.ModelClaude3_5Haiku20241022,
		LargeModel:  anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// NewHandler creates a Handler using the official client.
func NewHandler(optFns ...func(o *Options)) *Handler {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Handler{client: &client, opts: opts}
}

// NewHandlerFromClient creates a Handler from an existing client.
func NewHandlerFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Handler {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Handler{client: client, opts: opts}
}

// Text returns a handler that completes params with the given model.
func (h *Handler) Text(modelName anthropic.Model) core.ModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (any, error) {
		resp, err := h.client.Messages.New(ctx, h.buildParams(modelName, params))
		if err != nil {
			return nil, fmt.Errorf("anthropic api error: %w", err)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.AsText().Text)
			}
		}

		return sb.String(), nil
	}
}

// TextStream returns a streaming handler for the given model.
func (h *Handler) TextStream(modelName anthropic.Model) core.StreamingModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (<-chan string, <-chan error) {
		out := make(chan string, 32)
		errCh := make(chan error, 1)

		go func() {
			defer close(out)
			defer close(errCh)

			stream := h.client.Messages.NewStreaming(ctx, h.buildParams(modelName, params))
			defer stream.Close()

			for stream.Next() {
				event := stream.Current()

				delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
				if !ok {
					continue
				}

				text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
				if !ok || text.Text == "" {
					continue
				}

				select {
				case out <- text.Text:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}

			if err := stream.Err(); err != nil {
				errCh <- fmt.Errorf("anthropic streaming error: %w", err)
			}
		}()

		return out, errCh
	}
}

func (h *Handler) buildParams(modelName anthropic.Model, params core.ModelParams) anthropic.MessageNewParams {
	temperature := h.opts.Temperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}

	maxTokens := h.opts.MaxTokens
	if params.MaxTokens > 0 {
		maxTokens = int64(params.MaxTokens)
	}

	p := anthropic.MessageNewParams{
		Model:       modelName,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(params.Prompt)),
		},
		StopSequences: params.StopSequences,
	}

	if params.System != "" {
		p.System = []anthropic.TextBlockParam{{Text: params.System}}
	}

	return p
}

// NewPlugin bundles the handler's text and streaming models.
func NewPlugin(h *Handler) *core.Plugin {
	return &core.Plugin{
		Name:        ProviderName,
		Description: "Anthropic Claude text models",
		Priority:    h.opts.Priority,
		Models: map[core.ModelType]core.ModelHandler{
			core.ModelTextSmall: h.Text(h.opts.SmallModel),
			core.ModelTextLarge: h.Text(h.opts.LargeModel),
		},
		StreamingModels: map[core.ModelType]core.StreamingModelHandler{
			core.ModelTextSmall: h.TextStream(h.opts.SmallModel),
			core.ModelTextLarge: h.TextStream(h.opts.LargeModel),
		},
	}
}
