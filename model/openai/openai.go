// Package openai provides model handlers backed by the OpenAI Chat
// Completions and Embeddings APIs.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/agentruntime/core"
)

// ProviderName tags every handler registered by this package.
const ProviderName = "openai"

// Options configure the OpenAI handlers.
type Options struct {
	SmallModel          string
	LargeModel          string
	EmbeddingModel      string
	Temperature         float64
	MaxCompletionTokens int64
	// Priority is applied to every registered handler.
	Priority int
}

// Handler adapts an OpenAI client to core model handlers.
type Handler struct {
	client *openai.Client
	opts   Options
}

// NewHandler creates a Handler using the default client (OPENAI_API_KEY from the environment).
func NewHandler(optFns ...func(o *Options)) *Handler {
	client := openai.NewClient()
	return NewHandlerFromClient(&client, optFns...)
}

// NewHandlerFromClient creates a Handler from an existing client.
func NewHandlerFromClient(client *openai.Client, optFns ...func(o *Options)) *Handler {
	opts := Options{
		SmallModel:          openai.ChatModelGPT4oMini,
		LargeModel:          openai.ChatModelGPT4o,
		EmbeddingModel:      string(openai.EmbeddingModelTextEmbedding3Small),
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Handler{client: client, opts: opts}
}

// Text returns a handler that completes params with the given chat model.
func (h *Handler) Text(modelName string) core.ModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (any, error) {
		resp, err := h.client.Chat.Completions.New(ctx, h.buildParams(modelName, params))
		if err != nil {
			return nil, fmt.Errorf("openai api error: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices returned")
		}

		return resp.Choices[0].Message.Content, nil
	}
}

// TextStream returns a streaming handler for the given chat model.
func (h *Handler) TextStream(modelName string) core.StreamingModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (<-chan string, <-chan error) {
		out := make(chan string, 32)
		errCh := make(chan error, 1)

		go func() {
			defer close(out)
			defer close(errCh)

			stream := h.client.Chat.Completions.NewStreaming(ctx, h.buildParams(modelName, params))
			defer stream.Close()

			for stream.Next() {
				for _, ch := range stream.Current().Choices {
					if ch.Delta.Content == "" {
						continue
					}
					select {
					case out <- ch.Delta.Content:
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					}
				}
			}

			if err := stream.Err(); err != nil {
				errCh <- fmt.Errorf("openai streaming error: %w", err)
			}
		}()

		return out, errCh
	}
}

// Embedding returns a handler producing a []float64 vector. The input text
// is params.Extra["text"], falling back to params.Prompt.
func (h *Handler) Embedding() core.ModelHandler {
	return func(ctx context.Context, _ core.Runtime, params core.ModelParams) (any, error) {
		text := params.Prompt
		if t, ok := params.Extra["text"].(string); ok && t != "" {
			text = t
		}

		resp, err := h.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model: openai.EmbeddingModel(h.opts.EmbeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding error: %w", err)
		}

		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}

		return resp.Data[0].Embedding, nil
	}
}

func (h *Handler) buildParams(modelName string, params core.ModelParams) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if params.System != "" {
		messages = append(messages, openai.SystemMessage(params.System))
	}
	messages = append(messages, openai.UserMessage(params.Prompt))

	temperature := h.opts.Temperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}

	maxTokens := h.opts.MaxCompletionTokens
	if params.MaxTokens > 0 {
		maxTokens = int64(params.MaxTokens)
	}

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               modelName,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
}

// NewPlugin bundles the handler's text, streaming and embedding models.
func NewPlugin(h *Handler) *core.Plugin {
	return &core.Plugin{
		Name:        ProviderName,
		Description: "OpenAI chat completion and embedding models",
		Priority:    h.opts.Priority,
		Models: map[core.ModelType]core.ModelHandler{
			core.ModelTextSmall:     h.Text(h.opts.SmallModel),
			core.ModelTextLarge:     h.Text(h.opts.LargeModel),
			core.ModelTextEmbedding: h.Embedding(),
		},
		StreamingModels: map[core.ModelType]core.StreamingModelHandler{
			core.ModelTextSmall: h.TextStream(h.opts.SmallModel),
			core.ModelTextLarge: h.TextStream(h.opts.LargeModel),
		},
	}
}
