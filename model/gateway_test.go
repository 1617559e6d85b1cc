package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/observability"
	"github.com/hupe1980/agentruntime/registry"
)

func constant(result string) core.ModelHandler {
	return func(context.Context, core.Runtime, core.ModelParams) (any, error) {
		return result, nil
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observability.LLMCall
	err   error
}

func (o *recordingObserver) LogProviderAccess(context.Context, observability.ProviderAccess) error {
	return nil
}

func (o *recordingObserver) LogLLMCall(_ context.Context, call observability.LLMCall) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, call)
	return o.err
}

func (o *recordingObserver) Calls() []observability.LLMCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observability.LLMCall(nil), o.calls...)
}

func TestUseModelPriority(t *testing.T) {
	g := NewGateway(registry.New())
	g.RegisterModel(core.ModelTextLarge, constant("low"), "a", 1)
	g.RegisterModel(core.ModelTextLarge, constant("high"), "b", 5)

	result, err := g.UseModel(context.Background(), nil, core.ModelTextLarge, core.ModelParams{Prompt: "p"}, "")
	require.NoError(t, err)
	assert.Equal(t, "high", result)
}

func TestUseModelTieKeepsRegistrationOrder(t *testing.T) {
	g := NewGateway(registry.New())
	g.RegisterModel(core.ModelTextSmall, constant("first"), "a", 0)
	g.RegisterModel(core.ModelTextSmall, constant("second"), "b", 0)

	result, err := g.UseModel(context.Background(), nil, core.ModelTextSmall, core.ModelParams{}, "")
	require.NoError(t, err)
	assert.Equal(t, "first", result)
}

func TestUseModelProviderFilter(t *testing.T) {
	g := NewGateway(registry.New())
	g.RegisterModel(core.ModelTextLarge, constant("openai"), "openai", 1)
	g.RegisterModel(core.ModelTextLarge, constant("anthropic"), "anthropic", 5)

	result, err := g.UseModel(context.Background(), nil, core.ModelTextLarge, core.ModelParams{}, "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", result)

	_, err = g.UseModel(context.Background(), nil, core.ModelTextLarge, core.ModelParams{}, "local")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoProviderHandler)

	var lookupErr *core.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "local", lookupErr.Provider)
}

func TestUseModelMissingHandler(t *testing.T) {
	g := NewGateway(registry.New())

	_, err := g.UseModel(context.Background(), nil, core.ModelImage, core.ModelParams{}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoModelHandler)
	assert.Contains(t, err.Error(), "IMAGE")
}

func TestUseModelHandlerErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	g := NewGateway(registry.New())
	g.RegisterModel(core.ModelTextSmall, func(context.Context, core.Runtime, core.ModelParams) (any, error) {
		return nil, boom
	}, "a", 0)

	_, err := g.UseModel(context.Background(), nil, core.ModelTextSmall, core.ModelParams{}, "")
	assert.ErrorIs(t, err, boom)
}

func TestLLMModeOverride(t *testing.T) {
	g := NewGateway(registry.New(), func(o *Options) { o.Mode = core.LLMModeSmall })
	g.RegisterModel(core.ModelTextSmall, constant("small"), "a", 0)
	g.RegisterModel(core.ModelTextLarge, constant("large"), "a", 0)
	g.RegisterModel(core.ModelTextEmbedding, constant("embedding"), "a", 0)

	result, err := g.UseModel(context.Background(), nil, core.ModelTextLarge, core.ModelParams{}, "")
	require.NoError(t, err)
	assert.Equal(t, "small", result)

	result, err = g.UseModel(context.Background(), nil, core.ModelTextEmbedding, core.ModelParams{}, "")
	require.NoError(t, err)
	assert.Equal(t, "embedding", result)

	g.SetMode(core.LLMModeLarge)
	assert.Equal(t, core.ModelTextLarge, g.EffectiveKind(core.ModelTextReasoningSmall))
	assert.Equal(t, core.ModelImage, g.EffectiveKind(core.ModelImage))

	g.SetMode(core.LLMModeDefault)
	assert.Equal(t, core.ModelTextReasoningSmall, g.EffectiveKind(core.ModelTextReasoningSmall))
}

func TestHasModel(t *testing.T) {
	g := NewGateway(registry.New())
	assert.False(t, g.HasModel(core.ModelTextSmall))

	mock := NewMockModel()
	g.RegisterModel(core.ModelTextSmall, mock.Handler(), "mock", 0)
	g.RegisterStreamingModel(core.ModelTextSmall, mock.StreamingHandler(), "mock", 0)

	assert.True(t, g.HasModel(core.ModelTextSmall))
	assert.True(t, g.HasStreamingModel(core.ModelTextSmall))
	assert.False(t, g.HasStreamingModel(core.ModelTextLarge))
}

func TestObserverOnlyWithActiveStep(t *testing.T) {
	obs := &recordingObserver{}
	g := NewGateway(registry.New(), func(o *Options) { o.Observer = obs })
	g.RegisterModel(core.ModelTextLarge, constant("answer"), "a", 0)

	temp := 0.2
	params := core.ModelParams{
		Prompt:      "question",
		System:      "be brief",
		Temperature: &temp,
		MaxTokens:   64,
		Extra:       map[string]any{PurposeKey: "action"},
	}

	_, err := g.UseModel(context.Background(), nil, core.ModelTextLarge, params, "")
	require.NoError(t, err)
	assert.Empty(t, obs.Calls())

	ctx := observability.ContextWithStep(context.Background(), "step-1")
	_, err = g.UseModel(ctx, nil, core.ModelTextLarge, params, "")
	require.NoError(t, err)

	calls := obs.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "step-1", calls[0].StepID)
	assert.Equal(t, "TEXT_LARGE", calls[0].Model)
	assert.Equal(t, "be brief", calls[0].SystemPrompt)
	assert.Equal(t, "question", calls[0].UserPrompt)
	assert.Equal(t, "answer", calls[0].Response)
	assert.Equal(t, 0.2, calls[0].Temperature)
	assert.Equal(t, 64, calls[0].MaxTokens)
	assert.Equal(t, "action", calls[0].Purpose)
}

func TestObserverFailureDoesNotFailCall(t *testing.T) {
	obs := &recordingObserver{err: errors.New("sink down")}
	g := NewGateway(registry.New(), func(o *Options) { o.Observer = obs })
	g.RegisterModel(core.ModelTextSmall, constant("ok"), "a", 0)

	ctx := observability.ContextWithStep(context.Background(), "step-1")
	result, err := g.UseModel(ctx, nil, core.ModelTextSmall, core.ModelParams{}, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	calls := obs.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, DefaultPurpose, calls[0].Purpose)
}

func collect(t *testing.T, chunks <-chan string, errs <-chan error) (string, error) {
	t.Helper()

	var sb strings.Builder
	for c := range chunks {
		sb.WriteString(c)
	}

	var err error
	for e := range errs {
		if e != nil && err == nil {
			err = e
		}
	}

	return sb.String(), err
}

func TestUseModelStream(t *testing.T) {
	obs := &recordingObserver{}
	g := NewGateway(registry.New(), func(o *Options) { o.Observer = obs })

	low := NewMockModel()
	low.AddResponse("hi", "low")
	high := NewMockModel()
	high.AddResponse("hi", "hello there")

	g.RegisterStreamingModel(core.ModelTextLarge, low.StreamingHandler(), "low", 1)
	g.RegisterStreamingModel(core.ModelTextLarge, high.StreamingHandler(), "high", 5)

	ctx := observability.ContextWithStep(context.Background(), "step-1")
	chunks, errs, err := g.UseModelStream(ctx, nil, core.ModelTextLarge, core.ModelParams{Prompt: "hi"}, "")
	require.NoError(t, err)

	text, streamErr := collect(t, chunks, errs)
	require.NoError(t, streamErr)
	assert.Equal(t, "hello there", text)
	assert.Empty(t, low.Calls())

	calls := obs.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "hello there", calls[0].Response)
}

func TestUseModelStreamErrors(t *testing.T) {
	g := NewGateway(registry.New())

	_, _, err := g.UseModelStream(context.Background(), nil, core.ModelTextSmall, core.ModelParams{}, "")
	assert.ErrorIs(t, err, core.ErrNoModelHandler)

	boom := errors.New("boom")
	g.RegisterStreamingModel(core.ModelTextSmall, func(context.Context, core.Runtime, core.ModelParams) (<-chan string, <-chan error) {
		out := make(chan string, 1)
		errCh := make(chan error, 1)
		out <- "partial"
		close(out)
		errCh <- boom
		close(errCh)
		return out, errCh
	}, "a", 0)

	_, _, err = g.UseModelStream(context.Background(), nil, core.ModelTextSmall, core.ModelParams{}, "b")
	assert.ErrorIs(t, err, core.ErrNoProviderHandler)

	chunks, errs, err := g.UseModelStream(context.Background(), nil, core.ModelTextSmall, core.ModelParams{}, "")
	require.NoError(t, err)

	text, streamErr := collect(t, chunks, errs)
	assert.Equal(t, "partial", text)
	assert.ErrorIs(t, streamErr, boom)
}

func TestMockModel(t *testing.T) {
	mock := NewMockModel()
	mock.AddResponse("ping", "pong")

	result, err := mock.Handler()(context.Background(), nil, core.ModelParams{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	result, err = mock.Handler()(context.Background(), nil, core.ModelParams{Prompt: "other"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", result)

	mock.Enqueue("queued")
	result, err = mock.Handler()(context.Background(), nil, core.ModelParams{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "queued", result)

	assert.Len(t, mock.Calls(), 3)
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", ResponseText(nil))
	assert.Equal(t, "x", ResponseText("x"))
	assert.Equal(t, "[0.1,0.2]", ResponseText([]float64{0.1, 0.2}))
}
