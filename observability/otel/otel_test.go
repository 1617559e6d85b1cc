package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentruntime/observability"
)

func newTestObserver() (*Observer, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	return New(func(o *Options) { o.TracerProvider = tp }), sr
}

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestObserverProviderAccess(t *testing.T) {
	obs, sr := newTestObserver()

	err := obs.LogProviderAccess(context.Background(), observability.ProviderAccess{
		StepID:       "step-1",
		ProviderName: "TIME",
		Data:         map[string]any{"hour": 12},
		Purpose:      observability.PurposeComposeState,
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "provider.access", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "TIME", attrs["agent.provider"].AsString())
	assert.Equal(t, "step-1", attrs["agent.step_id"].AsString())
	assert.Equal(t, `{"hour":12}`, attrs["agent.provider.data"].AsString())
}

func TestObserverProviderAccessUnencodableData(t *testing.T) {
	obs, sr := newTestObserver()

	err := obs.LogProviderAccess(context.Background(), observability.ProviderAccess{
		ProviderName: "BROKEN",
		Data:         map[string]any{"ch": make(chan int)},
	})
	assert.Error(t, err)
	assert.Empty(t, sr.Ended())
}

func TestObserverLLMCallDuration(t *testing.T) {
	obs, sr := newTestObserver()

	err := obs.LogLLMCall(context.Background(), observability.LLMCall{
		StepID:      "step-1",
		Model:       "TEXT_LARGE",
		UserPrompt:  "hi",
		Response:    "hello",
		Temperature: 0.7,
		MaxTokens:   256,
		Latency:     150 * time.Millisecond,
	})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "llm.call", spans[0].Name())
	assert.Equal(t, 150*time.Millisecond, spans[0].EndTime().Sub(spans[0].StartTime()))

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "TEXT_LARGE", attrs["llm.model"].AsString())
	assert.Equal(t, int64(256), attrs["llm.max_tokens"].AsInt64())
	assert.Equal(t, int64(150), attrs["llm.latency_ms"].AsInt64())
}
