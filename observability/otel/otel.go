// Package otel provides an observability.Observer that records trajectory
// reports as OpenTelemetry spans.
package otel

import (
	"context"
	"encoding/json"
	"time"

	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentruntime/observability"
)

// DefaultInstrumentationName names the tracer used by Observer.
const DefaultInstrumentationName = "github.com/hupe1980/agentruntime"

// Options configures an Observer.
type Options struct {
	// TracerProvider defaults to the global provider.
	TracerProvider      trace.TracerProvider
	InstrumentationName string
}

// Observer emits one span per provider access and per LLM call.
type Observer struct {
	tracer trace.Tracer
}

// New creates an Observer.
func New(optFns ...func(o *Options)) *Observer {
	opts := Options{
		InstrumentationName: DefaultInstrumentationName,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = gotel.GetTracerProvider()
	}

	return &Observer{tracer: opts.TracerProvider.Tracer(opts.InstrumentationName)}
}

// LogProviderAccess records an instantaneous "provider.access" span.
func (o *Observer) LogProviderAccess(ctx context.Context, access observability.ProviderAccess) error {
	attrs := []attribute.KeyValue{
		attribute.String("agent.step_id", access.StepID),
		attribute.String("agent.provider", access.ProviderName),
		attribute.String("agent.purpose", access.Purpose),
	}

	if access.Data != nil {
		b, err := json.Marshal(access.Data)
		if err != nil {
			return err
		}
		attrs = append(attrs, attribute.String("agent.provider.data", string(b)))
	}

	_, span := o.tracer.Start(ctx, "provider.access",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	span.End()

	return nil
}

// LogLLMCall records an "llm.call" span whose duration equals the call latency.
func (o *Observer) LogLLMCall(ctx context.Context, call observability.LLMCall) error {
	end := time.Now()
	start := end.Add(-call.Latency)

	_, span := o.tracer.Start(ctx, "llm.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.String("agent.step_id", call.StepID),
			attribute.String("agent.purpose", call.Purpose),
			attribute.String("llm.model", call.Model),
			attribute.String("llm.system_prompt", call.SystemPrompt),
			attribute.String("llm.user_prompt", call.UserPrompt),
			attribute.String("llm.response", call.Response),
			attribute.Float64("llm.temperature", call.Temperature),
			attribute.Int("llm.max_tokens", call.MaxTokens),
			attribute.Int64("llm.latency_ms", call.Latency.Milliseconds()),
		),
	)
	span.End(trace.WithTimestamp(end))

	return nil
}

var _ observability.Observer = (*Observer)(nil)
