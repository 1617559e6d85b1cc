// Package metrics provides an observability.Observer that records trajectory
// reports as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/agentruntime/observability"
)

// Options configures an Observer.
type Options struct {
	Namespace string
	// Buckets for the LLM latency histogram, in seconds.
	Buckets []float64
}

// Observer counts provider accesses and LLM calls and tracks LLM latency.
type Observer struct {
	providerAccesses *prometheus.CounterVec
	llmCalls         *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
}

// New creates an Observer and registers its collectors with reg.
func New(reg prometheus.Registerer, optFns ...func(o *Options)) (*Observer, error) {
	opts := Options{
		Namespace: "agentruntime",
		Buckets:   prometheus.DefBuckets,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Observer{
		providerAccesses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "provider_accesses_total",
				Help:      "Total number of provider accesses recorded during trajectory steps",
			},
			[]string{"provider", "purpose"},
		),
		llmCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "llm_calls_total",
				Help:      "Total number of model calls recorded during trajectory steps",
			},
			[]string{"model", "purpose"},
		),
		llmLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "Latency of model calls",
				Buckets:   opts.Buckets,
			},
			[]string{"model"},
		),
	}

	for _, c := range []prometheus.Collector{o.providerAccesses, o.llmCalls, o.llmLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return o, nil
}

func (o *Observer) LogProviderAccess(_ context.Context, access observability.ProviderAccess) error {
	o.providerAccesses.WithLabelValues(access.ProviderName, access.Purpose).Inc()
	return nil
}

func (o *Observer) LogLLMCall(_ context.Context, call observability.LLMCall) error {
	o.llmCalls.WithLabelValues(call.Model, call.Purpose).Inc()
	o.llmLatency.WithLabelValues(call.Model).Observe(call.Latency.Seconds())
	return nil
}

var _ observability.Observer = (*Observer)(nil)
