// Package metrics exposes the engine's lifecycle events as Prometheus
// metrics. It plugs into the engine through domain.LifecycleHooks, so the
// runtime stays free of any metrics dependency.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rampkit/ramp/pkg/domain"
)

// Metrics holds the instrument set for one registry.
type Metrics struct {
	stepEnters    *prometheus.CounterVec
	generateCalls *prometheus.CounterVec
	generateTime  *prometheus.HistogramVec
}

// New registers the onboarding instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		stepEnters: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ramp_step_enters_total",
			Help: "Number of times each onboarding step was activated.",
		}, []string{"step"}),
		generateCalls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ramp_generate_calls_total",
			Help: "Generation service calls by operation and outcome.",
		}, []string{"operation", "status"}),
		generateTime: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ramp_generate_duration_seconds",
			Help:    "Duration of generation service calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Hooks returns lifecycle hooks that record into this instrument set.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.stepEnters.WithLabelValues(e.StepName).Inc()
		},
		OnGenerateReturn: func(_ context.Context, e *domain.GenerateEvent) {
			status := "ok"
			if e.IsError {
				status = "error"
			}
			m.generateCalls.WithLabelValues(e.Operation, status).Inc()
			m.generateTime.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
		},
	}
}
