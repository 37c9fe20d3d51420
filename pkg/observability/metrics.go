package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by chain executions.
type Metrics struct {
	executions   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catena_chain_executions_total",
				Help: "Total number of chain executions",
			},
			[]string{"chain", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catena_chain_duration_seconds",
				Help:    "Duration of chain executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chain"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catena_step_executions_total",
				Help: "Total number of chain steps by outcome (ok, error, skipped)",
			},
			[]string{"chain", "index", "action", "outcome"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catena_step_duration_seconds",
				Help:    "Duration of executed chain steps",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chain", "action"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.executions, m.duration, m.steps, m.stepDuration)
	}
	return m
}

// Hooks returns lifecycle hooks recording every chain and step end.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChainEnd: func(ctx context.Context, e *domain.ChainEvent) {
			m.executions.WithLabelValues(e.Chain, outcome(e.IsError, false)).Inc()
			m.duration.WithLabelValues(e.Chain).Observe(e.Duration.Seconds())
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			m.steps.WithLabelValues(e.Chain, strconv.Itoa(e.Index), e.Action, outcome(e.IsError, e.Skipped)).Inc()
			if !e.Skipped {
				m.stepDuration.WithLabelValues(e.Chain, e.Action).Observe(e.Duration.Seconds())
			}
		},
	}
}

func outcome(isError, skipped bool) string {
	switch {
	case skipped:
		return "skipped"
	case isError:
		return "error"
	default:
		return "ok"
	}
}
