package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"convergedash/internal/models"
)

const namespace = "convergedash"

// HealthMetrics exposes the indicator state to Prometheus. It is a renderer:
// every poll cycle sets the one-hot state gauge and bumps the poll counter.
type HealthMetrics struct {
	state    *prometheus.GaugeVec
	polls    *prometheus.CounterVec
	lastPoll prometheus.Gauge
	now      func() time.Time
}

// NewHealthMetrics registers the collectors on reg.
func NewHealthMetrics(reg prometheus.Registerer) *HealthMetrics {
	factory := promauto.With(reg)
	m := &HealthMetrics{
		state: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "health_state",
				Help:      "Current indicator state (1 for the active state, 0 otherwise).",
			},
			[]string{"state"},
		),
		polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "health_polls_total",
				Help:      "Poll cycles by resolved state.",
			},
			[]string{"state"},
		),
		lastPoll: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "health_last_poll_timestamp_seconds",
				Help:      "Unix time of the last rendered poll cycle.",
			},
		),
		now: time.Now,
	}
	for _, s := range models.AllStatuses() {
		m.state.WithLabelValues(s.String()).Set(0)
		m.polls.WithLabelValues(s.String())
	}
	return m
}

func (m *HealthMetrics) RenderHealthy()     { m.observe(models.Healthy) }
func (m *HealthMetrics) RenderUnhealthy()   { m.observe(models.Unhealthy) }
func (m *HealthMetrics) RenderUnreachable() { m.observe(models.Unreachable) }

func (m *HealthMetrics) observe(status models.HealthStatus) {
	for _, s := range models.AllStatuses() {
		value := 0.0
		if s == status {
			value = 1
		}
		m.state.WithLabelValues(s.String()).Set(value)
	}
	m.polls.WithLabelValues(status.String()).Inc()
	m.lastPoll.Set(float64(m.now().Unix()))
}
