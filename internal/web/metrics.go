package web

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes recorded by Metrics.
const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Metrics holds the server's Prometheus collectors on a private registry so
// several servers can coexist in one process.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics registers the prediction collectors plus Go and process
// collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genrecast_predictions_total",
				Help: "Prediction requests by front end and outcome",
			},
			[]string{"front", "outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "genrecast_prediction_duration_seconds",
				Help: "Time to load artifacts and score one track",
				// Artifact loading dominates; a 100-tree model loads in tens of milliseconds.
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"front"},
		),
	}
}

func (m *Metrics) observe(front, outcome string, elapsed time.Duration) {
	m.predictions.WithLabelValues(front, outcome).Inc()
	if outcome != outcomeInvalid {
		m.latency.WithLabelValues(front).Observe(elapsed.Seconds())
	}
}
