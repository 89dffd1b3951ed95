// Package observability provides the Prometheus metrics recorder and
// the structured-logging setup shared by the binary and the adapters.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mediamorph/mediamorph/pkg/models"
)

// Metrics tracks conversion traffic.
type Metrics struct {
	// ConversionCounter counts conversions by media kind, target format
	// and outcome (success|failure).
	ConversionCounter *prometheus.CounterVec

	// ConversionDuration measures end-to-end conversion latency in
	// seconds, including external tool invocations.
	ConversionDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics recorder with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		ConversionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediamorph_conversions_total",
				Help: "Total number of conversions by media kind, target format and outcome",
			},
			[]string{"kind", "target", "outcome"},
		),

		ConversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediamorph_conversion_duration_seconds",
				Help:    "Duration of conversions in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"kind", "target"},
		),

		registry: registry,
	}
}

// ObserveConversion records one conversion attempt.
func (m *Metrics) ObserveConversion(kind models.MediaKind, target models.Format, outcome string, elapsed time.Duration) {
	m.ConversionCounter.WithLabelValues(string(kind), string(target), outcome).Inc()
	m.ConversionDuration.WithLabelValues(string(kind), string(target)).Observe(elapsed.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
