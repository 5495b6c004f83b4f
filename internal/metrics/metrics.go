// Package metrics exposes render and session activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/philipparndt/gosprack/pkg/render"
)

const namespace = "gosprack"

// Metrics owns a private registry so tests and multiple sessions never
// collide on the global one.
type Metrics struct {
	registry   *prometheus.Registry
	passes     prometheus.Counter
	duration   prometheus.Histogram
	triangles  prometheus.Counter
	fragments  prometheus.Counter
	modelLoads *prometheus.CounterVec
	errors     *prometheus.CounterVec
}

// New creates the collectors and registers them
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_passes_total",
			Help:      "Slice render passes drawn into the shared target.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent per render pass including PNG encoding.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		triangles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_triangles_total",
			Help:      "Triangles rasterized after clipping and culling.",
		}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_fragments_total",
			Help:      "Fragments that passed the depth test.",
		}),
		modelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Models loaded by source format.",
		}, []string{"format"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed operations by error code.",
		}, []string{"code"}),
	}
	m.registry.MustRegister(
		m.passes, m.duration, m.triangles, m.fragments, m.modelLoads, m.errors,
		collectors.NewGoCollector(),
	)
	return m
}

// Observe records a finished render pass. It has the render.Observer signature.
func (m *Metrics) Observe(s render.Stats) {
	m.passes.Inc()
	m.duration.Observe(s.Duration.Seconds())
	m.triangles.Add(float64(s.Triangles))
	m.fragments.Add(float64(s.Fragments))
}

// ModelLoaded counts a model load
func (m *Metrics) ModelLoaded(format string) {
	m.modelLoads.WithLabelValues(format).Inc()
}

// Error counts a failed operation by its stable code
func (m *Metrics) Error(code string) {
	if code == "" {
		code = "INTERNAL"
	}
	m.errors.WithLabelValues(code).Inc()
}

// RegisterLayerCount exports the live slice count
func (m *Metrics) RegisterLayerCount(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "layers",
		Help:      "Slices in the collection.",
	}, func() float64 { return float64(count()) }))
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
