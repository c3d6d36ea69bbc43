// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olivierh59500/sankey-flow-go/internal/flow"
)

// Registry holds the simulation metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	TicksTotal    prometheus.Counter
	SpawnedTotal  prometheus.Counter
	ArrivedTotal  prometheus.Counter
	DroppedTotal  prometheus.Counter
	RestartsTotal prometheus.Counter
	LiveParticles prometheus.Gauge
	Routes        prometheus.Gauge
	Arrivals      *prometheus.GaugeVec
	TickDuration  prometheus.Histogram
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.TicksTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "sankeyflow_ticks_total",
		Help: "Total number of simulation ticks",
	})
	r.SpawnedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "sankeyflow_particles_spawned_total",
		Help: "Total number of particles spawned",
	})
	r.ArrivedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "sankeyflow_particles_arrived_total",
		Help: "Total number of particles that reached their leaf",
	})
	r.DroppedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "sankeyflow_particles_dropped_total",
		Help: "Particles dropped because their route had no geometry",
	})
	r.RestartsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "sankeyflow_restarts_total",
		Help: "Number of simulation restarts",
	})
	r.LiveParticles = f.NewGauge(prometheus.GaugeOpts{
		Name: "sankeyflow_particles_live",
		Help: "Particles currently travelling",
	})
	r.Routes = f.NewGauge(prometheus.GaugeOpts{
		Name: "sankeyflow_routes",
		Help: "Routes in the geometry cache",
	})
	r.Arrivals = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sankeyflow_arrivals",
		Help: "Arrivals since the last restart per leaf and group",
	}, []string{"leaf", "group"})
	r.TickDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "sankeyflow_tick_duration_seconds",
		Help:    "Time spent in one engine tick",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
	return r
}

// RecordTick records the outcome of one tick.
func (r *Registry) RecordTick(report flow.TickReport, d time.Duration) {
	r.TicksTotal.Inc()
	r.SpawnedTotal.Add(float64(report.Spawned))
	r.ArrivedTotal.Add(float64(report.Arrived))
	r.DroppedTotal.Add(float64(report.Dropped))
	r.LiveParticles.Set(float64(report.Live))
	r.TickDuration.Observe(d.Seconds())
}

// RecordArrivals mirrors a counter snapshot into the arrivals gauge.
func (r *Registry) RecordArrivals(rows []flow.Arrival) {
	for _, a := range rows {
		r.Arrivals.WithLabelValues(a.Leaf, a.Group).Set(float64(a.Count))
	}
}

// RecordRestart counts a restart and clears the per-run gauges.
func (r *Registry) RecordRestart() {
	r.RestartsTotal.Inc()
	r.LiveParticles.Set(0)
	r.Arrivals.Reset()
}

// SetRoutes records the size of the geometry cache.
func (r *Registry) SetRoutes(n int) {
	r.Routes.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
