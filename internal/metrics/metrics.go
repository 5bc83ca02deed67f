// Package metrics records counters and timings for a generation run and can
// push them to a Prometheus Pushgateway when the run finishes.  A batch
// process has nothing to scrape, so push is the only delivery path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vagrantlab/molgen/pkg/errors"
)

// RunMetrics holds all metrics of one generation run, registered on a
// private registry so pushes never carry unrelated collectors.
type RunMetrics struct {
	registry *prometheus.Registry

	MoleculesGenerated prometheus.Counter
	MoleculesDropped   prometheus.Counter
	EncodeRequests     prometheus.Counter

	StageDuration *prometheus.HistogramVec

	CacheHit prometheus.Gauge
}

// stageDurationBuckets covers sub-second service calls up to hour-long
// sampling stages.
var stageDurationBuckets = []float64{.1, .5, 1, 5, 15, 60, 300, 900, 3600}

// NewRunMetrics builds and registers the run metric set.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	m := &RunMetrics{
		registry: reg,
		MoleculesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molgen_molecules_generated_total",
			Help: "Molecules produced by the sampler.",
		}),
		MoleculesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molgen_molecules_dropped_total",
			Help: "Molecules dropped during conformer reconstruction.",
		}),
		EncodeRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molgen_encode_requests_total",
			Help: "Encode calls issued to the model server.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "molgen_stage_duration_seconds",
			Help:    "Wall time per pipeline stage.",
			Buckets: stageDurationBuckets,
		}, []string{"stage"}),
		CacheHit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "molgen_latent_cache_hit",
			Help: "1 when the training latent cache was reused, 0 when recomputed.",
		}),
	}
	reg.MustRegister(m.MoleculesGenerated, m.MoleculesDropped,
		m.EncodeRequests, m.StageDuration, m.CacheHit)
	return m
}

// ObserveStage records the elapsed time of one pipeline stage.
func (m *RunMetrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Registry exposes the private registry, mainly for tests.
func (m *RunMetrics) Registry() *prometheus.Registry { return m.registry }

// Pusher delivers a run's metrics to a Pushgateway.
type Pusher struct {
	pusher *push.Pusher
}

// NewPusher targets the Pushgateway at url under job, grouped by run name.
func NewPusher(url, job, name string, m *RunMetrics) *Pusher {
	return &Pusher{
		pusher: push.New(url, job).
			Grouping("name", name).
			Gatherer(m.registry),
	}
}

// Push sends the current metric values.  Called once after the run.
func (p *Pusher) Push() error {
	if err := p.pusher.Push(); err != nil {
		return errors.Wrap(err, errors.CodeMetricsPush, "pushing run metrics")
	}
	return nil
}
