/*
Package metrics instruments walks, tag gathering and source requests with
Prometheus collectors.

Metrics:
  - tastewalk_steps_total: appended artists (counter)
    Labels: move (advance, back), outcome (uniform, weighted, stay)
  - tastewalk_fallbacks_total: bases abandoned for an empty neighborhood (counter)
  - tastewalk_walk_length: length of the running walk (gauge)
  - tastewalk_tags_gathered_total: artists whose tags were gathered (counter)
  - tastewalk_source_requests_total: source requests (counter)
    Labels: method, result (ok, not_found, error, rejected)
  - tastewalk_circuit_breaker_state: breaker state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open

The CLI has no endpoint to scrape; the registry is written in the text
exposition format when a run ends.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Steps          *prometheus.CounterVec
	Fallbacks      prometheus.Counter
	WalkLength     prometheus.Gauge
	TagsGathered   prometheus.Counter
	SourceRequests *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tastewalk_steps_total",
				Help: "Total number of artists appended to walks",
			},
			[]string{"move", "outcome"},
		),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastewalk_fallbacks_total",
			Help: "Total number of empty neighborhoods that moved the base back in history",
		}),
		WalkLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tastewalk_walk_length",
			Help: "Length of the running walk",
		}),
		TagsGathered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastewalk_tags_gathered_total",
			Help: "Total number of artists whose tags were gathered",
		}),
		SourceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tastewalk_source_requests_total",
				Help: "Total number of similarity source requests",
			},
			[]string{"method", "result"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tastewalk_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}
	m.registry.MustRegister(m.Steps, m.Fallbacks, m.WalkLength, m.TagsGathered, m.SourceRequests, m.BreakerState)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordStep implements walk.Recorder.
func (m *Metrics) RecordStep(o walk.Outcome) {
	m.Steps.WithLabelValues(string(o.Move), string(o.Choice)).Inc()
	m.Fallbacks.Add(float64(o.Fallbacks))
	m.WalkLength.Set(float64(o.Length))
}

// RecordGathered implements tags.Recorder.
func (m *Metrics) RecordGathered(core.TagDocument) {
	m.TagsGathered.Inc()
}

// RequestCompleted implements lastfm.Observer.
func (m *Metrics) RequestCompleted(method, result string) {
	m.SourceRequests.WithLabelValues(method, result).Inc()
}

// BreakerStateChanged implements lastfm.Observer.
func (m *Metrics) BreakerStateChanged(name, state string) {
	m.BreakerState.WithLabelValues(name).Set(stateToFloat(state))
}

func stateToFloat(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}

// WriteTextfile writes every collector to path in the text exposition format,
// for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
