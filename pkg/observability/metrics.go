package observability

import (
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "funnel"

// Metrics exposes counters and gauges for funnel progress.
type Metrics struct {
	events      *prometheus.CounterVec
	cues        *prometheus.CounterVec
	completions *prometheus.CounterVec
	leads       *prometheus.CounterVec
	mounts      *prometheus.GaugeVec
	redirects   *prometheus.CounterVec
}

// NewMetrics registers the funnel metrics on reg, or the default registerer when nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_events_total",
			Help:      "Engine lifecycle events by type",
		}, []string{"type"}),
		cues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cues_total",
			Help:      "Sound cues requested by the engines",
		}, []string{"cue"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_completions_total",
			Help:      "First-time stage completions",
		}, []string{"stage"}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_total",
			Help:      "Lead submissions to the collector",
		}, []string{"source", "status"}),
		mounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mounted_engines",
			Help:      "Engines currently mounted per page",
		}, []string{"page"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_redirects_total",
			Help:      "Routing guard redirects by requested and target page",
		}, []string{"from", "to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.events, m.cues, m.completions, m.leads, m.mounts, m.redirects)
	return m
}

// ObserveEvent counts an engine event.
func (m *Metrics) ObserveEvent(evt domain.Event) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(evt.Type)).Inc()
}

// ObserveCue counts a played cue.
func (m *Metrics) ObserveCue(c domain.Cue) {
	if m == nil {
		return
	}
	m.cues.WithLabelValues(string(c)).Inc()
}

// ObserveCompletion counts a stage completed for the first time.
func (m *Metrics) ObserveCompletion(stage string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(stage).Inc()
}

// ObserveLead counts a collector submission.
func (m *Metrics) ObserveLead(source string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.leads.WithLabelValues(source, status).Inc()
}

// ObserveRedirect counts a guard redirect.
func (m *Metrics) ObserveRedirect(from, to string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(from, to).Inc()
}

// MountAdded increments the mounted engine gauge.
func (m *Metrics) MountAdded(page string) {
	if m == nil {
		return
	}
	m.mounts.WithLabelValues(page).Inc()
}

// MountRemoved decrements the mounted engine gauge.
func (m *Metrics) MountRemoved(page string) {
	if m == nil {
		return
	}
	m.mounts.WithLabelValues(page).Dec()
}

// CueSink wraps next so every played cue is counted.
func (m *Metrics) CueSink(next ports.CueSink) ports.CueSink {
	return countingSink{metrics: m, next: next}
}

type countingSink struct {
	metrics *Metrics
	next    ports.CueSink
}

func (s countingSink) Play(c domain.Cue) {
	s.metrics.ObserveCue(c)
	if s.next != nil {
		s.next.Play(c)
	}
}
