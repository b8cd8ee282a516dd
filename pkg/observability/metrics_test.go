package observability_test

import (
	"testing"

	"github.com/aretw0/funnel/pkg/adapters/cue"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

// gather sums counter and gauge values per family and counts label series.
func gather(t *testing.T, reg *prometheus.Registry) (map[string]float64, map[string]int) {
	t.Helper()
	families, err := reg.Gather()
	assert.NoError(t, err)
	values := map[string]float64{}
	series := map[string]int{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			series[f.GetName()]++
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	return values, series
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveEvent(domain.Event{Type: domain.EventCompleted})
	m.ObserveEvent(domain.Event{Type: domain.EventCompleted})
	m.ObserveCompletion("conversation-before")
	m.ObserveLead(domain.SourceContactPage, false)
	m.ObserveRedirect("/oferta", "/usuario")
	m.MountAdded("/contratacao")
	m.MountAdded("/contratacao")
	m.MountRemoved("/contratacao")

	values, series := gather(t, reg)
	assert.Equal(t, 1, series["funnel_engine_events_total"], "one label series")
	assert.Equal(t, 2.0, values["funnel_engine_events_total"])
	assert.Equal(t, 1.0, values["funnel_leads_total"])
	assert.Equal(t, 1.0, values["funnel_mounted_engines"])
}

func TestMetrics_CueSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	rec := &cue.Recorder{}

	sink := m.CueSink(rec)
	sink.Play(domain.CuePayment)
	sink.Play(domain.CuePayment)

	assert.Equal(t, 2, rec.Count(domain.CuePayment), "cues still reach the wrapped sink")
	values, series := gather(t, reg)
	assert.Equal(t, 1, series["funnel_cues_total"])
	assert.Equal(t, 2.0, values["funnel_cues_total"])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvent(domain.Event{Type: domain.EventIdle})
		m.ObserveCue(domain.CueClick)
		m.ObserveCompletion("x")
		m.ObserveLead("x", true)
		m.ObserveRedirect("a", "b")
		m.MountAdded("p")
		m.MountRemoved("p")
		m.CueSink(nil).Play(domain.CueClick)
	})
}

func TestFanOut(t *testing.T) {
	var got []string
	h := observability.FanOut(
		func(e domain.Event) { got = append(got, "a:"+string(e.Type)) },
		nil,
		func(e domain.Event) { got = append(got, "b:"+string(e.Type)) },
	)
	h(domain.Event{Type: domain.EventStarted})
	assert.Equal(t, []string{"a:started", "b:started"}, got)
}
