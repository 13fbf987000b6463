// Package metrics holds the Prometheus collectors for the signal pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	analyses       *prometheus.CounterVec
	failures       *prometheus.CounterVec
	fetchSeconds   prometheus.Histogram
	persistFailure prometheus.Counter
	subscribers    prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analyses: newCounterVec(reg, prometheus.CounterOpts{
			Name: "fxsignal_analyses_total",
			Help: "Completed analyses by pair, timeframe and direction",
		}, []string{"pair", "timeframe", "direction"}),
		failures: newCounterVec(reg, prometheus.CounterOpts{
			Name: "fxsignal_analysis_failures_total",
			Help: "Failed analyses by error kind",
		}, []string{"kind"}),
		fetchSeconds: newHist(reg, prometheus.HistogramOpts{
			Name:    "fxsignal_provider_fetch_seconds",
			Help:    "Market data fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		persistFailure: newCounter(reg, prometheus.CounterOpts{
			Name: "fxsignal_persist_failures_total",
			Help: "Signal log writes that failed",
		}),
		subscribers: newGauge(reg, prometheus.GaugeOpts{
			Name: "fxsignal_auto_refresh_subscribers",
			Help: "Chats subscribed to auto-refresh",
		}),
	}
	return m
}

func (m *Metrics) ObserveAnalysis(pair, timeframe, direction string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(pair, timeframe, direction).Inc()
}

func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchSeconds.Observe(d.Seconds())
}

func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailure.Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

func newCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	reg.MustRegister(c)
	return c
}

func newCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	reg.MustRegister(c)
	return c
}

func newGauge(reg prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	reg.MustRegister(g)
	return g
}

func newHist(reg prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	reg.MustRegister(h)
	return h
}
