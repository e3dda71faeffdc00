package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticktree/ticktree/internal/core/bt"
)

// metrics carries its own registry so several servers, or tests, can coexist
// in one process without duplicate registration panics.
type metrics struct {
	registry    *prometheus.Registry
	ticksTotal  *prometheus.CounterVec
	tickSeconds *prometheus.HistogramVec
	wsClients   prometheus.Gauge
	restarts    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticktree_ticks_total",
				Help: "Total ticks executed, by tree and root state.",
			},
			[]string{"tree", "state"},
		),
		tickSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticktree_tick_duration_seconds",
				Help:    "Duration of full tree ticks.",
				Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
			},
			[]string{"tree"},
		),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ticktree_ws_clients",
			Help: "Connected monitor websocket clients.",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticktree_restarts_total",
			Help: "Tree restarts requested through the monitor.",
		}),
	}
	m.registry.MustRegister(m.ticksTotal, m.tickSeconds, m.wsClients, m.restarts)
	return m
}

func (m *metrics) observeTick(rep bt.TickReport) {
	m.ticksTotal.WithLabelValues(rep.TreeName, rep.State.String()).Inc()
	m.tickSeconds.WithLabelValues(rep.TreeName).Observe(rep.Duration.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
