// Package metrics exports gateway activity as Prometheus metrics. It is
// fed by the event bus.
package metrics

import (
	"net/http"

	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"github.com/haveachin/gatekeeper/pkg/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatekeeper"

type Metrics struct {
	Registry *prometheus.Registry

	connections      prometheus.Counter
	handshakes       *prometheus.CounterVec
	logins           prometheus.Counter
	loginFailures    *prometheus.CounterVec
	playersConnected prometheus.Gauge
	playtime         prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "The total number of accepted connections",
		}),
		handshakes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "The total number of handshakes per requested host and type",
		}, []string{"host", "type"}),
		logins: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "The total number of authenticated players",
		}),
		loginFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "The total number of failed logins per reason",
		}, []string{"reason"}),
		playersConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_connected",
			Help:      "The number of players currently in the play phase",
		}),
		playtime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "playtime_seconds",
			Help:      "How long players stayed connected after logging in",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

func (m *Metrics) Handle(e event.Event) {
	switch data := e.Data.(type) {
	case java.NewConnEvent:
		m.connections.Inc()
	case java.StatusRequestEvent:
		m.handshakes.With(prometheus.Labels{"host": data.ServerAddr, "type": "status"}).Inc()
	case java.PreLoginEvent:
		m.handshakes.With(prometheus.Labels{"host": data.ServerAddr, "type": "login"}).Inc()
	case java.PlayerLoginEvent:
		m.logins.Inc()
		m.playersConnected.Inc()
	case java.LoginFailedEvent:
		m.loginFailures.With(prometheus.Labels{"reason": data.Reason}).Inc()
	case java.PlayerLeaveEvent:
		m.playersConnected.Dec()
		m.playtime.Observe(data.Playtime.Seconds())
	}
}

// Attach subscribes m to every topic of bus and returns the recipient id.
func (m *Metrics) Attach(bus event.Bus) string {
	id, _ := bus.AttachHandler("metrics", m, event.Topics...)
	return id
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		Registry: m.Registry,
	})
}
