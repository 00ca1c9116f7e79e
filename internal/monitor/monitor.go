// internal/monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandLatency  *prometheus.HistogramVec
	AuctionsSettled *prometheus.CounterVec
	RoundsEnded     prometheus.Counter
	GamesFinished   prometheus.Counter
	ActiveGames     prometheus.Gauge
	WSConnections   prometheus.Gauge
	PublishFailures prometheus.Counter
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by command and outcome",
		}, []string{"command", "outcome"}),
		CommandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Command processing latency including the store transaction",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}, []string{"command"}),
		AuctionsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auctions_settled_total",
			Help:      "Settled auctions, by auction type and result",
		}, []string{"type", "result"}),
		RoundsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_ended_total",
			Help:      "Rounds paid out",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached the finished state",
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Games started by this process and not yet finished",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open WebSocket snapshot streams",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_publish_failures_total",
			Help:      "Action records that could not be queued for the historian",
		}),
	}

	reg.MustRegister(
		m.Commands,
		m.CommandLatency,
		m.AuctionsSettled,
		m.RoundsEnded,
		m.GamesFinished,
		m.ActiveGames,
		m.WSConnections,
		m.PublishFailures,
	)

	return m
}

// Monitor wraps the metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	metrics  *Metrics
	gatherer prometheus.Gatherer
}

// NewMonitor registers the metrics with the default Prometheus registry.
func NewMonitor(namespace string) *Monitor {
	return NewMonitorWithRegistry(namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func NewMonitorWithRegistry(namespace string, reg prometheus.Registerer, g prometheus.Gatherer) *Monitor {
	return &Monitor{
		metrics:  NewMetrics(namespace, reg),
		gatherer: g,
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Monitor) ObserveCommand(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.metrics.Commands.WithLabelValues(command, outcome).Inc()
	m.metrics.CommandLatency.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Monitor) IncAuctionSettled(auctionType, result string) {
	if m == nil {
		return
	}
	m.metrics.AuctionsSettled.WithLabelValues(auctionType, result).Inc()
}

func (m *Monitor) IncRoundsEnded() {
	if m == nil {
		return
	}
	m.metrics.RoundsEnded.Inc()
}

func (m *Monitor) GameStarted() {
	if m == nil {
		return
	}
	m.metrics.ActiveGames.Inc()
}

func (m *Monitor) GameFinished() {
	if m == nil {
		return
	}
	m.metrics.ActiveGames.Dec()
	m.metrics.GamesFinished.Inc()
}

func (m *Monitor) IncWSConnections() {
	if m == nil {
		return
	}
	m.metrics.WSConnections.Inc()
}

func (m *Monitor) DecWSConnections() {
	if m == nil {
		return
	}
	m.metrics.WSConnections.Dec()
}

func (m *Monitor) IncPublishFailures() {
	if m == nil {
		return
	}
	m.metrics.PublishFailures.Inc()
}
