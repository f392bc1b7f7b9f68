package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the game server
type Metrics struct {
	ConnectedPlayers prometheus.Gauge
	ActiveGames      prometheus.Gauge
	MessagesReceived prometheus.Counter
	MessageLatency   prometheus.Histogram
	GamesFinished    *prometheus.CounterVec
}

// New creates and registers the metric set under the given namespace
func New(namespace string) *Metrics {
	m := &Metrics{
		ConnectedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_players",
			Help:      "Number of players with an open connection",
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of games currently registered",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of client messages received",
		}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Client message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Total number of finished games by winning side",
		}, []string{"winner"}),
	}

	prometheus.MustRegister(
		m.ConnectedPlayers,
		m.ActiveGames,
		m.MessagesReceived,
		m.MessageLatency,
		m.GamesFinished,
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) IncConnectedPlayers() {
	m.ConnectedPlayers.Inc()
}

func (m *Metrics) DecConnectedPlayers() {
	m.ConnectedPlayers.Dec()
}

func (m *Metrics) SetActiveGames(count int) {
	m.ActiveGames.Set(float64(count))
}

func (m *Metrics) IncMessagesReceived() {
	m.MessagesReceived.Inc()
}

func (m *Metrics) ObserveMessageLatency(duration time.Duration) {
	m.MessageLatency.Observe(duration.Seconds())
}

func (m *Metrics) IncGamesFinished(winner string) {
	m.GamesFinished.WithLabelValues(winner).Inc()
}
