package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Realtime connections
	OnlineConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "langex_online_connections",
			Help: "Live websocket connections on this node",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langex_connections_rejected_total",
			Help: "Websocket connections rejected before connected",
		},
		[]string{"reason"},
	)

	// Matchmaking
	QueueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langex_match_queue_operations_total",
			Help: "Match queue operations",
		},
		[]string{"op", "result"}, // join/leave, waiting/matched/removed/noop
	)

	QueueWaiting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "langex_match_queue_waiting",
			Help: "Entries currently waiting in the match queue",
		},
	)

	// Chat
	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "langex_messages_appended_total",
			Help: "Messages persisted by the chat store",
		},
	)

	ChatStoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "langex_chat_store_latency_seconds",
			Help:    "Chat store operation latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op"},
	)

	// Delivery
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langex_deliveries_total",
			Help: "Live deliveries by action and result",
		},
		[]string{"action", "result"}, // local/remote/unavailable/dropped
	)

	Signals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langex_signals_total",
			Help: "Signaling envelopes by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// ObserveStore record chat store latency since start
func ObserveStore(op string, start time.Time) {
	ChatStoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Handler fiber handler exposing the default registry
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
