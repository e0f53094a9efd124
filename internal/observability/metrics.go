package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beatbox_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SuggestionOperations counts suggestion operations by name and outcome.
	SuggestionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beatbox_suggestion_operations_total",
		Help: "Total suggestion operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// LikeMutations counts like/unlike calls, split by whether a row changed.
	LikeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beatbox_like_mutations_total",
		Help: "Total like and unlike calls by whether a row changed",
	}, []string{"action", "changed"})

	// WebSocketConnectionsTotal is the gauge of open live feed connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beatbox_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to slow clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beatbox_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)
