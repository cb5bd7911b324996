package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of registered WebSocket connections",
		},
	)

	subscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_room_subscriptions_active",
			Help: "Number of (connection, room) subscriptions",
		},
	)

	eventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_delivered_total",
			Help: "Events enqueued to a connection",
		},
		[]string{"type"},
	)

	eventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_dropped_total",
			Help: "Events dropped because the connection send buffer was full",
		},
		[]string{"type"},
	)

	joinsDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_join_denied_total",
			Help: "joinChat requests rejected by the room authorizer",
		},
	)
)
