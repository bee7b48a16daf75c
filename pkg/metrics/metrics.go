// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSClients is the number of currently connected websocket clients.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "idea_board",
		Name:      "ws_clients",
		Help:      "Connected websocket clients.",
	})

	// BroadcastEvents counts channel broadcasts by event name.
	BroadcastEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idea_board",
		Name:      "broadcast_events_total",
		Help:      "Broadcast events fanned out, by event.",
	}, []string{"event"})

	// NoteWrites counts store writes by operation.
	NoteWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idea_board",
		Name:      "note_writes_total",
		Help:      "Note store writes, by operation.",
	}, []string{"op"})
)
