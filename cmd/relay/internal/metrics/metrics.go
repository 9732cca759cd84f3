// Package metrics defines the Prometheus instrumentation for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BroadcastRoundsTotal counts completed broadcast rounds (one source read each).
	BroadcastRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_broadcast_rounds_total",
			Help: "Total broadcast rounds completed",
		},
	)

	// BytesRelayedTotal counts bytes read from the source and offered to sinks.
	BytesRelayedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_bytes_relayed_total",
			Help: "Total bytes read from the source and broadcast to sinks",
		},
	)

	// ConnectedSinks tracks the current size of the sink set.
	ConnectedSinks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected_sinks",
			Help: "Current number of connected sink clients",
		},
	)

	// SinksAcceptedTotal counts accepted sink connections.
	SinksAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_sinks_accepted_total",
			Help: "Total sink connections accepted",
		},
	)

	// SinksEvictedTotal counts sinks dropped after a failed or zero-byte write.
	SinksEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_sinks_evicted_total",
			Help: "Total sinks removed after a write failure",
		},
	)
)
