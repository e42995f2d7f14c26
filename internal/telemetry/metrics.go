package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesReceived counts MPDUs accepted by the RX classifier, by class.
	FramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "frames_received_total",
			Help:      "Total number of MPDUs accepted by the RX classifier",
		},
		[]string{"class"},
	)

	// FramesDropped counts frames dropped by the classifier or queues.
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "frames_dropped_total",
			Help:      "Total number of frames dropped",
		},
		[]string{"class", "reason"},
	)

	// TxAttempts counts radio transmissions requested by the MAC runner.
	TxAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "tx_attempts_total",
			Help:      "Total number of MPDU transmissions requested",
		},
	)

	// TxErrors counts transmissions the radio reported as failed.
	TxErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "tx_errors_total",
			Help:      "Total number of failed MPDU transmissions",
		},
	)

	// BeaconsSent counts vendor beacons emitted.
	BeaconsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "beacons_sent_total",
			Help:      "Total number of vendor beacons transmitted",
		},
	)

	// PollRounds counts host-polled data rounds started.
	PollRounds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "poll_rounds_total",
			Help:      "Total number of host-polled data rounds",
		},
	)

	// PollTimeouts counts rounds that hit the ack deadline.
	PollTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "poll_timeouts_total",
			Help:      "Total number of poll rounds ended by the deadline",
		},
	)

	// AcksMatched counts CF-Acks matched to an outstanding polled client.
	AcksMatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "acks_matched_total",
			Help:      "Total number of CF-Acks matched to a polled client",
		},
	)

	// ClientTimeouts counts stations evicted by the timeout sweep.
	ClientTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dshost",
			Name:      "client_timeouts_total",
			Help:      "Total number of clients removed by the timeout sweep",
		},
	)

	// ConnectedClients tracks the size of the connected set.
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dshost",
			Name:      "connected_clients",
			Help:      "Number of currently connected clients",
		},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent; errors from re-registration are deliberately ignored.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesReceived)
		prometheus.DefaultRegisterer.Register(FramesDropped)
		prometheus.DefaultRegisterer.Register(TxAttempts)
		prometheus.DefaultRegisterer.Register(TxErrors)
		prometheus.DefaultRegisterer.Register(BeaconsSent)
		prometheus.DefaultRegisterer.Register(PollRounds)
		prometheus.DefaultRegisterer.Register(PollTimeouts)
		prometheus.DefaultRegisterer.Register(AcksMatched)
		prometheus.DefaultRegisterer.Register(ClientTimeouts)
		prometheus.DefaultRegisterer.Register(ConnectedClients)
	})
}
