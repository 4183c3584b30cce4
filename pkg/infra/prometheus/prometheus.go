package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// album sizes; telegram groups hold at most 10 items, albums may span several groups
	albumBuckets = []float64{1, 2, 3, 5, 10, 20, 30, 50}

	deliveryBuckets = []float64{
		25, 50, 100, // fast round trips
		250, 500, 1000, // normal
		2500, 5000, 10000, // slow or timing out
	}

	InboundMessagesTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustrelay_inbound_messages_total",
			Help: "Inbound messages by classification",
		},
		[]string{"kind"},
	)

	RateLimitedTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustrelay_rate_limited_total",
			Help: "Messages rejected by the rate limiter",
		},
		[]string{"reason"}, // "tripped" or "suspended"
	)

	OperatorCommandsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustrelay_operator_commands_total",
			Help: "Operator reply commands by outcome",
		},
		[]string{"outcome"},
	)

	AlbumFlushesTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "trustrelay_album_flushes_total",
			Help: "Albums flushed after the debounce period",
		},
	)

	AlbumItems = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trustrelay_album_items",
			Help:    "Number of items per flushed album",
			Buckets: albumBuckets,
		},
	)

	PendingAlbums = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "trustrelay_pending_albums",
			Help: "Albums waiting for their debounce timer",
		},
	)

	LiveHandles = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "trustrelay_live_handles",
			Help: "Anonymous handles currently mapped to a sender",
		},
	)

	TransportFailuresTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustrelay_transport_failures_total",
			Help: "Outbound deliveries that failed",
		},
		[]string{"op"},
	)

	DeliveryLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustrelay_delivery_latency_ms",
			Help:    "Outbound delivery latency in milliseconds",
			Buckets: deliveryBuckets,
		},
		[]string{"op"},
	)
)

func Initialize() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

// Gatherer exposes the relay registry to the metrics endpoint.
func Gatherer() prometheus.Gatherer {
	return registry
}
