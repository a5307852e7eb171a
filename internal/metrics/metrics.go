package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Detection metrics
	EventsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fim_events_detected_total",
			Help: "Total number of filesystem change events detected",
		},
		[]string{"event_type"},
	)

	PollCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fim_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fim_scan_duration_seconds",
			Help:    "Duration of directory scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FilesTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fim_files_tracked",
			Help: "Number of files in the current baseline",
		},
	)

	// Delivery metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fim_delivery_queue_depth",
			Help: "Current depth of the delivery queue",
		},
	)

	QueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fim_delivery_queue_capacity",
			Help: "Maximum capacity of the delivery queue",
		},
	)

	QueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fim_delivery_dropped_total",
			Help: "Total number of payloads dropped under queue backpressure",
		},
	)

	EventsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fim_delivery_sent_total",
			Help: "Total number of events delivered to the collector",
		},
	)

	SendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fim_delivery_failures_total",
			Help: "Total number of failed collector send attempts",
		},
	)
)
