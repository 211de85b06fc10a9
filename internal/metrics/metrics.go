package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookrelay_events_enqueued_total",
		Help: "Total number of events placed on the processing queue.",
	})

	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookrelay_events_processed_total",
		Help: "Total number of events fully processed by the engine.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookrelay_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	EventsInvalid = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_events_invalid_total",
		Help: "Total number of inbound events that could not be decoded, labelled by source.",
	}, []string{"source"})

	NotificationsSelected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_notifications_selected_total",
		Help: "Total number of events that selected a notification, labelled by notification name.",
	}, []string{"notification"})

	EventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookrelay_events_skipped_total",
		Help: "Total number of events for which no notification matched.",
	})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_deliveries_total",
		Help: "Total number of webhook deliveries, labelled by notification and outcome.",
	}, []string{"notification", "outcome"})

	DeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hookrelay_delivery_duration_ms",
		Help:    "Webhook delivery latency in milliseconds, retries included.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"notification"})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hookrelay_event_processing_duration_ms",
		Help:    "End-to-end event processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hookrelay_queue_utilization_ratio",
		Help: "Current event queue utilization (0–1).",
	})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookrelay_config_reloads_total",
		Help: "Total number of rules reloads, labelled by result.",
	}, []string{"result"})

	ActiveNotifications = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hookrelay_active_notifications",
		Help: "Number of notification definitions in the active rule set.",
	})
)
