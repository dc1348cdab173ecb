// Prometheus instrumentation for the event dispatcher. Labels are bounded to
// the closed set of event families to keep cardinality flat.
package events

import "github.com/prometheus/client_golang/prometheus"

var (
	// eventsEmitted counts events accepted onto the dispatch queue.
	eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartiq_events_emitted_total",
			Help: "Total analytics events enqueued for dispatch.",
		},
		[]string{"family"},
	)

	// eventsDropped counts events discarded because the queue was full.
	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartiq_events_dropped_total",
			Help: "Total analytics events dropped due to a full queue.",
		},
		[]string{"family"},
	)

	// eventsFailed counts dispatches the backend rejected or that failed in
	// transport. Failures are terminal; there are no retries.
	eventsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartiq_events_failed_total",
			Help: "Total analytics events whose dispatch failed.",
		},
		[]string{"family"},
	)
)

func init() {
	prometheus.MustRegister(eventsEmitted, eventsDropped, eventsFailed)
}
