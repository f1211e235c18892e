// Package metrics exposes prometheus collectors for event ingestion.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "facilitator"

// Metrics groups the collectors updated by the handlers and the processor.
type Metrics struct {
	RecordsProcessed    *prometheus.CounterVec
	RecordsReplayed     *prometheus.CounterVec
	RecordsSkipped      *prometheus.CounterVec
	HandlerErrors       *prometheus.CounterVec
	HandlerDuration     *prometheus.HistogramVec
	ConfirmableMessages *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide collectors registered on the default
// prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "records_processed_total",
			Help:      "Raw event records handed to a handler, by event kind.",
		}, []string{"kind"}),
		RecordsReplayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "records_replayed_total",
			Help:      "Records dropped because their timestamp is not newer than the contract high-water mark.",
		}, []string{"kind"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "records_skipped_total",
			Help:      "Records a handler ignored as stale or duplicate.",
		}, []string{"kind"}),
		HandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "errors_total",
			Help:      "Handler failures by event kind and error code.",
		}, []string{"kind", "code"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "duration_seconds",
			Help:      "Time spent persisting one batch of records.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		ConfirmableMessages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "confirmable_messages",
			Help:      "Declared messages covered by the latest gateway proof and not yet confirmed on the target chain.",
		}, []string{"gateway"}),
	}
	reg.MustRegister(
		m.RecordsProcessed,
		m.RecordsReplayed,
		m.RecordsSkipped,
		m.HandlerErrors,
		m.HandlerDuration,
		m.ConfirmableMessages,
	)
	return m
}
