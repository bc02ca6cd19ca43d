// Package metrics provides Prometheus instrumentation for pipeline runs and
// the delivery-tracking endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all engine metrics.
	MetricsNamespace = "campaign"

	// MetricsSubsystem is the subsystem for pipeline metrics.
	MetricsSubsystem = "engine"
)

// Metrics holds all Prometheus metrics for the campaign engine.
type Metrics struct {
	// Pipeline metrics
	StageItemsTotal      *prometheus.CounterVec
	StageDurationSeconds *prometheus.HistogramVec
	RunsInFlight         prometheus.Gauge
	RunsTotal            *prometheus.CounterVec

	// Tracking metrics
	EngagementEventsTotal *prometheus.CounterVec
	RepliesAppliedTotal   prometheus.Counter

	// Outreach metrics
	MessagesSentTotal    prometheus.Counter
	MessagesSkippedTotal prometheus.Counter
}

// NewMetrics creates and registers all engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		StageItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "stage_items_total",
				Help:      "Items processed per stage by outcome",
			},
			[]string{"stage", "outcome"}, // outcome: succeeded, failed
		),
		StageDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Wall-clock duration of each stage",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~6min
			},
			[]string{"stage"},
		),
		RunsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "runs_in_flight",
				Help:      "Pipeline runs currently executing",
			},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "runs_total",
				Help:      "Completed pipeline runs by result",
			},
			[]string{"result"}, // clean, partial, aborted
		),
		EngagementEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "engagement_events_total",
				Help:      "Raw engagement events received by kind",
			},
			[]string{"kind"}, // open, click, reply, delivered, bounced
		),
		RepliesAppliedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "replies_applied_total",
				Help:      "Inbound replies correlated and applied",
			},
		),
		MessagesSentTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "messages_sent_total",
				Help:      "Outreach messages sent",
			},
		),
		MessagesSkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "messages_skipped_total",
				Help:      "Outreach targets skipped because a message already existed",
			},
		),
	}
}

// RecordStageItem records one item outcome within a stage.
func (m *Metrics) RecordStageItem(stage string, succeeded bool) {
	outcome := "succeeded"
	if !succeeded {
		outcome = "failed"
	}
	m.StageItemsTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordStageDuration records the wall-clock time a stage took.
func (m *Metrics) RecordStageDuration(stage string, seconds float64) {
	m.StageDurationSeconds.WithLabelValues(stage).Observe(seconds)
}

// RunStarted increments the in-flight gauge.
func (m *Metrics) RunStarted() {
	m.RunsInFlight.Inc()
}

// RunFinished decrements the in-flight gauge and counts the result.
func (m *Metrics) RunFinished(result string) {
	m.RunsInFlight.Dec()
	m.RunsTotal.WithLabelValues(result).Inc()
}

// RecordEngagement counts one raw engagement event.
func (m *Metrics) RecordEngagement(kind string) {
	m.EngagementEventsTotal.WithLabelValues(kind).Inc()
}

// RecordRepliesApplied counts replies applied by an inbox scan.
func (m *Metrics) RecordRepliesApplied(count int) {
	m.RepliesAppliedTotal.Add(float64(count))
}

// RecordMessageSent counts one outreach send.
func (m *Metrics) RecordMessageSent() {
	m.MessagesSentTotal.Inc()
}

// RecordMessageSkipped counts one resume-safety skip.
func (m *Metrics) RecordMessageSkipped() {
	m.MessagesSkippedTotal.Inc()
}
