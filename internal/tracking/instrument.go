package tracking

import (
	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/metrics"
)

// MeteredSink wraps an EventSink and counts every engagement event by kind
// before forwarding it.
type MeteredSink struct {
	next    EventSink
	metrics *metrics.Metrics
}

// NewMeteredSink decorates next with engagement counters. A nil metrics
// receiver returns next unchanged.
func NewMeteredSink(next EventSink, m *metrics.Metrics) EventSink {
	if m == nil {
		return next
	}

	return &MeteredSink{next: next, metrics: m}
}

// Send counts the event and forwards it to the wrapped sink.
func (s *MeteredSink) Send(event domain.EngagementEvent) bool {
	s.metrics.RecordEngagement(string(event.Kind))

	return s.next.Send(event)
}
