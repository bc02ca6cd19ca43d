//nolint:testpackage // exercising job wiring with internal dependencies
package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/gocampaign/internal/config"
	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/logger"
	"github.com/jonesrussell/gocampaign/internal/metrics"
	"github.com/jonesrussell/gocampaign/internal/tracking"
)

type scanStore struct{}

func (scanStore) CreateMessage(context.Context, *domain.OutreachMessage) error { return nil }

func (scanStore) ListCorrelationIDs(context.Context) ([]string, error) {
	return []string{"corr-1"}, nil
}

func (scanStore) MarkDelivered(context.Context, string, time.Time) error { return nil }
func (scanStore) MarkOpened(context.Context, string, time.Time) error    { return nil }
func (scanStore) MarkClicked(context.Context, string, time.Time) error   { return nil }
func (scanStore) MarkReplied(context.Context, string, time.Time, string) error {
	return nil
}
func (scanStore) MarkBounced(context.Context, string, time.Time) error { return nil }

type scanMailbox struct{}

func (scanMailbox) FetchNew(context.Context) ([]domain.InboundMessage, error) {
	return []domain.InboundMessage{
		{InReplyTo: "corr-1", Body: "Sounds great, let's talk.", ReceivedAt: time.Now()},
	}, nil
}

type dropSink struct{}

func (dropSink) Send(domain.EngagementEvent) bool { return true }

func TestInboxScanJobRecordsAppliedReplies(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	signer := tracking.NewSigner("test-secret", "http://track.local", tracking.DefaultSignatureLength)
	tracker := tracking.NewTracker(scanStore{}, signer, dropSink{}, logger.NewNop())

	deps := &Dependencies{
		Tracker: tracker,
		Mailbox: scanMailbox{},
		Metrics: m,
	}

	cfg := &config.Config{}
	cfg.Pipeline.RunTimeout = time.Second
	cfg.Tracking.InboxScanInterval = 10 * time.Millisecond
	// Keep the rank scan out of this test's window.
	cfg.Tracking.RankScanInterval = time.Hour

	jobs := SetupScheduler(cfg, deps, logger.NewNop())
	jobs.Start()
	defer jobs.Stop()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.RepliesAppliedTotal) >= 1
	}, 3*time.Second, 10*time.Millisecond, "inbox scan should feed the replies counter")
}
