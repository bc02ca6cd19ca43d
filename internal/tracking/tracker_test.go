//nolint:testpackage // Testing internal tracker requires same package access
package tracking

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

type mockStore struct {
	createErr      error
	createCalls    int
	openedCalls    []string
	clickedCalls   []string
	deliveredCalls []string
	bouncedCalls   []string
	repliedCalls   []string
	repliedScores  []string
	correlationIDs []string
	markErr        error
}

func (m *mockStore) CreateMessage(_ context.Context, _ *domain.OutreachMessage) error {
	m.createCalls++
	return m.createErr
}

func (m *mockStore) ListCorrelationIDs(_ context.Context) ([]string, error) {
	return m.correlationIDs, nil
}

func (m *mockStore) MarkDelivered(_ context.Context, correlationID string, _ time.Time) error {
	m.deliveredCalls = append(m.deliveredCalls, correlationID)
	return m.markErr
}

func (m *mockStore) MarkOpened(_ context.Context, correlationID string, _ time.Time) error {
	m.openedCalls = append(m.openedCalls, correlationID)
	return m.markErr
}

func (m *mockStore) MarkClicked(_ context.Context, correlationID string, _ time.Time) error {
	m.clickedCalls = append(m.clickedCalls, correlationID)
	return m.markErr
}

func (m *mockStore) MarkReplied(_ context.Context, correlationID string, _ time.Time, sentiment string) error {
	m.repliedCalls = append(m.repliedCalls, correlationID)
	m.repliedScores = append(m.repliedScores, sentiment)
	return m.markErr
}

func (m *mockStore) MarkBounced(_ context.Context, correlationID string, _ time.Time) error {
	m.bouncedCalls = append(m.bouncedCalls, correlationID)
	return m.markErr
}

type mockSink struct {
	events []domain.EngagementEvent
}

func (m *mockSink) Send(event domain.EngagementEvent) bool {
	m.events = append(m.events, event)
	return true
}

type mockMailbox struct {
	messages []domain.InboundMessage
	err      error
}

func (m *mockMailbox) FetchNew(_ context.Context) ([]domain.InboundMessage, error) {
	return m.messages, m.err
}

func newTestTracker(store *mockStore, sink *mockSink) (*Tracker, *Signer) {
	signer := NewSigner("test-secret", "https://track.example.com", DefaultSignatureLength)
	return NewTracker(store, signer, sink, logger.NewNop()), signer
}

func TestRecordSend_TreatsDuplicateAsSuccess(t *testing.T) {
	store := &mockStore{createErr: domain.ErrAlreadyExists}
	tracker, _ := newTestTracker(store, &mockSink{})

	msg := &domain.OutreachMessage{TargetID: uuid.New(), CorrelationID: "corr-1"}
	if err := tracker.RecordSend(context.Background(), msg); err != nil {
		t.Errorf("RecordSend() with existing correlation id should succeed, got %v", err)
	}
}

func TestRecordOpen_RejectsBadSignature(t *testing.T) {
	store := &mockStore{}
	sink := &mockSink{}
	tracker, _ := newTestTracker(store, sink)

	err := tracker.RecordOpen(context.Background(), "corr-1", "1700000000", "deadbeef0000", "")
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("RecordOpen() error = %v, want ErrBadSignature", err)
	}
	if len(store.openedCalls) != 0 {
		t.Error("store should not be touched on signature failure")
	}
	if len(sink.events) != 0 {
		t.Error("no event should be logged on signature failure")
	}
}

func TestRecordOpen_LogsEventAndTransitions(t *testing.T) {
	store := &mockStore{}
	sink := &mockSink{}
	tracker, signer := newTestTracker(store, sink)

	ts := int64(1700000000)
	sig := signer.Sign(OpenParams{CorrelationID: "corr-1", Timestamp: ts}.Message())

	if err := tracker.RecordOpen(context.Background(), "corr-1", strconv.FormatInt(ts, 10), sig, "ua-hash"); err != nil {
		t.Fatalf("RecordOpen() error = %v", err)
	}

	if len(store.openedCalls) != 1 || store.openedCalls[0] != "corr-1" {
		t.Errorf("openedCalls = %v, want [corr-1]", store.openedCalls)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != domain.EngagementOpen {
		t.Fatalf("events = %v, want one open event", sink.events)
	}
	if sink.events[0].UserAgentHash != "ua-hash" {
		t.Errorf("UserAgentHash = %q, want ua-hash", sink.events[0].UserAgentHash)
	}
}

func TestRecordOpen_DuplicateStillLogged(t *testing.T) {
	store := &mockStore{}
	sink := &mockSink{}
	tracker, signer := newTestTracker(store, sink)

	ts := int64(1700000000)
	sig := signer.Sign(OpenParams{CorrelationID: "corr-1", Timestamp: ts}.Message())

	for i := 0; i < 3; i++ {
		if err := tracker.RecordOpen(context.Background(), "corr-1", strconv.FormatInt(ts, 10), sig, ""); err != nil {
			t.Fatalf("RecordOpen() error = %v", err)
		}
	}

	// The raw event log keeps every hit; deduplication is the state
	// machine's job, not the log's.
	if len(sink.events) != 3 {
		t.Errorf("logged events = %d, want 3", len(sink.events))
	}
}

func TestRecordClick_ReturnsVerifiedDestination(t *testing.T) {
	store := &mockStore{}
	tracker, signer := newTestTracker(store, &mockSink{})

	ts := int64(1700000000)
	dest := "https://example.com/article"
	sig := signer.Sign(ClickParams{CorrelationID: "corr-2", Destination: dest, Timestamp: ts}.Message())

	got, err := tracker.RecordClick(context.Background(), "corr-2", dest, strconv.FormatInt(ts, 10), sig, "")
	if err != nil {
		t.Fatalf("RecordClick() error = %v", err)
	}
	if got != dest {
		t.Errorf("destination = %q, want %q", got, dest)
	}
	if len(store.clickedCalls) != 1 {
		t.Errorf("clickedCalls = %v, want one call", store.clickedCalls)
	}
}

func TestRecordClick_TamperedDestinationRejected(t *testing.T) {
	store := &mockStore{}
	tracker, signer := newTestTracker(store, &mockSink{})

	ts := int64(1700000000)
	sig := signer.Sign(ClickParams{
		CorrelationID: "corr-2",
		Destination:   "https://example.com/article",
		Timestamp:     ts,
	}.Message())

	_, err := tracker.RecordClick(
		context.Background(), "corr-2", "https://evil.example.com",
		strconv.FormatInt(ts, 10), sig, "",
	)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("RecordClick() error = %v, want ErrBadSignature", err)
	}
}

func TestScanInbox_CorrelatesByThreadingHeaders(t *testing.T) {
	store := &mockStore{correlationIDs: []string{"corr-a", "corr-b"}}
	sink := &mockSink{}
	tracker, _ := newTestTracker(store, sink)

	mailbox := &mockMailbox{messages: []domain.InboundMessage{
		{InReplyTo: "corr-a", Body: "Yes, definitely interested!", ReceivedAt: time.Now()},
		{References: []string{"unrelated", "corr-b"}, Body: "No thanks, remove me.", ReceivedAt: time.Now()},
		{InReplyTo: "unknown-id", Body: "Wrong thread."},
		{Body: "No headers at all."},
	}}

	applied, err := tracker.ScanInbox(context.Background(), mailbox)
	if err != nil {
		t.Fatalf("ScanInbox() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}

	if len(store.repliedCalls) != 2 {
		t.Fatalf("repliedCalls = %v, want 2 calls", store.repliedCalls)
	}
	if store.repliedCalls[0] != "corr-a" || store.repliedCalls[1] != "corr-b" {
		t.Errorf("repliedCalls = %v, want [corr-a corr-b]", store.repliedCalls)
	}
	if store.repliedScores[0] != SentimentPositive {
		t.Errorf("first reply sentiment = %q, want positive", store.repliedScores[0])
	}
	if store.repliedScores[1] != SentimentNegative {
		t.Errorf("second reply sentiment = %q, want negative", store.repliedScores[1])
	}
}

func TestRecordDelivered_VerifiesSignatureAndTransitions(t *testing.T) {
	store := &mockStore{}
	sink := &mockSink{}
	tracker, signer := newTestTracker(store, sink)

	ts := int64(1700000000)
	sig := signer.StatusSignature(StatusDelivered, "corr-3", ts)

	if err := tracker.RecordDelivered(context.Background(), "corr-3", strconv.FormatInt(ts, 10), sig); err != nil {
		t.Fatalf("RecordDelivered() error = %v", err)
	}

	if len(store.deliveredCalls) != 1 || store.deliveredCalls[0] != "corr-3" {
		t.Errorf("deliveredCalls = %v, want [corr-3]", store.deliveredCalls)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != domain.EngagementDelivered {
		t.Fatalf("events = %v, want one delivered event", sink.events)
	}
}

func TestRecordDelivered_RejectsBadSignature(t *testing.T) {
	store := &mockStore{}
	sink := &mockSink{}
	tracker, _ := newTestTracker(store, sink)

	err := tracker.RecordDelivered(context.Background(), "corr-3", "1700000000", "deadbeef0000")
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("RecordDelivered() error = %v, want ErrBadSignature", err)
	}
	if len(store.deliveredCalls) != 0 || len(sink.events) != 0 {
		t.Error("store and sink should not be touched on signature failure")
	}
}

func TestRecordBounce_VerifiesSignatureAndTransitions(t *testing.T) {
	store := &mockStore{}
	sink := &mockSink{}
	tracker, signer := newTestTracker(store, sink)

	ts := int64(1700000000)
	sig := signer.StatusSignature(StatusBounced, "corr-4", ts)

	if err := tracker.RecordBounce(context.Background(), "corr-4", strconv.FormatInt(ts, 10), sig); err != nil {
		t.Fatalf("RecordBounce() error = %v", err)
	}

	if len(store.bouncedCalls) != 1 || store.bouncedCalls[0] != "corr-4" {
		t.Errorf("bouncedCalls = %v, want [corr-4]", store.bouncedCalls)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != domain.EngagementBounced {
		t.Fatalf("events = %v, want one bounced event", sink.events)
	}
}

func TestRecordBounce_DeliveredSignatureDoesNotVerify(t *testing.T) {
	store := &mockStore{}
	tracker, signer := newTestTracker(store, &mockSink{})

	// The event kind is part of the signed message, so a delivered
	// signature cannot be replayed as a bounce.
	ts := int64(1700000000)
	sig := signer.StatusSignature(StatusDelivered, "corr-4", ts)

	err := tracker.RecordBounce(context.Background(), "corr-4", strconv.FormatInt(ts, 10), sig)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("RecordBounce() error = %v, want ErrBadSignature", err)
	}
	if len(store.bouncedCalls) != 0 {
		t.Error("store should not be touched on signature failure")
	}
}

func TestScanInbox_MailboxErrorPropagates(t *testing.T) {
	store := &mockStore{}
	tracker, _ := newTestTracker(store, &mockSink{})

	fetchErr := errors.New("imap timeout")
	if _, err := tracker.ScanInbox(context.Background(), &mockMailbox{err: fetchErr}); !errors.Is(err, fetchErr) {
		t.Errorf("ScanInbox() error = %v, want wrapped fetch error", err)
	}
}
