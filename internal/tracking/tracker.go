package tracking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

// ErrBadSignature is returned when a tracking URL fails HMAC verification.
var ErrBadSignature = errors.New("tracking signature mismatch")

// MessageStore is the persistence surface the tracker drives. Postgres is the
// source of truth for message state; the tracker never caches transitions.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *domain.OutreachMessage) error
	ListCorrelationIDs(ctx context.Context) ([]string, error)
	MarkDelivered(ctx context.Context, correlationID string, at time.Time) error
	MarkOpened(ctx context.Context, correlationID string, at time.Time) error
	MarkClicked(ctx context.Context, correlationID string, at time.Time) error
	MarkReplied(ctx context.Context, correlationID string, at time.Time, sentiment string) error
	MarkBounced(ctx context.Context, correlationID string, at time.Time) error
}

// Mailbox fetches inbound messages for the reply scan.
type Mailbox interface {
	FetchNew(ctx context.Context) ([]domain.InboundMessage, error)
}

// EventSink receives raw engagement events for append-only logging.
// Delivery is best-effort: a full sink drops the event without blocking the
// request path.
type EventSink interface {
	Send(event domain.EngagementEvent) bool
}

// Tracker applies engagement events to the persisted message state machine.
type Tracker struct {
	store  MessageStore
	signer *Signer
	events EventSink
	log    logger.Logger
	now    func() time.Time
}

// NewTracker creates a Tracker.
func NewTracker(store MessageStore, signer *Signer, events EventSink, log logger.Logger) *Tracker {
	return &Tracker{
		store:  store,
		signer: signer,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// Signer returns the signer used for verification, for callers that need to
// check a signature without recording anything.
func (t *Tracker) Signer() *Signer {
	return t.signer
}

// RecordSend registers a sent message under its correlation id. A correlation
// id that already exists is treated as success so an aborted run can resume
// without erroring on work it already did.
func (t *Tracker) RecordSend(ctx context.Context, msg *domain.OutreachMessage) error {
	err := t.store.CreateMessage(ctx, msg)
	if errors.Is(err, domain.ErrAlreadyExists) {
		t.log.Debug("message already registered", logger.String("correlation_id", msg.CorrelationID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}

	return nil
}

// RecordDelivered applies a provider delivery confirmation. The callback
// signature is verified before any state is touched.
func (t *Tracker) RecordDelivered(ctx context.Context, correlationID, timestamp, signature string) error {
	params := StatusParams{
		Event:         StatusDelivered,
		CorrelationID: correlationID,
		Timestamp:     parseTimestamp(timestamp),
	}
	if !t.signer.Verify(params.Message(), signature) {
		return ErrBadSignature
	}

	at := t.now().UTC()
	t.events.Send(domain.EngagementEvent{
		CorrelationID: correlationID,
		Kind:          domain.EngagementDelivered,
		OccurredAt:    at,
	})

	if err := t.store.MarkDelivered(ctx, correlationID, at); err != nil {
		return fmt.Errorf("record delivered: %w", err)
	}

	return nil
}

// RecordOpen applies a pixel fetch. The event is logged even when it is a
// duplicate; the state transition itself is idempotent in the store.
// Signature failures are rejected before any state is touched.
func (t *Tracker) RecordOpen(ctx context.Context, correlationID, timestamp, signature, userAgentHash string) error {
	params := OpenParams{CorrelationID: correlationID, Timestamp: parseTimestamp(timestamp)}
	if !t.signer.Verify(params.Message(), signature) {
		return ErrBadSignature
	}

	at := t.now().UTC()
	t.events.Send(domain.EngagementEvent{
		CorrelationID: correlationID,
		Kind:          domain.EngagementOpen,
		UserAgentHash: userAgentHash,
		OccurredAt:    at,
	})

	if err := t.store.MarkOpened(ctx, correlationID, at); err != nil {
		return fmt.Errorf("record open: %w", err)
	}

	return nil
}

// RecordClick applies a click-redirect hit and returns the verified
// destination for the redirect. The destination comes out of the signed
// message, so a tampered query string fails verification rather than
// producing an open redirect.
func (t *Tracker) RecordClick(
	ctx context.Context,
	correlationID, destination, timestamp, signature, userAgentHash string,
) (string, error) {
	params := ClickParams{
		CorrelationID: correlationID,
		Destination:   destination,
		Timestamp:     parseTimestamp(timestamp),
	}
	if !t.signer.Verify(params.Message(), signature) {
		return "", ErrBadSignature
	}

	at := t.now().UTC()
	t.events.Send(domain.EngagementEvent{
		CorrelationID: correlationID,
		Kind:          domain.EngagementClick,
		Destination:   destination,
		UserAgentHash: userAgentHash,
		OccurredAt:    at,
	})

	if err := t.store.MarkClicked(ctx, correlationID, at); err != nil {
		return "", fmt.Errorf("record click: %w", err)
	}

	return destination, nil
}

// RecordBounce applies a provider delivery failure, with the same signature
// check as RecordDelivered.
func (t *Tracker) RecordBounce(ctx context.Context, correlationID, timestamp, signature string) error {
	params := StatusParams{
		Event:         StatusBounced,
		CorrelationID: correlationID,
		Timestamp:     parseTimestamp(timestamp),
	}
	if !t.signer.Verify(params.Message(), signature) {
		return ErrBadSignature
	}

	at := t.now().UTC()
	t.events.Send(domain.EngagementEvent{
		CorrelationID: correlationID,
		Kind:          domain.EngagementBounced,
		OccurredAt:    at,
	})

	if err := t.store.MarkBounced(ctx, correlationID, at); err != nil {
		return fmt.Errorf("record bounce: %w", err)
	}

	return nil
}

// ScanInbox polls the mailbox and correlates replies against known
// correlation ids via threading headers. Applying the same reply twice is
// harmless: the store fills replied_at and the sentiment exactly once, so the
// scan is safe under at-least-once mailbox delivery. Returns the number of
// replies applied.
func (t *Tracker) ScanInbox(ctx context.Context, mailbox Mailbox) (int, error) {
	inbound, err := mailbox.FetchNew(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan inbox: %w", err)
	}
	if len(inbound) == 0 {
		return 0, nil
	}

	ids, err := t.store.ListCorrelationIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan inbox: %w", err)
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	applied := 0
	for i := range inbound {
		correlationID, ok := matchCorrelation(&inbound[i], known)
		if !ok {
			continue
		}

		if replyErr := t.applyReply(ctx, correlationID, &inbound[i]); replyErr != nil {
			t.log.Error("failed to apply reply",
				logger.String("correlation_id", correlationID),
				logger.Error(replyErr))
			continue
		}
		applied++
	}

	if applied > 0 {
		t.log.Info("inbox scan applied replies", logger.Int("count", applied))
	}

	return applied, nil
}

func (t *Tracker) applyReply(ctx context.Context, correlationID string, msg *domain.InboundMessage) error {
	at := msg.ReceivedAt
	if at.IsZero() {
		at = t.now().UTC()
	}

	sentiment := ScoreSentiment(msg.Body)
	t.events.Send(domain.EngagementEvent{
		CorrelationID: correlationID,
		Kind:          domain.EngagementReply,
		OccurredAt:    at,
	})

	return t.store.MarkReplied(ctx, correlationID, at, sentiment)
}

// matchCorrelation checks In-Reply-To first, then each References entry, and
// returns the first header value that names a known correlation id.
func matchCorrelation(msg *domain.InboundMessage, known map[string]struct{}) (string, bool) {
	if _, ok := known[msg.InReplyTo]; ok && msg.InReplyTo != "" {
		return msg.InReplyTo, true
	}

	for _, ref := range msg.References {
		if _, ok := known[ref]; ok && ref != "" {
			return ref, true
		}
	}

	return "", false
}

func parseTimestamp(raw string) int64 {
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return ts
}
