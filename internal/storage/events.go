// Package storage provides buffered, batched persistence for raw engagement
// events. Tracking endpoints must answer fast (a pixel fetch is in the hot
// path of rendering an email), so events are queued in memory and flushed to
// PostgreSQL in the background.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

const (
	// columnsPerRow is the number of columns inserted per event row.
	columnsPerRow = 5

	// insertBatchSize is the maximum number of rows per INSERT statement.
	insertBatchSize = 50

	// flushTimeout is the context timeout for each flush operation.
	flushTimeout = 5 * time.Second
)

// Buffer is a channel-based event buffer for non-blocking event ingestion.
type Buffer struct {
	events chan domain.EngagementEvent
	closed chan struct{}
	once   sync.Once
}

// NewBuffer creates a buffer with a buffered channel of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		events: make(chan domain.EngagementEvent, capacity),
		closed: make(chan struct{}),
	}
}

// Send performs a non-blocking send of an event into the buffer.
// It returns false if the buffer channel is full.
func (b *Buffer) Send(event domain.EngagementEvent) bool {
	select {
	case b.events <- event:
		return true
	default:
		return false
	}
}

// Len returns the number of events currently in the buffer channel.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Close signals the buffer to stop accepting events.
// It is safe to call multiple times.
func (b *Buffer) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}

// EventLog manages buffered writes of engagement events to PostgreSQL.
type EventLog struct {
	db             *sql.DB
	buffer         *Buffer
	log            logger.Logger
	flushInterval  time.Duration
	flushThreshold int
	wg             sync.WaitGroup
}

// NewEventLog creates an EventLog that reads events from buffer and
// batch-inserts them.
func NewEventLog(
	db *sql.DB,
	buffer *Buffer,
	log logger.Logger,
	flushInterval time.Duration,
	flushThreshold int,
) *EventLog {
	return &EventLog{
		db:             db,
		buffer:         buffer,
		log:            log,
		flushInterval:  flushInterval,
		flushThreshold: flushThreshold,
	}
}

// Start launches the background goroutine that reads events and flushes batches.
func (s *EventLog) Start() {
	s.wg.Add(1)
	go s.flushLoop()
}

// Stop signals the buffer to close and waits for the flush goroutine to finish.
func (s *EventLog) Stop() {
	s.buffer.Close()
	s.wg.Wait()
}

// flushLoop reads events from the buffer, accumulates a batch, and flushes
// when the batch reaches flushThreshold or the flushInterval ticker fires.
func (s *EventLog) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.EngagementEvent, 0, s.flushThreshold)

	for {
		select {
		case event := <-s.buffer.events:
			batch = append(batch, event)
			if len(batch) >= s.flushThreshold {
				s.flush(batch)
				batch = make([]domain.EngagementEvent, 0, s.flushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = make([]domain.EngagementEvent, 0, s.flushThreshold)
			}

		case <-s.buffer.closed:
			s.drain(&batch)
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

// drain reads all remaining events from the buffer channel into the batch.
func (s *EventLog) drain(batch *[]domain.EngagementEvent) {
	for {
		select {
		case event := <-s.buffer.events:
			*batch = append(*batch, event)
		default:
			return
		}
	}
}

// flush writes a batch of events to PostgreSQL in chunks of insertBatchSize.
func (s *EventLog) flush(batch []domain.EngagementEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for start := 0; start < len(batch); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(batch) {
			end = len(batch)
		}

		if err := s.batchInsert(ctx, batch[start:end]); err != nil {
			s.log.Error("Failed to insert engagement events",
				logger.Error(err),
				logger.Int("batch_size", end-start),
			)
		}
	}

	s.log.Debug("Flushed engagement events",
		logger.Int("total", len(batch)),
	)
}

// batchInsert builds and executes a single INSERT statement with multiple value tuples.
func (s *EventLog) batchInsert(ctx context.Context, events []domain.EngagementEvent) error {
	if len(events) == 0 {
		return nil
	}

	args := make([]any, 0, len(events)*columnsPerRow)
	var sb strings.Builder

	sb.WriteString("INSERT INTO engagement_events " +
		"(correlation_id, kind, destination, user_agent_hash, occurred_at) VALUES ")

	for i := range events {
		if i > 0 {
			sb.WriteString(", ")
		}

		writeValueTuple(&sb, i)

		args = append(args,
			events[i].CorrelationID, string(events[i].Kind),
			events[i].Destination, events[i].UserAgentHash, events[i].OccurredAt,
		)
	}

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("exec batch insert: %w", err)
	}

	return nil
}

// Placeholder column offsets within a single row tuple (1-indexed for PostgreSQL $N params).
const (
	colCorrelationID = 1
	colKind          = 2
	colDestination   = 3
	colUserAgentHash = 4
	colOccurredAt    = 5
)

// writeValueTuple writes a single ($1, ..., $5) placeholder tuple to the builder,
// offset by the row index.
func writeValueTuple(sb *strings.Builder, rowIndex int) {
	base := rowIndex * columnsPerRow
	fmt.Fprintf(sb, "($%d, $%d, $%d, $%d, $%d)",
		base+colCorrelationID, base+colKind,
		base+colDestination, base+colUserAgentHash, base+colOccurredAt,
	)
}
