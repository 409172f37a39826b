// Package historian drains the mutation journal from Redis into PostgreSQL.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/deckforge/internal/database"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source yields journal records. Pop returns nil, nil when nothing arrived
// within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.JournalRecord, error)
}

// Sink persists a batch of events.
type Sink interface {
	InsertEvents(ctx context.Context, events []database.Event) (int, error)
}

// maxPendingBatches bounds how much is kept in memory while the sink fails.
const maxPendingBatches = 10

// Historian accumulates journal records and flushes them in batches, either
// when the batch is full or every flush interval.
type Historian struct {
	source     Source
	sink       Sink
	logger     *logrus.Logger
	batchSize  int
	flushDelay time.Duration
	popTimeout time.Duration

	batchMu sync.Mutex
	batch   []database.Event
}

func New(source Source, sink Sink, logger *logrus.Logger, batchSize int, flushDelay time.Duration) *Historian {
	batchSize = max(batchSize, 1)
	return &Historian{
		source:     source,
		sink:       sink,
		logger:     logger,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		popTimeout: 3 * time.Second,
		batch:      make([]database.Event, 0, batchSize),
	}
}

// Run reads and flushes until ctx is done, then flushes what is left.
func (h *Historian) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.readLoop(gctx) })
	g.Go(func() error { return h.flushLoop(gctx) })
	err := g.Wait()

	// ctx is done; give the final flush its own deadline.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h.flush(flushCtx)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (h *Historian) readLoop(ctx context.Context) error {
	for {
		rec, err := h.source.Pop(ctx, h.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.WithError(err).Error("failed to pop journal record")
			// Back off briefly so a broken connection does not spin.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if rec == nil {
			continue
		}
		if h.add(toEvent(*rec)) {
			h.flush(ctx)
		}
	}
}

func (h *Historian) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.flush(ctx)
		}
	}
}

func toEvent(rec models.JournalRecord) database.Event {
	return database.Event{
		CampaignID: rec.CampaignID,
		Operation:  rec.Operation,
		Payload:    rec.Payload,
		OccurredAt: time.UnixMilli(rec.Timestamp).UTC(),
	}
}

// add appends an event and reports whether the batch is full.
func (h *Historian) add(ev database.Event) bool {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	h.batch = append(h.batch, ev)
	return len(h.batch) >= h.batchSize
}

// flush writes the pending batch. On failure the events are kept for the
// next flush, up to maxPendingBatches batches; the oldest are dropped first.
func (h *Historian) flush(ctx context.Context) {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	pending := h.batch
	h.batch = make([]database.Event, 0, h.batchSize)
	h.batchMu.Unlock()

	n, err := h.sink.InsertEvents(ctx, pending)
	if err == nil {
		h.logger.WithField("events", n).Debug("flushed journal to database")
		return
	}
	h.logger.WithError(err).WithField("events", len(pending)).Error("failed to flush journal")

	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	h.batch = append(pending, h.batch...)
	if limit := maxPendingBatches * h.batchSize; len(h.batch) > limit {
		dropped := len(h.batch) - limit
		h.batch = h.batch[dropped:]
		h.logger.WithField("events", dropped).Warn("dropped journal events")
	}
}

// Pending returns the number of events waiting to be flushed.
func (h *Historian) Pending() int {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()
	return len(h.batch)
}
