// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/deckforge/internal/database"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSource chan models.JournalRecord

func (s chanSource) Pop(ctx context.Context, timeout time.Duration) (*models.JournalRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case rec := <-s:
		return &rec, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

type memorySink struct {
	mu      sync.Mutex
	fail    bool
	batches [][]database.Event
}

func (s *memorySink) InsertEvents(_ context.Context, events []database.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("database unavailable")
	}
	s.batches = append(s.batches, append([]database.Event(nil), events...))
	return len(events), nil
}

func (s *memorySink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func record(op string) models.JournalRecord {
	return models.JournalRecord{CampaignID: "c1", Operation: op, Timestamp: 1700000000000}
}

func TestFlushesFullBatches(t *testing.T) {
	src := make(chanSource, 10)
	sink := &memorySink{}
	h := New(src, sink, quietLogger(), 2, time.Hour)
	h.popTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	src <- record("upsert_card")
	src <- record("open_pack")
	assert.Eventually(t, func() bool { return sink.total() == 2 }, time.Second, 5*time.Millisecond)

	src <- record("adjust_balance")
	assert.Eventually(t, func() bool { return h.Pending() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 3, sink.total())

	first := sink.batches[0][0]
	assert.Equal(t, "upsert_card", first.Operation)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), first.OccurredAt)
}

func TestFlushesOnInterval(t *testing.T) {
	src := make(chanSource, 10)
	sink := &memorySink{}
	h := New(src, sink, quietLogger(), 100, 20*time.Millisecond)
	h.popTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	src <- record("set_card_showcase")
	assert.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestKeepsEventsWhenSinkFails(t *testing.T) {
	sink := &memorySink{fail: true}
	h := New(make(chanSource), sink, quietLogger(), 1, time.Hour)

	for range 15 {
		h.add(toEvent(record("add_card_usage")))
		h.flush(context.Background())
	}
	assert.Equal(t, maxPendingBatches, h.Pending())

	sink.fail = false
	h.flush(context.Background())
	assert.Zero(t, h.Pending())
	assert.Equal(t, maxPendingBatches, sink.total())
}
