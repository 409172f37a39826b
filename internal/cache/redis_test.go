package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a real Redis; they are skipped unless REDIS_ADDR is set.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis tests")
	}
	rdb, err := Connect(context.Background(), addr, 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestJournalRecordAndPop(t *testing.T) {
	rdb := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	j := NewJournal(rdb, "deckforge_journal_test_"+uuid.NewString())
	campaignID := uuid.NewString()
	require.NoError(t, j.Record(ctx, models.JournalRecord{
		CampaignID: campaignID,
		Operation:  "upsert_card",
		Payload:    json.RawMessage(`{"cardId":"a"}`),
		Timestamp:  time.Now().UnixMilli(),
	}))

	rec, err := j.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, campaignID, rec.CampaignID)
	assert.Equal(t, "upsert_card", rec.Operation)

	rec, err = j.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestNotifierDeliversChanges(t *testing.T) {
	rdb := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := NewNotifier(rdb)
	id := uuid.NewString()
	ch, stop, err := n.Subscribe(ctx, id)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, n.Publish(ctx, id))
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("no notification received")
	}
}
