// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for campaign mutation records.
var DefaultQueueName = "deckforge_journal"

const channelPrefix = "deckforge:campaign:"

// Connect builds a client for addr/db and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Journal pushes mutation records onto a Redis list.
type Journal struct {
	rdb   *redis.Client
	queue string
}

func NewJournal(rdb *redis.Client, queue string) *Journal {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Journal{rdb: rdb, queue: queue}
}

// Record serializes the given record to JSON, then pushes it to the queue.
func (j *Journal) Record(ctx context.Context, record models.JournalRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal JournalRecord: %w", err)
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", j.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns (nil, nil) when the
// queue stayed empty.
func (j *Journal) Pop(ctx context.Context, timeout time.Duration) (*models.JournalRecord, error) {
	res, err := j.rdb.BLPop(ctx, timeout, j.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}
	var record models.JournalRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid journal record: %w", err)
	}
	return &record, nil
}

// Notifier fans out campaign change notifications over Redis pub/sub, so
// every server instance can push updates to its own subscribers.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) Publish(ctx context.Context, id string) error {
	if err := n.rdb.Publish(ctx, channelPrefix+id, "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish change for campaign %s: %w", id, err)
	}
	return nil
}

func (n *Notifier) Subscribe(ctx context.Context, id string) (<-chan struct{}, func(), error) {
	ps := n.rdb.Subscribe(ctx, channelPrefix+id)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to campaign %s: %w", id, err)
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			ps.Close()
		})
	}

	go func() {
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}
