package store

import (
	"context"
	"sync"
)

// Broker is an in-process Notifier.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[int]chan struct{}),
	}
}

func (b *Broker) Publish(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[id] {
		// ch has a buffer of one; a pending signal already covers this change.
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, id string) (<-chan struct{}, func(), error) {
	b.mu.Lock()
	subID := b.nextID
	b.nextID++
	ch := make(chan struct{}, 1)
	if b.subs[id] == nil {
		b.subs[id] = make(map[int]chan struct{})
	}
	b.subs[id][subID] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[id], subID)
			if len(b.subs[id]) == 0 {
				delete(b.subs, id)
			}
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}

// Subscribers returns how many subscriptions are open for a campaign.
func (b *Broker) Subscribers(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[id])
}
