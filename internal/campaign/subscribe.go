package campaign

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/deckforge/internal/models"
)

// Subscribe streams snapshots of a campaign. The current snapshot is sent
// first, then a fresh one after every change. A slow reader only ever sees
// the latest snapshot. The channel is closed once ctx is done.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan *models.Campaign, error) {
	if s.notifier == nil {
		return nil, fmt.Errorf("subscribe: no notifier configured")
	}

	// Subscribe before the first read so no change can slip in between.
	changes, cancel, err := s.notifier.Subscribe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	first, err := s.store.Get(ctx, id)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan *models.Campaign, 1)
	out <- first

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				snapshot, err := s.store.Get(ctx, id)
				if err != nil {
					if ctx.Err() == nil {
						s.log.WithField("campaign", id).WithError(err).Warn("failed to reload campaign for subscriber")
					}
					continue
				}
				// Replace an unread snapshot rather than queue behind it.
				select {
				case <-out:
				default:
				}
				out <- snapshot
			}
		}
	}()

	return out, nil
}
