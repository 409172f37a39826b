package campaign

import (
	"context"
	"slices"

	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/store"
)

// SetCardShowcase shows the given cards to every connected client. An empty
// list clears the showcase.
func (s *Service) SetCardShowcase(ctx context.Context, id string, cardIDs []string) error {
	payload := map[string][]string{"cardIds": cardIDs}
	return s.mutate(ctx, id, OpSetCardShowcase, payload, func(c *models.Campaign) error {
		if len(cardIDs) == 0 {
			if len(c.CardShowcase) == 0 {
				return store.ErrNoChange
			}
			c.CardShowcase = nil
			return nil
		}
		if slices.Equal(c.CardShowcase, cardIDs) {
			return store.ErrNoChange
		}
		c.CardShowcase = slices.Clone(cardIDs)
		return nil
	})
}
