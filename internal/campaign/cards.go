package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/packgen"
	"github.com/jason-s-yu/deckforge/internal/store"
)

func validateCard(card models.PlayingCard) error {
	if strings.TrimSpace(card.Name) == "" {
		return fmt.Errorf("%w: card name is required", ErrInvalidInput)
	}
	if card.Rarity < 0 || card.Rarity > packgen.MaxWeight {
		return fmt.Errorf("%w: rarity must be between 0 and %d", ErrInvalidInput, packgen.MaxWeight)
	}
	if card.Usage < models.UnlimitedUsage {
		return fmt.Errorf("%w: usage must be -1 (unlimited) or more", ErrInvalidInput)
	}
	return nil
}

// UpsertCard replaces the card with the same id, or adds it as a new card.
// New cards must not share a name with an existing card. The card's id is
// returned, freshly generated if it was empty.
func (s *Service) UpsertCard(ctx context.Context, id string, card models.PlayingCard) (string, error) {
	if err := validateCard(card); err != nil {
		return "", err
	}
	card.Name = strings.TrimSpace(card.Name)

	err := s.mutate(ctx, id, OpUpsertCard, &card, func(c *models.Campaign) error {
		for i, existing := range c.Cards {
			if card.ID != "" && existing.ID == card.ID {
				c.Cards[i] = card
				return nil
			}
		}
		for _, existing := range c.Cards {
			if existing.Name == card.Name {
				return fmt.Errorf("%w: card %q", ErrDuplicateName, card.Name)
			}
		}
		if card.ID == "" {
			card.ID = uuid.NewString()
		}
		c.Cards = append(c.Cards, card)
		return nil
	})
	if err != nil {
		return "", err
	}
	return card.ID, nil
}

// RemoveCard deletes a card from the catalog. References to it from packs,
// inventories and the shop are left in place and ignored on read.
func (s *Service) RemoveCard(ctx context.Context, id, cardID string) error {
	return s.mutate(ctx, id, OpRemoveCard, map[string]string{"cardId": cardID}, func(c *models.Campaign) error {
		kept := c.Cards[:0]
		for _, card := range c.Cards {
			if card.ID != cardID {
				kept = append(kept, card)
			}
		}
		if len(kept) == len(c.Cards) {
			return store.ErrNoChange
		}
		c.Cards = kept
		return nil
	})
}
