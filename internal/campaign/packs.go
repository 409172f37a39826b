package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/deckforge/internal/catalog"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/packgen"
	"github.com/jason-s-yu/deckforge/internal/store"
	"github.com/sirupsen/logrus"
)

// Action selects between adding and removing an element of a collection.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

func (a Action) valid() bool {
	return a == ActionAdd || a == ActionRemove
}

// UpsertPack replaces the pack with the same id or adds a new one. Pack names
// are unique. The pack's id is returned.
func (s *Service) UpsertPack(ctx context.Context, id string, pack models.Pack) (string, error) {
	pack.Name = strings.TrimSpace(pack.Name)
	if pack.Name == "" {
		return "", fmt.Errorf("%w: pack name is required", ErrInvalidInput)
	}
	if pack.Price < 0 {
		return "", fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	for _, e := range pack.CardPool {
		if e.Weight != nil && *e.Weight > packgen.MaxWeight {
			return "", fmt.Errorf("%w: weight of card %s exceeds %d", ErrInvalidInput, e.CardID, packgen.MaxWeight)
		}
	}
	pack.CardsPerPack = max(pack.CardsPerPack, 1)
	pack.PicksPerPack = max(pack.PicksPerPack, 1)
	if pack.CardPool == nil {
		pack.CardPool = []models.PoolEntry{}
	}

	err := s.mutate(ctx, id, OpUpsertPack, &pack, func(c *models.Campaign) error {
		for _, p := range c.Packs {
			if p.Name == pack.Name && p.ID != pack.ID {
				return fmt.Errorf("%w: pack %q", ErrDuplicateName, pack.Name)
			}
		}
		if i := c.PackIndex(pack.ID); pack.ID != "" && i >= 0 {
			c.Packs[i] = pack
			return nil
		}
		if pack.ID == "" {
			pack.ID = uuid.NewString()
		}
		c.Packs = append(c.Packs, pack)
		return nil
	})
	if err != nil {
		return "", err
	}
	return pack.ID, nil
}

// ModifyPackContents adds a card to a pack's pool with weight 1, or removes
// it. A missing pack leaves the campaign untouched.
func (s *Service) ModifyPackContents(ctx context.Context, id, packID, cardID string, action Action) error {
	if !action.valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	payload := map[string]string{"packId": packID, "cardId": cardID, "action": string(action)}

	return s.mutate(ctx, id, OpModifyPackContents, payload, func(c *models.Campaign) error {
		i := c.PackIndex(packID)
		if i < 0 {
			return s.skip(id, OpModifyPackContents, "pack not found", logrus.Fields{"pack": packID})
		}
		pack := &c.Packs[i]

		if action == ActionAdd {
			if pack.HasCard(cardID) {
				return ErrCardInPack
			}
			weight := 1
			pack.CardPool = append(pack.CardPool, models.PoolEntry{CardID: cardID, Weight: &weight})
			return nil
		}

		kept := make([]models.PoolEntry, 0, len(pack.CardPool))
		for _, e := range pack.CardPool {
			if e.CardID != cardID {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(pack.CardPool) {
			return store.ErrNoChange
		}
		pack.CardPool = kept
		return nil
	})
}

// OpenOptions controls what opening a pack does besides drawing cards.
type OpenOptions struct {
	// PlayerID pays for the pack when Charge is set.
	PlayerID string
	Charge   bool

	// Showcase displays the drawn cards to every connected client.
	Showcase bool

	// Random, when set, replaces every uniform sample of the draw.
	Random *float64
}

// Opening is the result of opening a pack.
type Opening struct {
	PackID       string               `json:"packId"`
	PicksPerPack int                  `json:"picksPerPack"`
	CardIDs      []string             `json:"cardIds"`
	Cards        []models.PlayingCard `json:"cards"`
	Balance      *int                 `json:"balance,omitempty"`
}

func drawOptions(o OpenOptions) []packgen.Option {
	if o.Random == nil {
		return nil
	}
	return []packgen.Option{packgen.WithPresetRandom(*o.Random)}
}

// OpenPack draws the contents of a pack. Handing the drawn cards out is a
// separate step (ModifyPlayerCards). Without Charge or Showcase the
// campaign is only read.
func (s *Service) OpenPack(ctx context.Context, id, packID string, opts OpenOptions) (*Opening, error) {
	if opts.Charge && opts.PlayerID == "" {
		return nil, fmt.Errorf("%w: a player is required to charge for a pack", ErrInvalidInput)
	}

	var opening *Opening
	draw := func(c *models.Campaign) error {
		i := c.PackIndex(packID)
		if i < 0 {
			return ErrPackNotFound
		}
		pack := c.Packs[i]

		ids, err := packgen.Generate(pack, c.Cards, drawOptions(opts)...)
		if err != nil {
			return fmt.Errorf("pack %q: %w", pack.Name, err)
		}
		opening = &Opening{
			PackID:       pack.ID,
			PicksPerPack: pack.PicksPerPack,
			CardIDs:      ids,
			Cards:        catalog.Resolve(c.Cards, ids),
		}

		if opts.Charge {
			player, ok := c.Players[opts.PlayerID]
			if !ok {
				return ErrPlayerNotFound
			}
			if player.Balance < pack.Price {
				return fmt.Errorf("%w: pack costs %d, balance is %d", ErrInsufficientBalance, pack.Price, player.Balance)
			}
			player.Balance -= pack.Price
			c.Players[opts.PlayerID] = player
			balance := player.Balance
			opening.Balance = &balance
		}
		if opts.Showcase {
			c.CardShowcase = append([]string{}, ids...)
		}
		return nil
	}

	if !opts.Charge && !opts.Showcase {
		c, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", OpOpenPack, err)
		}
		if err := draw(c); err != nil {
			return nil, fmt.Errorf("%s: %w", OpOpenPack, err)
		}
		return opening, nil
	}

	err := s.mutate(ctx, id, OpOpenPack, &opening, draw)
	if err != nil {
		return nil, err
	}
	return opening, nil
}
