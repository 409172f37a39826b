package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jason-s-yu/deckforge/internal/models"
)

// InventoryCard is an owned card joined with its catalog definition.
type InventoryCard struct {
	Key       string             `json:"key"`
	Card      models.PlayingCard `json:"card"`
	TimesUsed int                `json:"timesUsed"`
	Remaining *int               `json:"remaining,omitempty"` // nil => unlimited
}

// ShopListing is a shop entry joined with its catalog definition.
type ShopListing struct {
	Key   string             `json:"key"`
	Card  models.PlayingCard `json:"card"`
	Price int                `json:"price"`
}

func index(cards []models.PlayingCard) map[string]models.PlayingCard {
	m := make(map[string]models.PlayingCard, len(cards))
	for _, c := range cards {
		m[c.ID] = c
	}
	return m
}

// Resolve maps card ids to cards, keeping order and duplicates and dropping
// ids that are not in the catalog.
func Resolve(cards []models.PlayingCard, ids []string) []models.PlayingCard {
	byID := index(cards)
	out := make([]models.PlayingCard, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// PackCards returns the cards in a pack's pool.
func PackCards(cards []models.PlayingCard, pack models.Pack) []models.PlayingCard {
	ids := make([]string, len(pack.CardPool))
	for i, e := range pack.CardPool {
		ids[i] = e.CardID
	}
	return Resolve(cards, ids)
}

// Inventory returns a player's owned cards ordered by card name, then key.
func Inventory(cards []models.PlayingCard, player models.Player) []InventoryCard {
	byID := index(cards)
	out := make([]InventoryCard, 0, len(player.Cards))
	for key, owned := range player.Cards {
		card, ok := byID[owned.CardID]
		if !ok {
			continue
		}
		item := InventoryCard{Key: key, Card: card, TimesUsed: owned.TimesUsed}
		if left, limited := models.RemainingUses(card, owned); limited {
			item.Remaining = &left
		}
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b InventoryCard) int {
		return cmp.Or(
			strings.Compare(fold(a.Card.Name), fold(b.Card.Name)),
			strings.Compare(a.Key, b.Key),
		)
	})
	return out
}

// Shop returns the shop listings ordered by price, then card name.
func Shop(cards []models.PlayingCard, shop map[string]models.ShopItem) []ShopListing {
	byID := index(cards)
	out := make([]ShopListing, 0, len(shop))
	for key, item := range shop {
		card, ok := byID[item.CardID]
		if !ok {
			continue
		}
		out = append(out, ShopListing{Key: key, Card: card, Price: item.Price})
	}
	slices.SortFunc(out, func(a, b ShopListing) int {
		return cmp.Or(
			cmp.Compare(a.Price, b.Price),
			strings.Compare(fold(a.Card.Name), fold(b.Card.Name)),
			strings.Compare(a.Key, b.Key),
		)
	})
	return out
}
