package models

// PoolEntry references a card that can be drawn from a pack. A nil Weight
// means the card's rarity is used as its weight.
type PoolEntry struct {
	CardID string `json:"cardId"`
	Weight *int   `json:"weight,omitempty"`
}

// Pack is a purchasable booster. Opening it draws CardsPerPack cards from
// CardPool, of which the DM hands out PicksPerPack.
type Pack struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Price        int         `json:"price"`
	CardsPerPack int         `json:"cardsPerPack"`
	PicksPerPack int         `json:"picksPerPack"`
	Background   string      `json:"background"`
	CardPool     []PoolEntry `json:"cardPool"`
}

// HasCard reports whether cardID is already in the pack's pool.
func (p Pack) HasCard(cardID string) bool {
	for _, e := range p.CardPool {
		if e.CardID == cardID {
			return true
		}
	}
	return false
}

// ShopItem is a card offered in the campaign shop.
type ShopItem struct {
	CardID string `json:"cardId"`
	Price  int    `json:"price"`
}
