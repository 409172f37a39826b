package models

// OwnedCard is one entry of a player's inventory. The same card may be owned
// several times under different inventory keys.
type OwnedCard struct {
	CardID    string `json:"cardId"`
	TimesUsed int    `json:"timesUsed"`
}

type Player struct {
	Name    string               `json:"name"`
	Balance int                  `json:"balance"`
	Cards   map[string]OwnedCard `json:"Cards"`
}

// RemainingUses returns how many more times an owned card can be used, and
// false when the card has unlimited uses.
func RemainingUses(card PlayingCard, owned OwnedCard) (int, bool) {
	if card.Usage == UnlimitedUsage {
		return 0, false
	}
	left := card.Usage - owned.TimesUsed
	if left < 0 {
		left = 0
	}
	return left, true
}
