package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Campaign is the single shared document holding one game's full state.
type Campaign struct {
	Name         string              `json:"name"`
	Players      map[string]Player   `json:"players"`
	Cards        []PlayingCard       `json:"cards"`
	Packs        []Pack              `json:"packs"`
	Shop         map[string]ShopItem `json:"shop,omitempty"`
	CardShowcase []string            `json:"cardShowcase,omitempty"`
}

// CampaignSummary is the list view of a campaign.
type CampaignSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewCampaign returns an empty campaign with all collections allocated.
func NewCampaign(name string) *Campaign {
	return &Campaign{
		Name:    name,
		Players: make(map[string]Player),
		Cards:   []PlayingCard{},
		Packs:   []Pack{},
	}
}

// UnmarshalJSON also accepts the legacy document shape where players were
// stored as an array of objects carrying their own id. Such players are
// keyed by that id, or by a fresh one when it is missing.
func (c *Campaign) UnmarshalJSON(data []byte) error {
	type campaign Campaign
	var doc struct {
		campaign
		Players json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = Campaign(doc.campaign)
	c.Players = nil

	raw := bytes.TrimSpace(doc.Players)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		var legacy []struct {
			ID string `json:"id"`
			Player
		}
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return fmt.Errorf("legacy players: %w", err)
		}
		c.Players = make(map[string]Player, len(legacy))
		for _, p := range legacy {
			id := p.ID
			if id == "" {
				id = uuid.NewString()
			}
			c.Players[id] = p.Player
		}
	default:
		if err := json.Unmarshal(raw, &c.Players); err != nil {
			return err
		}
	}
	return nil
}

// Normalize allocates nil collections so that callers can mutate freely.
// Documents written by older clients may omit any of them.
func (c *Campaign) Normalize() {
	if c.Players == nil {
		c.Players = make(map[string]Player)
	}
	for id, p := range c.Players {
		if p.Cards == nil {
			p.Cards = make(map[string]OwnedCard)
			c.Players[id] = p
		}
	}
	if c.Cards == nil {
		c.Cards = []PlayingCard{}
	}
	if c.Packs == nil {
		c.Packs = []Pack{}
	}
	if c.Shop == nil {
		c.Shop = make(map[string]ShopItem)
	}
}

// Clone returns a deep copy of the campaign.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	out := &Campaign{
		Name:  c.Name,
		Cards: make([]PlayingCard, len(c.Cards)),
		Packs: make([]Pack, len(c.Packs)),
	}
	for i, card := range c.Cards {
		card.Tags = append([]string(nil), card.Tags...)
		out.Cards[i] = card
	}
	for i, p := range c.Packs {
		pool := make([]PoolEntry, len(p.CardPool))
		for j, e := range p.CardPool {
			if e.Weight != nil {
				w := *e.Weight
				e.Weight = &w
			}
			pool[j] = e
		}
		p.CardPool = pool
		out.Packs[i] = p
	}
	if c.Players != nil {
		out.Players = make(map[string]Player, len(c.Players))
		for id, p := range c.Players {
			cards := make(map[string]OwnedCard, len(p.Cards))
			for k, v := range p.Cards {
				cards[k] = v
			}
			p.Cards = cards
			out.Players[id] = p
		}
	}
	if c.Shop != nil {
		out.Shop = make(map[string]ShopItem, len(c.Shop))
		for k, v := range c.Shop {
			out.Shop[k] = v
		}
	}
	if c.CardShowcase != nil {
		out.CardShowcase = append([]string{}, c.CardShowcase...)
	}
	return out
}

// CardByID returns the card with the given id.
func (c *Campaign) CardByID(id string) (PlayingCard, bool) {
	for _, card := range c.Cards {
		if card.ID == id {
			return card, true
		}
	}
	return PlayingCard{}, false
}

// PackIndex returns the index of the pack with the given id, or -1.
func (c *Campaign) PackIndex(id string) int {
	for i, p := range c.Packs {
		if p.ID == id {
			return i
		}
	}
	return -1
}
