package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/sirupsen/logrus"
)

// ShopActionType names a change to the shop.
type ShopActionType string

const (
	ShopAdd    ShopActionType = "add"
	ShopUpdate ShopActionType = "update"
	ShopRemove ShopActionType = "remove"
)

// ShopAction describes one change to the shop. Add needs Payload, remove
// needs Key, update needs both.
type ShopAction struct {
	Type    ShopActionType   `json:"type"`
	Key     string           `json:"key,omitempty"`
	Payload *models.ShopItem `json:"payload,omitempty"`
}

func (a ShopAction) validate() error {
	switch a.Type {
	case ShopAdd:
		if a.Payload == nil || a.Payload.CardID == "" {
			return fmt.Errorf("%w: adding to the shop needs a card", ErrInvalidInput)
		}
	case ShopUpdate:
		if a.Payload == nil || a.Key == "" {
			return fmt.Errorf("%w: updating the shop needs a key and a payload", ErrInvalidInput)
		}
	case ShopRemove:
		if a.Key == "" {
			return fmt.Errorf("%w: removing from the shop needs a key", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown shop action %q", ErrInvalidInput, a.Type)
	}
	if a.Payload != nil && a.Payload.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

// ModifyShop applies a shop action. For ShopAdd the new shop key is returned.
func (s *Service) ModifyShop(ctx context.Context, id string, action ShopAction) (string, error) {
	if err := action.validate(); err != nil {
		return "", err
	}

	key := action.Key
	err := s.mutate(ctx, id, OpModifyShop, &action, func(c *models.Campaign) error {
		switch action.Type {
		case ShopAdd:
			key = uuid.NewString()
			action.Key = key
			c.Shop[key] = *action.Payload
		case ShopUpdate:
			existing, ok := c.Shop[key]
			if !ok {
				return s.skip(id, OpModifyShop, "shop item not found", logrus.Fields{"key": key})
			}
			if action.Payload.CardID != "" {
				existing.CardID = action.Payload.CardID
			}
			existing.Price = action.Payload.Price
			c.Shop[key] = existing
		case ShopRemove:
			if _, ok := c.Shop[key]; !ok {
				return s.skip(id, OpModifyShop, "shop item not found", logrus.Fields{"key": key})
			}
			delete(c.Shop, key)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Purchase is the result of buying from the shop.
type Purchase struct {
	InventoryKey string `json:"inventoryKey"`
	CardID       string `json:"cardId"`
	Balance      int    `json:"balance"`
}

// BuyShopItem charges a player the item's price and adds the card to their
// inventory. The item stays in the shop.
func (s *Service) BuyShopItem(ctx context.Context, id, key, playerID string) (*Purchase, error) {
	var purchase *Purchase
	payload := map[string]string{"key": key, "playerId": playerID}
	err := s.mutate(ctx, id, OpBuyShopItem, payload, func(c *models.Campaign) error {
		item, ok := c.Shop[key]
		if !ok {
			return ErrShopItemNotFound
		}
		player, ok := c.Players[playerID]
		if !ok {
			return ErrPlayerNotFound
		}
		if player.Balance < item.Price {
			return fmt.Errorf("%w: item costs %d, balance is %d", ErrInsufficientBalance, item.Price, player.Balance)
		}

		player.Balance -= item.Price
		inventoryKey := uuid.NewString()
		player.Cards[inventoryKey] = models.OwnedCard{CardID: item.CardID}
		c.Players[playerID] = player

		purchase = &Purchase{InventoryKey: inventoryKey, CardID: item.CardID, Balance: player.Balance}
		payload["inventoryKey"] = inventoryKey
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}
