package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/sirupsen/logrus"
)

// UpsertPlayer replaces the player stored under playerID, or creates a new
// player when playerID is empty. A player sent without an inventory keeps
// the one already stored. The player's id is returned.
func (s *Service) UpsertPlayer(ctx context.Context, id, playerID string, player models.Player) (string, error) {
	player.Name = strings.TrimSpace(player.Name)
	if player.Name == "" {
		return "", fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	payload := map[string]any{"playerId": playerID, "name": player.Name, "balance": player.Balance}
	err := s.mutate(ctx, id, OpUpsertPlayer, payload, func(c *models.Campaign) error {
		if playerID == "" {
			playerID = uuid.NewString()
			payload["playerId"] = playerID
			if player.Cards == nil {
				player.Cards = make(map[string]models.OwnedCard)
			}
			c.Players[playerID] = player
			return nil
		}

		existing, ok := c.Players[playerID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}
		if player.Cards == nil {
			player.Cards = existing.Cards
		}
		c.Players[playerID] = player
		return nil
	})
	if err != nil {
		return "", err
	}
	return playerID, nil
}

// ModifyPlayerCards adds a card to a player's inventory under a fresh
// inventory key, or removes the inventory entry named by key. For ActionAdd
// key is the card id and the new inventory key is returned. A missing player
// leaves the campaign untouched.
func (s *Service) ModifyPlayerCards(ctx context.Context, id, playerID string, action Action, key string) (string, error) {
	if !action.valid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	if key == "" {
		return "", fmt.Errorf("%w: a card key is required", ErrInvalidInput)
	}

	var newKey string
	payload := map[string]string{"playerId": playerID, "action": string(action), "key": key}
	err := s.mutate(ctx, id, OpModifyPlayerCards, payload, func(c *models.Campaign) error {
		player, ok := c.Players[playerID]
		if !ok {
			return s.skip(id, OpModifyPlayerCards, "player not found", logrus.Fields{"player": playerID})
		}

		switch action {
		case ActionAdd:
			newKey = uuid.NewString()
			player.Cards[newKey] = models.OwnedCard{CardID: key}
			payload["inventoryKey"] = newKey
		case ActionRemove:
			if _, ok := player.Cards[key]; !ok {
				return s.skip(id, OpModifyPlayerCards, "inventory card not found", logrus.Fields{"player": playerID, "key": key})
			}
			delete(player.Cards, key)
		}
		c.Players[playerID] = player
		return nil
	})
	if err != nil {
		return "", err
	}
	return newKey, nil
}

// AddCardUsage records amount uses of an owned card. Negative amounts undo
// uses; the count never drops below zero.
func (s *Service) AddCardUsage(ctx context.Context, id, playerID, cardKey string, amount int) error {
	payload := map[string]any{"playerId": playerID, "key": cardKey, "amount": amount}
	return s.mutate(ctx, id, OpAddCardUsage, payload, func(c *models.Campaign) error {
		player, ok := c.Players[playerID]
		if !ok {
			return s.skip(id, OpAddCardUsage, "player not found", logrus.Fields{"player": playerID})
		}
		owned, ok := player.Cards[cardKey]
		if !ok {
			return s.skip(id, OpAddCardUsage, "inventory card not found", logrus.Fields{"player": playerID, "key": cardKey})
		}
		owned.TimesUsed = max(owned.TimesUsed+amount, 0)
		player.Cards[cardKey] = owned
		c.Players[playerID] = player
		return nil
	})
}

// AdjustBalance adds amount (possibly negative) to a player's balance.
func (s *Service) AdjustBalance(ctx context.Context, id, playerID string, amount int) error {
	payload := map[string]any{"playerId": playerID, "amount": amount}
	return s.mutate(ctx, id, OpAdjustBalance, payload, func(c *models.Campaign) error {
		player, ok := c.Players[playerID]
		if !ok {
			return s.skip(id, OpAdjustBalance, "player not found", logrus.Fields{"player": playerID})
		}
		player.Balance += amount
		c.Players[playerID] = player
		return nil
	})
}
