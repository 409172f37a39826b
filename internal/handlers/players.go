package handlers

import (
	"fmt"
	"net/http"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/catalog"
	"github.com/jason-s-yu/deckforge/internal/models"
)

type upsertPlayerRequest struct {
	ID string `json:"id"`
	models.Player
}

func (s *APIServer) upsertPlayer(w http.ResponseWriter, r *http.Request) {
	var req upsertPlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.svc.UpsertPlayer(r.Context(), r.PathValue("id"), req.ID, req.Player)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	idResponse(w, id)
}

// playerInventory serves a player's cards joined with the catalog.
func (s *APIServer) playerInventory(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	player, ok := c.Players[r.PathValue("playerID")]
	if !ok {
		s.fail(w, r, campaign.ErrPlayerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    player.Name,
		"balance": player.Balance,
		"cards":   catalog.Inventory(c.Cards, player),
	})
}

func (s *APIServer) modifyPlayerCards(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action campaign.Action `json:"action"`
		Key    string          `json:"key"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	key, err := s.svc.ModifyPlayerCards(r.Context(), r.PathValue("id"), r.PathValue("playerID"), req.Action, req.Key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	keyResponse(w, key)
}

type amountRequest struct {
	Amount *int `json:"amount"`
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (int, error) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return 0, err
	}
	if req.Amount == nil {
		return 0, fmt.Errorf("%w: amount is required", campaign.ErrInvalidInput)
	}
	return *req.Amount, nil
}

func (s *APIServer) addCardUsage(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.svc.AddCardUsage(r.Context(), r.PathValue("id"), r.PathValue("playerID"), r.PathValue("cardKey"), amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) adjustBalance(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.AdjustBalance(r.Context(), r.PathValue("id"), r.PathValue("playerID"), amount); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// issuePlayerToken lets the DM hand a player their access token.
func (s *APIServer) issuePlayerToken(w http.ResponseWriter, r *http.Request) {
	id, playerID := r.PathValue("id"), r.PathValue("playerID")
	c, err := s.svc.GetCampaign(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, ok := c.Players[playerID]; !ok {
		s.fail(w, r, campaign.ErrPlayerNotFound)
		return
	}
	token, err := s.keys.Issue(id, auth.RolePlayer, playerID)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to issue player token: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
