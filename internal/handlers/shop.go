package handlers

import (
	"net/http"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/catalog"
	"github.com/jason-s-yu/deckforge/internal/middleware"
)

func (s *APIServer) listShop(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Shop(c.Cards, c.Shop))
}

func (s *APIServer) modifyShop(w http.ResponseWriter, r *http.Request) {
	var action campaign.ShopAction
	if err := decodeJSON(w, r, &action); err != nil {
		s.fail(w, r, err)
		return
	}
	key, err := s.svc.ModifyShop(r.Context(), r.PathValue("id"), action)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if action.Type != campaign.ShopAdd {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	keyResponse(w, key)
}

// buyShopItem charges the buyer. Players always buy for themselves; the DM
// names the buyer in the body.
func (s *APIServer) buyShopItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	claims, _ := middleware.ClaimsFrom(r.Context())
	if claims.Role == auth.RolePlayer {
		req.PlayerID = claims.PlayerID()
	} else if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	purchase, err := s.svc.BuyShopItem(r.Context(), r.PathValue("id"), r.PathValue("key"), req.PlayerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}
