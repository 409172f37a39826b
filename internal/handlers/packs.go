package handlers

import (
	"net/http"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/middleware"
	"github.com/jason-s-yu/deckforge/internal/models"
)

func (s *APIServer) upsertPack(w http.ResponseWriter, r *http.Request) {
	var pack models.Pack
	if err := decodeJSON(w, r, &pack); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.svc.UpsertPack(r.Context(), r.PathValue("id"), pack)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	idResponse(w, id)
}

func (s *APIServer) modifyPackContents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardID string          `json:"cardId"`
		Action campaign.Action `json:"action"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	err := s.svc.ModifyPackContents(r.Context(), r.PathValue("id"), r.PathValue("packID"), req.CardID, req.Action)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type openPackRequest struct {
	PlayerID string   `json:"playerId"`
	Charge   bool     `json:"charge"`
	Showcase bool     `json:"showcase"`
	Random   *float64 `json:"random"`
}

// openPack draws a pack. Players can only charge themselves, and only the
// DM may fix the random draw.
func (s *APIServer) openPack(w http.ResponseWriter, r *http.Request) {
	req := openPackRequest{}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	if claims.Role == auth.RolePlayer {
		if req.PlayerID != "" && req.PlayerID != claims.PlayerID() {
			writeError(w, http.StatusForbidden, "players can only open packs for themselves")
			return
		}
		req.PlayerID = claims.PlayerID()
		req.Random = nil
	}

	opening, err := s.svc.OpenPack(r.Context(), r.PathValue("id"), r.PathValue("packID"), campaign.OpenOptions{
		PlayerID: req.PlayerID,
		Charge:   req.Charge,
		Showcase: req.Showcase,
		Random:   req.Random,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opening)
}
