package handlers

import (
	"net/http"

	"github.com/jason-s-yu/deckforge/internal/catalog"
	"github.com/jason-s-yu/deckforge/internal/models"
)

// searchCards serves a filtered, sorted page of the catalog.
func (s *APIServer) searchCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.Query{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Type:     q.Get("type"),
		Tag:      q.Get("tag"),
		Sort:     q.Get("sort"),
	}
	var err error
	if query.Rarity, err = queryInt(r, "rarity"); err != nil {
		s.fail(w, r, err)
		return
	}
	if query.Page, err = queryInt(r, "page"); err != nil {
		s.fail(w, r, err)
		return
	}
	if query.PageSize, err = queryInt(r, "pageSize"); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.svc.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Search(c.Cards, query))
}

func (s *APIServer) listFacets(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.CollectFacets(c.Cards))
}

func (s *APIServer) upsertCard(w http.ResponseWriter, r *http.Request) {
	var card models.PlayingCard
	if err := decodeJSON(w, r, &card); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.svc.UpsertCard(r.Context(), r.PathValue("id"), card)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	idResponse(w, id)
}

func (s *APIServer) removeCard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveCard(r.Context(), r.PathValue("id"), r.PathValue("cardID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
