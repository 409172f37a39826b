package handlers

import "net/http"

func (s *APIServer) setCardShowcase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardIDs []string `json:"cardIds"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.SetCardShowcase(r.Context(), r.PathValue("id"), req.CardIDs); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
