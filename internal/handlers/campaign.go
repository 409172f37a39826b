package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jason-s-yu/deckforge/internal/auth"
)

func (s *APIServer) listCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListCampaigns(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// createCampaign stores a new campaign and hands its creator the DM token.
func (s *APIServer) createCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	id, err := s.svc.CreateCampaign(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	token, err := s.keys.Issue(id, auth.RoleDM, "")
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to issue dm token: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "token": token})
}

func (s *APIServer) getCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// exportFilename turns a campaign name into a safe download name.
func exportFilename(name string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "_.")
	if base == "" {
		base = "campaign"
	}
	return base + ".json"
}

func (s *APIServer) exportCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(c.Name)))
	writeJSON(w, http.StatusOK, c)
}

func (s *APIServer) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, err := s.events.ListEvents(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// idResponse answers an upsert with the id of the stored element.
func idResponse(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// keyResponse answers a mutation that may have been skipped: an empty key
// means nothing changed.
func keyResponse(w http.ResponseWriter, key string) {
	if key == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

