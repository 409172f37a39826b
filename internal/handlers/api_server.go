// internal/handlers/api_server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/database"
	"github.com/jason-s-yu/deckforge/internal/middleware"
	"github.com/sirupsen/logrus"
)

// EventLister reads the persisted mutation journal of a campaign.
type EventLister interface {
	ListEvents(ctx context.Context, campaignID string, limit int) ([]database.Event, error)
}

// APIServer serves the campaign JSON API and live subscriptions.
type APIServer struct {
	svc     *campaign.Service
	keys    *auth.Keys
	logger  *logrus.Logger
	limiter *middleware.RateLimiter
	events  EventLister
	origins []string
}

type ServerOption func(*APIServer)

// WithRateLimiter throttles every request through rl.
func WithRateLimiter(rl *middleware.RateLimiter) ServerOption {
	return func(s *APIServer) { s.limiter = rl }
}

// WithEvents exposes the persisted journal at /campaigns/{id}/events.
func WithEvents(events EventLister) ServerOption {
	return func(s *APIServer) { s.events = events }
}

// WithOriginPatterns lets pages on the given hosts open the websocket
// cross-origin. Patterns use path.Match syntax against the Origin host.
func WithOriginPatterns(patterns ...string) ServerOption {
	return func(s *APIServer) { s.origins = patterns }
}

func NewAPIServer(svc *campaign.Service, keys *auth.Keys, logger *logrus.Logger, opts ...ServerOption) *APIServer {
	s := &APIServer{
		svc:    svc,
		keys:   keys,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the server's handler with logging, rate limiting and
// token verification applied.
func (s *APIServer) Routes() http.Handler {
	dm := func(h http.HandlerFunc) http.HandlerFunc { return middleware.RequireRole(auth.RoleDM, h) }
	member := func(h http.HandlerFunc) http.HandlerFunc { return middleware.RequireRole(auth.RolePlayer, h) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /campaigns", s.listCampaigns)
	mux.HandleFunc("POST /campaigns", s.createCampaign)
	mux.HandleFunc("GET /campaigns/{id}", member(s.getCampaign))
	mux.HandleFunc("GET /campaigns/{id}/export", dm(s.exportCampaign))
	if s.events != nil {
		mux.HandleFunc("GET /campaigns/{id}/events", dm(s.listEvents))
	}

	mux.HandleFunc("GET /campaigns/{id}/cards", member(s.searchCards))
	mux.HandleFunc("GET /campaigns/{id}/tags", member(s.listFacets))
	mux.HandleFunc("PUT /campaigns/{id}/cards", dm(s.upsertCard))
	mux.HandleFunc("DELETE /campaigns/{id}/cards/{cardID}", dm(s.removeCard))

	mux.HandleFunc("PUT /campaigns/{id}/packs", dm(s.upsertPack))
	mux.HandleFunc("POST /campaigns/{id}/packs/{packID}/pool", dm(s.modifyPackContents))
	mux.HandleFunc("POST /campaigns/{id}/packs/{packID}/open", member(s.openPack))

	mux.HandleFunc("PUT /campaigns/{id}/players", dm(s.upsertPlayer))
	mux.HandleFunc("GET /campaigns/{id}/players/{playerID}/cards", member(s.playerInventory))
	mux.HandleFunc("POST /campaigns/{id}/players/{playerID}/cards", dm(s.modifyPlayerCards))
	mux.HandleFunc("POST /campaigns/{id}/players/{playerID}/cards/{cardKey}/usage", dm(s.addCardUsage))
	mux.HandleFunc("POST /campaigns/{id}/players/{playerID}/balance", dm(s.adjustBalance))
	mux.HandleFunc("POST /campaigns/{id}/players/{playerID}/token", dm(s.issuePlayerToken))

	mux.HandleFunc("GET /campaigns/{id}/shop", member(s.listShop))
	mux.HandleFunc("POST /campaigns/{id}/shop", dm(s.modifyShop))
	mux.HandleFunc("POST /campaigns/{id}/shop/{key}/buy", member(s.buyShopItem))

	mux.HandleFunc("PUT /campaigns/{id}/showcase", member(s.setCardShowcase))

	mux.HandleFunc("GET /campaigns/{id}/ws", member(s.campaignWS))

	var h http.Handler = mux
	h = middleware.Authenticate(s.keys, s.logger)(h)
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	return middleware.LogMiddleware(s.logger)(h)
}
