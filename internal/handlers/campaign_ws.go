// internal/handlers/campaign_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/catalog"
	"github.com/jason-s-yu/deckforge/internal/middleware"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	subprotocol  = "campaign"
	writeTimeout = 5 * time.Second
)

// Views a subscriber can ask for with ?view=.
const (
	ViewCampaign = "campaign"
	ViewPlayers  = "players"
	ViewCards    = "cards"
	ViewPacks    = "packs"
	ViewShowcase = "showcase"
	ViewShop     = "shop"
)

// WSMessage is the envelope of every message on a campaign socket.
type WSMessage struct {
	Type    string `json:"type"`
	View    string `json:"view,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// viewData extracts the part of a snapshot a view subscribes to. Card
// references are resolved against the catalog.
func viewData(view string, c *models.Campaign) (any, bool) {
	switch view {
	case ViewCampaign:
		return c, true
	case ViewPlayers:
		return c.Players, true
	case ViewCards:
		return c.Cards, true
	case ViewPacks:
		return c.Packs, true
	case ViewShowcase:
		return catalog.Resolve(c.Cards, c.CardShowcase), true
	case ViewShop:
		return catalog.Shop(c.Cards, c.Shop), true
	}
	return nil, false
}

// campaignWS upgrades to a websocket and streams snapshots of the campaign
// until either side goes away. Clients may send {"type":"ping"}.
func (s *APIServer) campaignWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view := r.URL.Query().Get("view")
	if view == "" {
		view = ViewCampaign
	}
	if _, ok := viewData(view, models.NewCampaign("")); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", view))
		return
	}
	claims, _ := middleware.ClaimsFrom(r.Context())

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{subprotocol},
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.WithField("campaign", id).WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.CloseNow()

	if c.Subprotocol() != subprotocol {
		c.Close(BadSubprotocolError, "client must use the 'campaign' subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, err := s.svc.Subscribe(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.Close(InvalidCampaignIDError, "campaign not found")
		return
	}
	if err != nil {
		s.logger.WithField("campaign", id).WithError(err).Error("failed to subscribe")
		c.Close(websocket.StatusInternalError, "subscription failed")
		return
	}

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path, id, view)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.pushSnapshots(gctx, c, claims, view, snapshots)
	})
	g.Go(func() error {
		return s.readCampaignMessages(gctx, c, id)
	})
	err = g.Wait()

	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, id, ignoreNormalClose(err))

	var closeErr closeError
	if !errors.As(err, &closeErr) {
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// closeError reports that the socket was closed with a specific code.
type closeError struct {
	code   websocket.StatusCode
	reason string
}

func (e closeError) Error() string {
	return fmt.Sprintf("websocket closed with %d: %s", e.code, e.reason)
}

// closeWith closes the socket while the reader may still be running, so the
// peer sees code rather than the close caused by cancelling the read.
func closeWith(c *websocket.Conn, code websocket.StatusCode, reason string) error {
	c.Close(code, reason)
	return closeError{code: code, reason: reason}
}

func ignoreNormalClose(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pushSnapshots writes every snapshot to the socket. It returns when the
// subscription ends, a write fails or the token expires.
func (s *APIServer) pushSnapshots(ctx context.Context, c *websocket.Conn, claims *auth.Claims, view string, snapshots <-chan *models.Campaign) error {
	var expired <-chan time.Time
	if claims != nil && claims.ExpiresAt != nil {
		timer := time.NewTimer(time.Until(claims.ExpiresAt.Time))
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-expired:
			return closeWith(c, InvalidAuthTokenError, "access token expired")
		case snapshot, ok := <-snapshots:
			if !ok {
				return ctx.Err()
			}
			if claims != nil && claims.Role == auth.RolePlayer {
				if _, member := snapshot.Players[claims.PlayerID()]; !member {
					return closeWith(c, InvalidPlayerIDError, "player is not part of this campaign")
				}
			}
			data, _ := viewData(view, snapshot)
			if err := writeWsMessage(ctx, c, WSMessage{Type: "snapshot", View: view, Data: data}); err != nil {
				return err
			}
		}
	}
}

// readCampaignMessages answers pings and rejects anything else. Clients are
// throttled to ten messages per second.
func (s *APIServer) readCampaignMessages(ctx context.Context, c *websocket.Conn, id string) error {
	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 10)
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if msgType != websocket.MessageText {
			s.logger.WithField("campaign", id).Debug("ignoring non-text websocket message")
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := writeWsMessage(ctx, c, WSMessage{Type: "error", Message: "invalid JSON format"}); err != nil {
				return err
			}
			continue
		}

		switch msg.Type {
		case "ping":
			s.logger.WithField("campaign", id).Trace("ping")
			err = writeWsMessage(ctx, c, WSMessage{Type: "pong"})
		default:
			s.logger.WithFields(logrus.Fields{"campaign": id, "type": msg.Type}).Debug("unknown websocket message")
			err = writeWsMessage(ctx, c, WSMessage{Type: "error", Message: fmt.Sprintf("unknown message type: %s", msg.Type)})
		}
		if err != nil {
			return err
		}
	}
}

// writeWsMessage marshals a message and sends it with a write timeout.
func writeWsMessage(ctx context.Context, c *websocket.Conn, msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal websocket message: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
