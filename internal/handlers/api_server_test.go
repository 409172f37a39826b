// internal/handlers/api_server_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/deckforge/internal/auth"
	"github.com/jason-s-yu/deckforge/internal/campaign"
	"github.com/jason-s-yu/deckforge/internal/packgen"
	"github.com/jason-s-yu/deckforge/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	api     *APIServer
	svc     *campaign.Service
	keys    *auth.Keys
	handler http.Handler
}

func newTestServer(t *testing.T, opts ...ServerOption) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	keys, err := auth.NewKeys(0)
	require.NoError(t, err)
	svc := campaign.NewService(store.NewMemory(), store.NewBroker(), campaign.WithLogger(logger))
	api := NewAPIServer(svc, keys, logger, opts...)
	return &testServer{api: api, svc: svc, keys: keys, handler: api.Routes()}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// createCampaign returns the new campaign's id and DM token.
func (ts *testServer) createCampaign(t *testing.T, name string) (string, string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/campaigns", "", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[map[string]string](t, w)
	return resp["id"], resp["token"]
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("x: %w", campaign.ErrPackNotFound), http.StatusNotFound},
		{campaign.ErrDuplicateName, http.StatusConflict},
		{campaign.ErrCardInPack, http.StatusConflict},
		{campaign.ErrInvalidInput, http.StatusBadRequest},
		{campaign.ErrInsufficientBalance, http.StatusPaymentRequired},
		{fmt.Errorf("pack: %w", packgen.ErrEmptyPool), http.StatusUnprocessableEntity},
		{fmt.Errorf("pack: %w", packgen.ErrWeightTooLarge), http.StatusUnprocessableEntity},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{auth.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestCreateAndListCampaigns(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/campaigns", "", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id, token := ts.createCampaign(t, "Greyhawk")
	require.NotEmpty(t, token)

	w = ts.do(t, http.MethodGet, "/campaigns", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]string](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	w = ts.do(t, http.MethodGet, "/campaigns/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/campaigns/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Greyhawk", decode[map[string]any](t, w)["name"])
}

func TestMissingCampaign(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.keys.Issue("00000000-0000-0000-0000-000000000000", auth.RoleDM, "")
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/campaigns/00000000-0000-0000-0000-000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCardsAndCatalog(t *testing.T) {
	ts := newTestServer(t)
	id, dm := ts.createCampaign(t, "Greyhawk")

	w := ts.do(t, http.MethodPut, "/campaigns/"+id+"/cards", dm, map[string]any{
		"name": "Fireball", "rarity": 2, "type": "Spell", "description": "Big boom", "usage": 1, "tags": []string{"Fire"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cardID := decode[map[string]string](t, w)["id"]

	w = ts.do(t, http.MethodPut, "/campaigns/"+id+"/cards", dm, map[string]any{"name": "Fireball"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPut, "/campaigns/"+id+"/cards", dm, map[string]any{"name": "Cure Wounds", "rarity": 4, "type": "Spell"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/campaigns/"+id+"/cards?search=FIRE&sort=name", dm, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Cards []map[string]any `json:"cards"`
		Total int              `json:"total"`
	}](t, w)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, cardID, page.Cards[0]["id"])

	w = ts.do(t, http.MethodGet, "/campaigns/"+id+"/cards?rarity=rare", dm, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/campaigns/"+id+"/tags", dm, nil)
	require.Equal(t, http.StatusOK, w.Code)
	facets := decode[map[string][]string](t, w)
	assert.Contains(t, facets["tags"], "Fire")
	assert.Equal(t, []string{"Spell"}, facets["types"])

	w = ts.do(t, http.MethodDelete, "/campaigns/"+id+"/cards/"+cardID, dm, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPlayerFlow(t *testing.T) {
	ts := newTestServer(t)
	id, dm := ts.createCampaign(t, "Greyhawk")
	base := "/campaigns/" + id

	w := ts.do(t, http.MethodPut, base+"/cards", dm, map[string]any{"name": "Fireball", "rarity": 2, "usage": 3})
	require.Equal(t, http.StatusOK, w.Code)
	cardID := decode[map[string]string](t, w)["id"]

	w = ts.do(t, http.MethodPut, base+"/packs", dm, map[string]any{"name": "Starter", "price": 10, "cardsPerPack": 2})
	require.Equal(t, http.StatusOK, w.Code)
	packID := decode[map[string]string](t, w)["id"]

	w = ts.do(t, http.MethodPost, base+"/packs/"+packID+"/open", dm, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(t, http.MethodPost, base+"/packs/"+packID+"/pool", dm, map[string]string{"cardId": cardID, "action": "add"})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodPost, base+"/packs/"+packID+"/pool", dm, map[string]string{"cardId": cardID, "action": "add"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPut, base+"/players", dm, map[string]any{"name": "Tenser", "balance": 15})
	require.Equal(t, http.StatusOK, w.Code)
	playerID := decode[map[string]string](t, w)["id"]

	w = ts.do(t, http.MethodPost, base+"/players/"+playerID+"/token", dm, nil)
	require.Equal(t, http.StatusOK, w.Code)
	player := decode[map[string]string](t, w)["token"]

	// Players cannot run DM operations.
	w = ts.do(t, http.MethodPut, base+"/cards", player, map[string]any{"name": "Wish"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, base+"/packs/"+packID+"/open", player, map[string]any{"charge": true, "showcase": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	opening := decode[campaign.Opening](t, w)
	assert.Equal(t, []string{cardID, cardID}, opening.CardIDs)
	require.NotNil(t, opening.Balance)
	assert.Equal(t, 5, *opening.Balance)

	w = ts.do(t, http.MethodPost, base+"/packs/"+packID+"/open", player, map[string]any{"playerId": "someone-else", "charge": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, base+"/packs/"+packID+"/open", player, map[string]any{"charge": true})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = ts.do(t, http.MethodPost, base+"/shop", dm, map[string]any{"type": "add", "payload": map[string]any{"cardId": cardID, "price": 5}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	shopKey := decode[map[string]string](t, w)["key"]

	w = ts.do(t, http.MethodGet, base+"/shop", player, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = ts.do(t, http.MethodPost, base+"/shop/"+shopKey+"/buy", player, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	purchase := decode[campaign.Purchase](t, w)
	assert.Equal(t, 0, purchase.Balance)

	w = ts.do(t, http.MethodPost, base+"/shop/"+shopKey+"/buy", player, nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = ts.do(t, http.MethodPost, base+"/players/"+playerID+"/cards/"+purchase.InventoryKey+"/usage", dm, map[string]int{"amount": 2})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodPost, base+"/players/"+playerID+"/balance", dm, map[string]int{"amount": 7})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodPost, base+"/players/"+playerID+"/balance", dm, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, base+"/players/"+playerID+"/cards", player, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inventory := decode[struct {
		Balance int `json:"balance"`
		Cards   []struct {
			Key       string `json:"key"`
			TimesUsed int    `json:"timesUsed"`
			Remaining *int   `json:"remaining"`
		} `json:"cards"`
	}](t, w)
	assert.Equal(t, 7, inventory.Balance)
	require.Len(t, inventory.Cards, 1)
	assert.Equal(t, 2, inventory.Cards[0].TimesUsed)
	require.NotNil(t, inventory.Cards[0].Remaining)
	assert.Equal(t, 1, *inventory.Cards[0].Remaining)

	w = ts.do(t, http.MethodPut, base+"/showcase", player, map[string]any{"cardIds": []string{}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	c, err := ts.svc.GetCampaign(t.Context(), id)
	require.NoError(t, err)
	assert.Empty(t, c.CardShowcase)
}

func TestNestedMutationOnMissingPlayer(t *testing.T) {
	ts := newTestServer(t)
	id, dm := ts.createCampaign(t, "Greyhawk")

	w := ts.do(t, http.MethodPost, "/campaigns/"+id+"/players/ghost/balance", dm, map[string]int{"amount": 5})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodPost, "/campaigns/"+id+"/players/ghost/cards", dm, map[string]string{"action": "add", "key": "card"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodPost, "/campaigns/"+id+"/players/ghost/token", dm, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPut, "/campaigns/"+id+"/players", dm, map[string]any{"id": "ghost", "name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	id, dm := ts.createCampaign(t, "Curse of Strahd!")

	w := ts.do(t, http.MethodGet, "/campaigns/"+id+"/export", dm, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Curse_of_Strahd.json"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Curse of Strahd!", decode[map[string]any](t, w)["name"])
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "campaign.json", exportFilename("!!!"))
	assert.Equal(t, "Greyhawk.json", exportFilename("Greyhawk"))
	assert.Equal(t, "a_b.json", exportFilename("a/b"))
}
