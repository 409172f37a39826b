package database

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to the database named by the PG_* variables. The
// tests are skipped when PG_HOST is unset.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set; skipping postgres tests")
	}
	ctx := context.Background()
	pool, err := ConnectDB(ctx, ConnString(
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	))
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))
	t.Cleanup(pool.Close)
	return pool
}

func TestCampaignStoreRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewCampaignStore(pool)

	id, err := s.Create(ctx, models.NewCampaign("Tomb of Annihilation"))
	require.NoError(t, err)

	err = s.Update(ctx, id, func(c *models.Campaign) error {
		c.Cards = append(c.Cards, models.PlayingCard{ID: "a", Name: "Acid Splash", Rarity: 4})
		c.Players["p1"] = models.Player{Name: "Ilsa", Balance: 12, Cards: map[string]models.OwnedCard{}}
		return nil
	})
	require.NoError(t, err)

	c, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tomb of Annihilation", c.Name)
	require.Len(t, c.Cards, 1)
	assert.Equal(t, 12, c.Players["p1"].Balance)

	err = s.Update(ctx, id, func(c *models.Campaign) error { return store.ErrNoChange })
	assert.ErrorIs(t, err, store.ErrNoChange)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, models.CampaignSummary{ID: id, Name: "Tomb of Annihilation"})
}

func TestCampaignStoreMissing(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewCampaignStore(pool)

	_, err := s.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Update(ctx, "00000000-0000-0000-0000-000000000000", func(*models.Campaign) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCampaignStoreSerializesWriters(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewCampaignStore(pool)

	id, err := s.Create(ctx, models.NewCampaign("race"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Update(ctx, id, func(c *models.Campaign) error {
				c.Cards = append(c.Cards, models.PlayingCard{Name: "x"})
				return nil
			}))
		}()
	}
	wg.Wait()

	c, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, c.Cards, 10)
}

func TestInsertAndListEvents(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewCampaignStore(pool)

	id, err := s.Create(ctx, models.NewCampaign("journal"))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	n, err := InsertEvents(ctx, pool, []Event{
		{CampaignID: id, Operation: "upsert_card", Payload: json.RawMessage(`{"cardId":"a"}`), OccurredAt: now},
		{CampaignID: id, Operation: "open_pack", OccurredAt: now.Add(time.Second)},
		{CampaignID: "garbage", Operation: "ignored", OccurredAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := ListEvents(ctx, pool, id, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "open_pack", events[0].Operation)
	assert.JSONEq(t, `{"cardId":"a"}`, string(events[1].Payload))
}

func TestCampaignStoreReadsLegacyPlayerArray(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewCampaignStore(pool)

	id := uuid.New()
	doc := `{"name":"Legacy","players":[{"id":"p1","name":"Ilsa","balance":3}],"cards":[],"packs":[]}`
	_, err := pool.Exec(ctx, `INSERT INTO campaigns (id, name, doc) VALUES ($1, $2, $3)`, id, "Legacy", []byte(doc))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Exec(context.Background(), `DELETE FROM campaigns WHERE id = $1`, id) })

	c, err := s.Get(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "Ilsa", c.Players["p1"].Name)

	// the next write stores the keyed shape
	require.NoError(t, s.Update(ctx, id.String(), func(c *models.Campaign) error {
		c.Name = "Legacy"
		c.Cards = append(c.Cards, models.PlayingCard{ID: "a", Name: "Acid Splash"})
		return nil
	}))
	var raw []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT doc FROM campaigns WHERE id = $1`, id).Scan(&raw))
	var stored struct {
		Players map[string]json.RawMessage `json:"players"`
	}
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Contains(t, stored.Players, "p1")
}
