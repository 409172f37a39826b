package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/store"
)

// CampaignStore keeps each campaign as one JSONB document.
type CampaignStore struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*CampaignStore)(nil)

func NewCampaignStore(pool *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

func (s *CampaignStore) Create(ctx context.Context, c *models.Campaign) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate campaign id: %w", err)
	}

	doc := c.Clone()
	doc.Normalize()
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal campaign: %w", err)
	}

	q := `INSERT INTO campaigns (id, name, doc) VALUES ($1, $2, $3)`
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, id, doc.Name, data)
		return execErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert campaign: %w", err)
	}
	return id.String(), nil
}

func (s *CampaignStore) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaignID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT doc FROM campaigns WHERE id = $1`, campaignID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %s: %w", id, err)
	}
	return decode(data)
}

func (s *CampaignStore) List(ctx context.Context) ([]models.CampaignSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM campaigns ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	out := []models.CampaignSummary{}
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, models.CampaignSummary{ID: id.String(), Name: name})
	}
	return out, rows.Err()
}

// Update locks the campaign row for the duration of the read-modify-write so
// concurrent writers queue up instead of overwriting each other.
func (s *CampaignStore) Update(ctx context.Context, id string, fn store.UpdateFunc) error {
	campaignID, err := uuid.Parse(id)
	if err != nil {
		return store.ErrNotFound
	}

	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var data []byte
		err := tx.QueryRow(ctx, `SELECT doc FROM campaigns WHERE id = $1 FOR UPDATE`, campaignID).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock campaign %s: %w", id, err)
		}

		c, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}

		out, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE campaigns SET doc = $2, name = $3, updated_at = now() WHERE id = $1`,
			campaignID, out, c.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to write campaign %s: %w", id, err)
		}
		return nil
	})
}

func decode(data []byte) (*models.Campaign, error) {
	var c models.Campaign
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode campaign document: %w", err)
	}
	c.Normalize()
	return &c, nil
}
