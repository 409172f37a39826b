package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/deckforge/internal/models"
)

// Memory is a Store that keeps campaigns in process memory.
type Memory struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
}

func NewMemory() *Memory {
	return &Memory{
		campaigns: make(map[string]*models.Campaign),
	}
}

func (m *Memory) Create(_ context.Context, c *models.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	doc := c.Clone()
	doc.Normalize()
	m.campaigns[id] = doc
	return id, nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *Memory) List(_ context.Context) ([]models.CampaignSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.CampaignSummary, 0, len(m.campaigns))
	for id, c := range m.campaigns {
		out = append(out, models.CampaignSummary{ID: id, Name: c.Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	current, ok := m.campaigns[id]
	if !ok {
		return ErrNotFound
	}

	working := current.Clone()
	working.Normalize()
	if err := fn(working); err != nil {
		if errors.Is(err, ErrNoChange) {
			return ErrNoChange
		}
		return err
	}
	m.campaigns[id] = working
	return nil
}
