// Package store defines how campaign documents are persisted and how changes
// to them are announced.
package store

import (
	"context"
	"errors"

	"github.com/jason-s-yu/deckforge/internal/models"
)

var (
	// ErrNotFound is returned when a campaign document does not exist.
	ErrNotFound = errors.New("campaign not found")

	// ErrNoChange may be returned by an UpdateFunc to abandon the update
	// without writing anything.
	ErrNoChange = errors.New("no change")
)

// UpdateFunc mutates a campaign in place. The campaign is a private copy,
// normalized so that none of its collections are nil.
type UpdateFunc func(c *models.Campaign) error

// Store persists one document per campaign.
type Store interface {
	Create(ctx context.Context, c *models.Campaign) (string, error)
	Get(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context) ([]models.CampaignSummary, error)

	// Update reads the campaign, applies fn and writes the whole document
	// back. Updates to the same campaign do not interleave. If fn returns
	// ErrNoChange, Update returns ErrNoChange and nothing is written.
	Update(ctx context.Context, id string, fn UpdateFunc) error
}

// Notifier announces that a campaign changed. Notifications carry no
// payload; subscribers re-read the document.
type Notifier interface {
	Publish(ctx context.Context, id string) error

	// Subscribe returns a channel that receives a value after every change
	// to the campaign, coalescing bursts, until ctx is done or the returned
	// cancel func is called.
	Subscribe(ctx context.Context, id string) (<-chan struct{}, func(), error)
}
