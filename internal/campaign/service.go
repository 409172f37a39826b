// Package campaign implements the operations DMs and players perform on a
// campaign document. Every mutation reads the whole document, changes it in
// memory and writes it back, then announces the change to subscribers.
package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/deckforge/internal/models"
	"github.com/jason-s-yu/deckforge/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateName       = errors.New("name already in use")
	ErrCardInPack          = errors.New("card is already in the pack")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPackNotFound        = errors.New("pack not found")
	ErrShopItemNotFound    = errors.New("shop item not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidInput        = errors.New("invalid input")
)

// Operation names, as recorded in the journal.
const (
	OpCreateCampaign     = "create_campaign"
	OpUpsertCard         = "upsert_card"
	OpRemoveCard         = "remove_card"
	OpUpsertPack         = "upsert_pack"
	OpModifyPackContents = "modify_pack_contents"
	OpUpsertPlayer       = "upsert_player"
	OpModifyPlayerCards  = "modify_player_cards"
	OpAddCardUsage       = "add_card_usage"
	OpAdjustBalance      = "adjust_balance"
	OpModifyShop         = "modify_shop"
	OpBuyShopItem        = "buy_shop_item"
	OpSetCardShowcase    = "set_card_showcase"
	OpOpenPack           = "open_pack"
)

// Journal receives a record of every successful mutation.
type Journal interface {
	Record(ctx context.Context, record models.JournalRecord) error
}

// Service runs campaign operations against a Store.
type Service struct {
	store    store.Store
	notifier store.Notifier
	journal  Journal
	log      *logrus.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithJournal records every mutation in j.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(st store.Store, n store.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: n,
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutate runs fn as one read-modify-write of the campaign. A fn returning
// store.ErrNoChange turns the operation into a silent no-op.
func (s *Service) mutate(ctx context.Context, id, op string, payload any, fn store.UpdateFunc) error {
	err := s.store.Update(ctx, id, fn)
	if errors.Is(err, store.ErrNoChange) {
		s.log.WithFields(logrus.Fields{
			"campaign":  id,
			"operation": op,
		}).Debug("mutation left campaign unchanged")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.changed(ctx, id, op, payload)
	return nil
}

// changed announces a committed mutation. Failures here are logged, not
// returned: the write itself already succeeded.
func (s *Service) changed(ctx context.Context, id, op string, payload any) {
	fields := logrus.Fields{"campaign": id, "operation": op}

	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, id); err != nil {
			s.log.WithFields(fields).WithError(err).Warn("failed to publish campaign change")
		}
	}

	if s.journal == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("failed to encode journal payload")
		data = nil
	}
	record := models.JournalRecord{
		CampaignID: id,
		Operation:  op,
		Payload:    data,
		Timestamp:  s.now().UnixMilli(),
	}
	if err := s.journal.Record(ctx, record); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("failed to journal campaign change")
	}
}

// skip logs why a nested mutation did nothing and abandons the write.
func (s *Service) skip(id, op, reason string, fields logrus.Fields) error {
	s.log.WithFields(fields).WithFields(logrus.Fields{
		"campaign":  id,
		"operation": op,
	}).Warn(reason)
	return store.ErrNoChange
}

// CreateCampaign stores a new empty campaign and returns its id.
func (s *Service) CreateCampaign(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: campaign name is required", ErrInvalidInput)
	}
	id, err := s.store.Create(ctx, models.NewCampaign(name))
	if err != nil {
		return "", fmt.Errorf("%s: %w", OpCreateCampaign, err)
	}
	s.changed(ctx, id, OpCreateCampaign, map[string]string{"name": name})
	return id, nil
}

func (s *Service) ListCampaigns(ctx context.Context) ([]models.CampaignSummary, error) {
	return s.store.List(ctx)
}

func (s *Service) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	return s.store.Get(ctx, id)
}

// Export returns the full campaign snapshot for download.
func (s *Service) Export(ctx context.Context, id string) (*models.Campaign, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithField("campaign", id).Info("campaign exported")
	return c, nil
}
