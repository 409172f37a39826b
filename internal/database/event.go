package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/deckforge/internal/store"
)

// Event is one persisted journal entry.
type Event struct {
	CampaignID string          `json:"campaign_id"`
	Operation  string          `json:"operation"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// InsertEvents writes a batch of journal entries in one transaction.
// Entries whose campaign id is not a UUID are skipped.
func InsertEvents(ctx context.Context, pool *pgxpool.Pool, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, ev := range events {
		id, err := uuid.Parse(ev.CampaignID)
		if err != nil {
			continue
		}
		payload := ev.Payload
		if len(payload) == 0 {
			payload = json.RawMessage(`{}`)
		}
		batch.Queue(
			`INSERT INTO campaign_events (campaign_id, operation, payload, occurred_at) VALUES ($1, $2, $3, $4)`,
			id, ev.Operation, []byte(payload), ev.OccurredAt,
		)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert campaign events: %w", err)
	}
	return batch.Len(), nil
}

// ListEvents returns the most recent journal entries of a campaign, newest first.
func ListEvents(ctx context.Context, pool *pgxpool.Pool, campaignID string, limit int) ([]Event, error) {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign id %q: %w", campaignID, store.ErrNotFound)
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := pool.Query(ctx, `
		SELECT operation, payload, occurred_at
		FROM campaign_events
		WHERE campaign_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		ev := Event{CampaignID: campaignID}
		var payload []byte
		if err := rows.Scan(&ev.Operation, &payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		ev.Payload = payload
		out = append(out, ev)
	}
	return out, rows.Err()
}

// EventLog binds the journal table functions to a pool.
type EventLog struct {
	pool *pgxpool.Pool
}

func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

func (l *EventLog) InsertEvents(ctx context.Context, events []Event) (int, error) {
	return InsertEvents(ctx, l.pool, events)
}

func (l *EventLog) ListEvents(ctx context.Context, campaignID string, limit int) ([]Event, error) {
	return ListEvents(ctx, l.pool, campaignID, limit)
}
