package models

import "encoding/json"

// JournalRecord holds the minimal info the historian needs about one mutation.
type JournalRecord struct {
	CampaignID string          `json:"campaign_id"`
	Operation  string          `json:"operation"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp"` // epoch millis
}
