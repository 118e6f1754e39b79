package models

import "time"

// Outcome values stored on ledger rows. They are the durable, queryable
// record of how each event was disposed of, including events that were
// acknowledged without a domain mutation.
const (
	WebhookOutcomeApplied       = "applied"
	WebhookOutcomeMissingEntity = "missing_entity"
	WebhookOutcomeUnknownType   = "unknown_type"
	WebhookOutcomeStale         = "stale"
)

// WebhookEvent is the idempotency ledger. A row exists if and only if the
// event has been fully applied (or deliberately dropped); it is written in
// the same database transaction as the domain mutation, never mutated and
// never deleted. The unique (provider, provider_event_id) index is the only
// mutual exclusion against concurrent redelivery.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	LogRef          string     `gorm:"type:varchar(36);not null;index" json:"log_ref"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Outcome         string     `gorm:"type:varchar(32);not null;index" json:"outcome"`
	ProcessingNote  string     `gorm:"type:text" json:"processing_note"`
	OccurredAt      *time.Time `gorm:"type:timestamp;default:null" json:"occurred_at,omitempty"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ReceivedAt      time.Time  `gorm:"autoCreateTime;index" json:"received_at"`
}
