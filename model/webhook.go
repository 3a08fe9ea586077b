package model

import "time"

// ProcessingStatus enumerates WebhookEvent.ProcessingStatus values.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// WebhookEvent is a persisted inbound event from the tracker's webhook
// delivery. EventID is the idempotency key and must be unique-constrained.
type WebhookEvent struct {
	Base

	EventID   string `gorm:"size:128;uniqueIndex;not null"`
	EventType string `gorm:"size:64;not null;index"`

	Payload JSONMap `gorm:"serializer:json"`

	ProcessingStatus ProcessingStatus `gorm:"size:16;not null;default:pending;index"`
	Attempts         int
	LastProcessedAt  *time.Time
	Error            string `gorm:"type:text"`

	ProcessedData JSONMap `gorm:"serializer:json"`
}

// MaxWebhookAttempts is the number of delivery attempts the worker retries
// before a failure is treated as terminal (spec.md section 4.6).
const MaxWebhookAttempts = 3
