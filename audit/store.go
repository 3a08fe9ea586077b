// Package audit implements the tamper-evident, hash-chained security
// event log (section 4.9).
package audit

import (
	"context"
	"time"

	"github.com/scullers68/sprintintel/model"
)

// Store is the persistence boundary the audit log depends on.
type Store interface {
	LastEvent(ctx context.Context) (*model.SecurityEvent, error)
	SaveEvent(ctx context.Context, e *model.SecurityEvent) error
	EventByID(ctx context.Context, id uint) (*model.SecurityEvent, error)
	EventByChecksumBefore(ctx context.Context, checksum string, beforeID uint) (*model.SecurityEvent, error)
	EventsInRange(ctx context.Context, start, end time.Time) ([]model.SecurityEvent, error)
	EventsOrderedByID(ctx context.Context, start, end *time.Time) ([]model.SecurityEvent, error)
	EventsPastRetention(ctx context.Context, asOf time.Time) ([]model.SecurityEvent, error)
	DeleteEvents(ctx context.Context, ids []uint) error
}
