package repository

import (
	"context"
	"time"

	"github.com/scullers68/sprintintel/model"
)

// WebhookRepository persists WebhookEvent rows.
type WebhookRepository struct {
	db *DB
}

// NewWebhookRepository constructs a WebhookRepository.
func NewWebhookRepository(db *DB) *WebhookRepository { return &WebhookRepository{db: db} }

func (r *WebhookRepository) EventByEventID(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, translateGormError(err, "webhook event")
	}
	return &event, nil
}

func (r *WebhookRepository) SaveEvent(ctx context.Context, e *model.WebhookEvent) error {
	return translateGormError(r.db.WithContext(ctx).Save(e).Error, "webhook event")
}

func (r *WebhookRepository) EventByID(ctx context.Context, id uint) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).First(&event, id).Error
	if err != nil {
		return nil, translateGormError(err, "webhook event")
	}
	return &event, nil
}

func (r *WebhookRepository) RecentFailedEvents(ctx context.Context, maxAttempts int, since time.Time, limit int) ([]model.WebhookEvent, error) {
	var events []model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("processing_status IN ? AND attempts < ? AND created_at >= ?", []model.ProcessingStatus{model.ProcessingPending, model.ProcessingFailed}, maxAttempts, since).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, translateGormError(err, "webhook events")
	}
	return events, nil
}

func (r *WebhookRepository) DeleteTerminalEventsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("processing_status IN ? AND created_at < ?", []model.ProcessingStatus{model.ProcessingCompleted, model.ProcessingFailed}, cutoff).
		Delete(&model.WebhookEvent{})
	if result.Error != nil {
		return 0, translateGormError(result.Error, "webhook events")
	}
	return result.RowsAffected, nil
}
