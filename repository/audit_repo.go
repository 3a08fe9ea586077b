package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/scullers68/sprintintel/model"
)

// AuditRepository persists the hash-chained SecurityEvent log.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository { return &AuditRepository{db: db} }

// LastEvent returns the most recently inserted event, or nil if the chain
// is empty (no prior event exists to link against).
func (r *AuditRepository) LastEvent(ctx context.Context) (*model.SecurityEvent, error) {
	var event model.SecurityEvent
	err := r.db.WithContext(ctx).Order("id DESC").First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateGormError(err, "security event")
	}
	return &event, nil
}

func (r *AuditRepository) SaveEvent(ctx context.Context, e *model.SecurityEvent) error {
	return translateGormError(r.db.WithContext(ctx).Save(e).Error, "security event")
}

func (r *AuditRepository) EventByID(ctx context.Context, id uint) (*model.SecurityEvent, error) {
	var event model.SecurityEvent
	err := r.db.WithContext(ctx).First(&event, id).Error
	if err != nil {
		return nil, translateGormError(err, "security event")
	}
	return &event, nil
}

func (r *AuditRepository) EventByChecksumBefore(ctx context.Context, checksum string, beforeID uint) (*model.SecurityEvent, error) {
	var event model.SecurityEvent
	err := r.db.WithContext(ctx).
		Where("checksum = ? AND id < ?", checksum, beforeID).
		Order("id DESC").
		First(&event).Error
	if err != nil {
		return nil, translateGormError(err, "security event")
	}
	return &event, nil
}

func (r *AuditRepository) EventsInRange(ctx context.Context, start, end time.Time) ([]model.SecurityEvent, error) {
	var events []model.SecurityEvent
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, translateGormError(err, "security events")
	}
	return events, nil
}

func (r *AuditRepository) EventsOrderedByID(ctx context.Context, start, end *time.Time) ([]model.SecurityEvent, error) {
	query := r.db.WithContext(ctx).Order("id ASC")
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}
	var events []model.SecurityEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, translateGormError(err, "security events")
	}
	return events, nil
}

func (r *AuditRepository) EventsPastRetention(ctx context.Context, asOf time.Time) ([]model.SecurityEvent, error) {
	var events []model.SecurityEvent
	err := r.db.WithContext(ctx).Where("retention_date <= ?", asOf).Find(&events).Error
	if err != nil {
		return nil, translateGormError(err, "security events")
	}
	return events, nil
}

func (r *AuditRepository) DeleteEvents(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return translateGormError(r.db.WithContext(ctx).Unscoped().Delete(&model.SecurityEvent{}, ids).Error, "security events")
}
