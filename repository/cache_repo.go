package repository

import (
	"context"
	"time"

	"github.com/scullers68/sprintintel/model"
)

// CacheRepository persists the read-optimized CachedSprint rows.
type CacheRepository struct {
	db *DB
}

// NewCacheRepository constructs a CacheRepository.
func NewCacheRepository(db *DB) *CacheRepository { return &CacheRepository{db: db} }

func (r *CacheRepository) ByTrackerSprintID(ctx context.Context, trackerSprintID int64) (*model.CachedSprint, error) {
	var cached model.CachedSprint
	err := r.db.WithContext(ctx).Where("tracker_sprint_id = ?", trackerSprintID).First(&cached).Error
	if err != nil {
		return nil, translateGormError(err, "cached sprint")
	}
	return &cached, nil
}

func (r *CacheRepository) Save(ctx context.Context, c *model.CachedSprint) error {
	return translateGormError(r.db.WithContext(ctx).Save(c).Error, "cached sprint")
}

// Invalidate marks trackerSprintID's cache entry stale by zeroing its
// fetch timestamp, if a row exists; a missing row is not an error since
// there is nothing to invalidate.
func (r *CacheRepository) Invalidate(ctx context.Context, trackerSprintID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.CachedSprint{}).
		Where("tracker_sprint_id = ?", trackerSprintID).
		Update("last_fetched_at", time.Time{})
	if result.Error != nil {
		return translateGormError(result.Error, "cached sprint")
	}
	return nil
}
