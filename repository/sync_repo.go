package repository

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// SyncRepository persists SyncMetadata, SyncHistory, and
// ConflictResolution rows, combined with SprintRepository to satisfy
// sync.Store.
type SyncRepository struct {
	db *DB
	*SprintRepository
}

// NewSyncRepository constructs a SyncRepository.
func NewSyncRepository(db *DB) *SyncRepository {
	return &SyncRepository{db: db, SprintRepository: NewSprintRepository(db)}
}

func (r *SyncRepository) SyncMetadataFor(ctx context.Context, entityType model.EntityType, entityID uint) (*model.SyncMetadata, error) {
	var meta model.SyncMetadata
	err := r.db.WithContext(ctx).Where("entity_type = ? AND entity_id = ?", entityType, entityID).First(&meta).Error
	if err != nil {
		return nil, translateGormError(err, "sync metadata")
	}
	return &meta, nil
}

func (r *SyncRepository) SaveSyncMetadata(ctx context.Context, m *model.SyncMetadata) error {
	return translateGormError(r.db.WithContext(ctx).Save(m).Error, "sync metadata")
}

func (r *SyncRepository) SaveSyncHistory(ctx context.Context, h *model.SyncHistory) error {
	return translateGormError(r.db.WithContext(ctx).Save(h).Error, "sync history")
}

func (r *SyncRepository) LatestSuccessfulSyncHistory(ctx context.Context, opType model.OperationType) (*model.SyncHistory, error) {
	var history model.SyncHistory
	err := r.db.WithContext(ctx).
		Where("operation_type = ? AND status = ?", opType, model.BatchCompleted).
		Order("created_at DESC").
		First(&history).Error
	if err != nil {
		return nil, translateGormError(err, "sync history")
	}
	return &history, nil
}

func (r *SyncRepository) SaveConflictResolution(ctx context.Context, c *model.ConflictResolution) error {
	return translateGormError(r.db.WithContext(ctx).Save(c).Error, "conflict resolution")
}

func (r *SyncRepository) ConflictResolutionByID(ctx context.Context, id uint) (*model.ConflictResolution, error) {
	var c model.ConflictResolution
	err := r.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		return nil, translateGormError(err, "conflict resolution")
	}
	return &c, nil
}
