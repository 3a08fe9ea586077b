// Package sync implements the bidirectional, content-hash-driven sync
// engine and its conflict resolver.
package sync

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// Store is the persistence boundary the sync engine depends on.
type Store interface {
	SprintByTrackerID(ctx context.Context, trackerSprintID int64) (*model.Sprint, error)
	SaveSprint(ctx context.Context, s *model.Sprint) error
	SprintsByBoard(ctx context.Context, boardID int64) ([]model.Sprint, error)

	SyncMetadataFor(ctx context.Context, entityType model.EntityType, entityID uint) (*model.SyncMetadata, error)
	SaveSyncMetadata(ctx context.Context, m *model.SyncMetadata) error

	SaveSyncHistory(ctx context.Context, h *model.SyncHistory) error
	LatestSuccessfulSyncHistory(ctx context.Context, opType model.OperationType) (*model.SyncHistory, error)

	SaveConflictResolution(ctx context.Context, c *model.ConflictResolution) error
	ConflictResolutionByID(ctx context.Context, id uint) (*model.ConflictResolution, error)
}
