package sync

import (
	"context"
	"time"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// ConflictResolver applies a resolution strategy to an unresolved
// ConflictResolution row (section 4.4).
type ConflictResolver struct {
	store Store
	now   func() time.Time
}

// NewConflictResolver constructs a ConflictResolver.
func NewConflictResolver(store Store) *ConflictResolver {
	return &ConflictResolver{store: store, now: time.Now}
}

// ResolveConflict resolves conflictID per strategy. local-wins and
// remote-wins derive resolved-value automatically; manual requires the
// caller to supply resolvedValue; merge is not auto-applied and always
// returns an Internal error, so a pre-merged value goes through manual.
func (r *ConflictResolver) ResolveConflict(ctx context.Context, conflictID uint, strategy model.ResolutionStrategy, resolvedValue *string, notes string) (*model.ConflictResolution, error) {
	conflict, err := r.store.ConflictResolutionByID(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case model.StrategyLocalWins:
		conflict.ResolvedValue = conflict.LocalValue
	case model.StrategyRemoteWins:
		conflict.ResolvedValue = conflict.RemoteValue
	case model.StrategyManual:
		if resolvedValue == nil || *resolvedValue == "" {
			return nil, errs.Validation("resolved_value required")
		}
		conflict.ResolvedValue = *resolvedValue
	case model.StrategyMerge:
		return nil, errs.Internal("merge strategy has no automatic application; supply resolved_value via the manual path", nil)
	default:
		return nil, errs.Validation("unknown resolution strategy")
	}

	conflict.ResolutionStrategy = strategy
	conflict.Notes = notes
	conflict.Resolved = true
	now := r.now()
	conflict.ResolvedAt = &now

	if err := r.store.SaveConflictResolution(ctx, conflict); err != nil {
		return nil, err
	}
	return conflict, nil
}
