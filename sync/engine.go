package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
	"github.com/scullers68/sprintintel/trackerclient"
)

// Tracker is the subset of trackerclient.Client the sync engine needs,
// narrowed for testability.
type Tracker interface {
	GetSprints(ctx context.Context, boardID int64) ([]trackerclient.SprintDTO, error)
	GetBoards(ctx context.Context, projectKey string) ([]trackerclient.BoardDTO, error)
}

// Engine is the bidirectional sync engine (section 4.3).
type Engine struct {
	store   Store
	tracker Tracker
	log     *logrus.Entry
	now     func() time.Time
}

// New constructs an Engine.
func New(store Store, tracker Tracker, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		store:   store,
		tracker: tracker,
		log:     log.WithField("component", "sync.Engine"),
		now:     time.Now,
	}
}

func sprintRecord(dto trackerclient.SprintDTO) map[string]interface{} {
	return map[string]interface{}{
		"name":          dto.Name,
		"state":         dto.State,
		"goal":          dto.Goal,
		"start_date":    dto.StartDate,
		"end_date":      dto.EndDate,
		"complete_date": dto.CompleteDate,
		"board_id":      dto.OriginBoardID,
	}
}

func applySprintDTO(s *model.Sprint, dto trackerclient.SprintDTO) {
	s.TrackerSprintID = dto.ID
	s.Name = dto.Name
	s.State = model.SprintState(dto.State)
	s.Goal = dto.Goal
	s.StartDate = dto.StartDate
	s.EndDate = dto.EndDate
	s.CompleteDate = dto.CompleteDate
	s.BoardID = dto.OriginBoardID
	s.TrackerLastModified = dto.LastUpdated
}

// fieldDiffs compares the canonical fields of a local sprint against an
// incoming remote record, returning the names of fields that differ.
func fieldDiffs(local *model.Sprint, dto trackerclient.SprintDTO) []string {
	var diffs []string
	if local.Name != dto.Name {
		diffs = append(diffs, "name")
	}
	if string(local.State) != dto.State {
		diffs = append(diffs, "state")
	}
	if local.Goal != dto.Goal {
		diffs = append(diffs, "goal")
	}
	return diffs
}

// SyncSprintsBidirectional synchronizes every sprint on boardID, applying
// remote-wins conflict resolution by default and recording one SyncHistory
// batch row. batchID is generated if empty.
func (e *Engine) SyncSprintsBidirectional(ctx context.Context, boardID int64, incremental bool, batchID string) ([]model.Sprint, *model.SyncHistory, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	opType := model.OperationFullSync
	if incremental {
		opType = model.OperationIncrementalSync
	}

	started := e.now()
	history := &model.SyncHistory{
		BatchID:       batchID,
		OperationType: opType,
		Status:        model.BatchInProgress,
		StartedAt:     started,
	}
	if err := e.store.SaveSyncHistory(ctx, history); err != nil {
		return nil, nil, err
	}

	remote, err := e.tracker.GetSprints(ctx, boardID)
	if err != nil {
		history.Status = model.BatchFailed
		history.ErrorMessage = err.Error()
		finished := e.now()
		history.FinishedAt = &finished
		history.DurationSeconds = finished.Sub(started).Seconds()
		_ = e.store.SaveSyncHistory(ctx, history)
		return nil, history, err
	}
	history.APICallsMade++

	var result []model.Sprint
	var errorMessages []string

	for _, dto := range remote {
		sprint, err := e.syncOneSprint(ctx, dto, incremental, batchID, history)
		if err != nil {
			errorMessages = append(errorMessages, fmt.Sprintf("sprint %d: %v", dto.ID, err))
			continue
		}
		result = append(result, *sprint)
	}

	history.EntitiesProcessed = len(remote)
	finished := e.now()
	history.FinishedAt = &finished
	history.DurationSeconds = finished.Sub(started).Seconds()
	if len(errorMessages) > 0 {
		history.ErrorMessage = fmt.Sprintf("%d entity error(s): %v", len(errorMessages), errorMessages)
	}
	history.Status = model.BatchCompleted
	if err := e.store.SaveSyncHistory(ctx, history); err != nil {
		return result, history, err
	}

	return result, history, nil
}

// syncOneSprint applies the per-entity state machine transitions of
// section 4.3 step 3 to a single remote sprint.
func (e *Engine) syncOneSprint(ctx context.Context, dto trackerclient.SprintDTO, incremental bool, batchID string, history *model.SyncHistory) (*model.Sprint, error) {
	local, err := e.store.SprintByTrackerID(ctx, dto.ID)
	if err != nil && !errs.IsKind(err, errs.KindNotFound) {
		return nil, err
	}
	if local == nil {
		local = &model.Sprint{}
	}

	var meta *model.SyncMetadata
	if local.ID != 0 {
		meta, err = e.store.SyncMetadataFor(ctx, model.EntitySprint, local.ID)
		if err != nil && !errs.IsKind(err, errs.KindNotFound) {
			return nil, err
		}
	}
	if meta == nil {
		meta = &model.SyncMetadata{EntityType: model.EntitySprint, EntityID: local.ID, TrackerID: dto.ID}
	}
	meta.MarkInProgress(batchID, e.now())

	if incremental && meta.LastSuccessful != nil && dto.LastUpdated != nil && !dto.LastUpdated.After(*meta.LastSuccessful) {
		meta.MarkSkipped()
		history.EntitiesSkipped++
		_ = e.store.SaveSyncMetadata(ctx, meta)
		return local, nil
	}

	record := sprintRecord(dto)
	remoteHash := ContentHash(record)
	if remoteHash == meta.ContentHash {
		meta.MarkSkipped()
		history.EntitiesSkipped++
		_ = e.store.SaveSyncMetadata(ctx, meta)
		return local, nil
	}

	if local.ID == 0 {
		applySprintDTO(local, dto)
		if err := local.Validate(); err != nil {
			meta.MarkFailed(err.Error())
			_ = e.store.SaveSyncMetadata(ctx, meta)
			return nil, errs.Validation(err.Error())
		}
		if err := e.store.SaveSprint(ctx, local); err != nil {
			meta.MarkFailed(err.Error())
			_ = e.store.SaveSyncMetadata(ctx, meta)
			return nil, err
		}
		meta.EntityID = local.ID
		history.EntitiesCreated++
	} else {
		diffs := fieldDiffs(local, dto)
		concurrentLocalEdit := len(diffs) > 0 && meta.LastSuccessful != nil && local.UpdatedAt.After(*meta.LastSuccessful)
		if concurrentLocalEdit {
			for _, field := range diffs {
				conflict := &model.ConflictResolution{
					SyncMetadataID:     meta.ID,
					ConflictType:       model.ConflictField,
					FieldName:          field,
					LocalValue:         fieldValue(local, field),
					RemoteValue:        remoteFieldValue(dto, field),
					ResolutionStrategy: model.StrategyRemoteWins,
					ResolvedValue:      remoteFieldValue(dto, field),
					Resolved:           true,
					Notes:              "Auto-resolved: remote wins",
				}
				now := e.now()
				conflict.ResolvedAt = &now
				if err := e.store.SaveConflictResolution(ctx, conflict); err != nil {
					return nil, err
				}
				history.ConflictsDetected++
				history.ConflictsResolved++
			}
		}
		applySprintDTO(local, dto)
		if err := local.Validate(); err != nil {
			meta.MarkFailed(err.Error())
			_ = e.store.SaveSyncMetadata(ctx, meta)
			return nil, errs.Validation(err.Error())
		}
		if err := e.store.SaveSprint(ctx, local); err != nil {
			meta.MarkFailed(err.Error())
			_ = e.store.SaveSyncMetadata(ctx, meta)
			return nil, err
		}
		history.EntitiesUpdated++
	}

	meta.MarkCompleted(remoteHash, e.now())
	if err := e.store.SaveSyncMetadata(ctx, meta); err != nil {
		return nil, err
	}
	return local, nil
}

func fieldValue(s *model.Sprint, field string) string {
	switch field {
	case "name":
		return s.Name
	case "state":
		return string(s.State)
	case "goal":
		return s.Goal
	default:
		return ""
	}
}

func remoteFieldValue(dto trackerclient.SprintDTO, field string) string {
	switch field {
	case "name":
		return dto.Name
	case "state":
		return dto.State
	case "goal":
		return dto.Goal
	default:
		return ""
	}
}

// SyncIncremental runs an incremental SyncSprintsBidirectional for every
// board and rolls all boards into one aggregate SyncHistory batch. since
// defaults to the start of the most recent successful incremental
// SyncHistory, but neither a given nor a derived since is passed to the
// per-board syncs: each sprint is skipped or synced by comparing its
// tracker last-updated time with its own metadata's last successful sync.
func (e *Engine) SyncIncremental(ctx context.Context, since *time.Time) (*model.SyncHistory, error) {
	if since == nil {
		previous, err := e.store.LatestSuccessfulSyncHistory(ctx, model.OperationIncrementalSync)
		if err == nil && previous != nil {
			since = &previous.StartedAt
		}
	}

	boards, err := e.tracker.GetBoards(ctx, "")
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	started := e.now()
	aggregate := &model.SyncHistory{
		BatchID:       batchID,
		OperationType: model.OperationIncrementalSync,
		Status:        model.BatchInProgress,
		StartedAt:     started,
	}
	if err := e.store.SaveSyncHistory(ctx, aggregate); err != nil {
		return nil, err
	}

	for _, board := range boards {
		_, boardHistory, err := e.SyncSprintsBidirectional(ctx, board.ID, true, batchID)
		if err != nil {
			aggregate.ErrorMessage += fmt.Sprintf("board %d: %v; ", board.ID, err)
			continue
		}
		aggregate.EntitiesProcessed += boardHistory.EntitiesProcessed
		aggregate.EntitiesCreated += boardHistory.EntitiesCreated
		aggregate.EntitiesUpdated += boardHistory.EntitiesUpdated
		aggregate.EntitiesSkipped += boardHistory.EntitiesSkipped
		aggregate.ConflictsDetected += boardHistory.ConflictsDetected
		aggregate.ConflictsResolved += boardHistory.ConflictsResolved
		aggregate.APICallsMade += boardHistory.APICallsMade
	}

	finished := e.now()
	aggregate.FinishedAt = &finished
	aggregate.DurationSeconds = finished.Sub(started).Seconds()
	if aggregate.ErrorMessage != "" {
		aggregate.Status = model.BatchFailed
	} else {
		aggregate.Status = model.BatchCompleted
	}
	if err := e.store.SaveSyncHistory(ctx, aggregate); err != nil {
		return nil, err
	}
	return aggregate, nil
}

// ConsistencyReport is the output of an offline consistency check: it
// never mutates state.
type ConsistencyReport struct {
	MissingLocal    []int64
	MissingRemote   []int64
	Inconsistencies map[int64][]string // tracker sprint id -> field names
}

// CheckConsistency compares the remote sprint set against the local set
// for boardID and reports discrepancies without mutating anything.
func (e *Engine) CheckConsistency(ctx context.Context, boardID int64) (*ConsistencyReport, error) {
	remote, err := e.tracker.GetSprints(ctx, boardID)
	if err != nil {
		return nil, err
	}
	local, err := e.store.SprintsByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	localByTrackerID := make(map[int64]*model.Sprint, len(local))
	for i := range local {
		localByTrackerID[local[i].TrackerSprintID] = &local[i]
	}

	report := &ConsistencyReport{Inconsistencies: map[int64][]string{}}
	seen := make(map[int64]bool, len(remote))
	for _, dto := range remote {
		seen[dto.ID] = true
		ls, ok := localByTrackerID[dto.ID]
		if !ok {
			report.MissingLocal = append(report.MissingLocal, dto.ID)
			continue
		}
		if diffs := fieldDiffs(ls, dto); len(diffs) > 0 {
			report.Inconsistencies[dto.ID] = diffs
		}
	}
	for trackerID := range localByTrackerID {
		if !seen[trackerID] {
			report.MissingRemote = append(report.MissingRemote, trackerID)
		}
	}
	return report, nil
}
