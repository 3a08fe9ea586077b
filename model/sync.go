package model

import "time"

// EntityType enumerates the tracker entity kinds SyncMetadata tracks.
type EntityType string

const (
	EntitySprint  EntityType = "sprint"
	EntityIssue   EntityType = "issue"
	EntityProject EntityType = "project"
	EntityBoard   EntityType = "board"
)

// SyncDirection describes which side of a sync a metadata row last moved.
type SyncDirection string

const (
	DirectionLocalToRemote  SyncDirection = "local->remote"
	DirectionRemoteToLocal  SyncDirection = "remote->local"
	DirectionBidirectional  SyncDirection = "bidirectional"
)

// SyncMetadata is the per-entity sync state machine record. Uniqueness of
// (EntityType, EntityID) is enforced by a composite unique index.
type SyncMetadata struct {
	Base

	EntityType EntityType `gorm:"uniqueIndex:idx_entity;size:16;not null"`
	EntityID   uint       `gorm:"uniqueIndex:idx_entity;not null"`
	TrackerID  int64      `gorm:"index;not null"`

	SyncStatus SyncStatus `gorm:"size:20;not null;default:pending"`

	LastAttempt    *time.Time
	LastSuccessful *time.Time
	LocalModified  *time.Time
	RemoteModified *time.Time

	ErrorCount int
	LastError  string `gorm:"type:text"`

	SyncDirection SyncDirection `gorm:"size:16;not null;default:bidirectional"`
	ContentHash   string        `gorm:"size:64;index"`

	BatchID string `gorm:"size:36;index"`
}

// MarkInProgress transitions pending -> in-progress for a fresh batch.
func (m *SyncMetadata) MarkInProgress(batchID string, at time.Time) {
	m.SyncStatus = SyncStatusInProgress
	m.BatchID = batchID
	m.LastAttempt = &at
}

// MarkCompleted transitions in-progress -> completed: resets error count,
// stamps last-successful, and records the new content hash.
func (m *SyncMetadata) MarkCompleted(contentHash string, at time.Time) {
	m.SyncStatus = SyncStatusCompleted
	m.LastSuccessful = &at
	m.ErrorCount = 0
	m.ContentHash = contentHash
}

// MarkFailed transitions in-progress -> failed, incrementing ErrorCount.
func (m *SyncMetadata) MarkFailed(errMsg string) {
	m.SyncStatus = SyncStatusFailed
	m.ErrorCount++
	m.LastError = errMsg
}

// MarkSkipped transitions in-progress -> skipped (no work to do).
func (m *SyncMetadata) MarkSkipped() {
	m.SyncStatus = SyncStatusSkipped
}

// ConflictType enumerates ConflictResolution.ConflictType values.
type ConflictType string

const (
	ConflictField     ConflictType = "field-conflict"
	ConflictDeletion  ConflictType = "deletion-conflict"
	ConflictCreation  ConflictType = "creation-conflict"
)

// ResolutionStrategy enumerates ConflictResolution.ResolutionStrategy
// values. Merge is reserved: spec.md declares it but no automatic
// application exists (see DESIGN.md open question).
type ResolutionStrategy string

const (
	StrategyLocalWins  ResolutionStrategy = "local-wins"
	StrategyRemoteWins ResolutionStrategy = "remote-wins"
	StrategyManual     ResolutionStrategy = "manual"
	StrategyMerge      ResolutionStrategy = "merge"
)

// ConflictResolution is a field-level conflict record linked to a
// SyncMetadata row.
type ConflictResolution struct {
	Base

	SyncMetadataID uint `gorm:"index;not null"`

	ConflictType ConflictType `gorm:"size:20;not null"`
	FieldName    string       `gorm:"size:100;not null"`

	LocalValue  string `gorm:"type:text"`
	RemoteValue string `gorm:"type:text"`

	ResolutionStrategy ResolutionStrategy `gorm:"size:16;not null"`
	ResolvedValue      string             `gorm:"type:text"`
	Resolver           string             `gorm:"size:100"`
	ResolvedAt         *time.Time

	Resolved bool   `gorm:"not null;default:false"`
	Notes    string `gorm:"type:text"`
}

// OperationType enumerates SyncHistory.OperationType values.
type OperationType string

const (
	OperationFullSync          OperationType = "full-sync"
	OperationIncrementalSync   OperationType = "incremental-sync"
	OperationConflictResolution OperationType = "conflict-resolution"
	OperationWebhookSync       OperationType = "webhook-sync"
)

// BatchStatus enumerates SyncHistory.Status values.
type BatchStatus string

const (
	BatchInProgress BatchStatus = "in-progress"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// SyncHistory is one row per sync batch.
type SyncHistory struct {
	Base

	BatchID       string        `gorm:"size:36;uniqueIndex;not null"`
	OperationType OperationType `gorm:"size:24;not null"`

	EntitiesProcessed         int
	EntitiesCreated           int
	EntitiesUpdated           int
	EntitiesDeleted           int
	EntitiesSkipped           int
	ConflictsDetected         int
	ConflictsResolved         int

	DurationSeconds float64
	APICallsMade    int

	Status       BatchStatus `gorm:"size:16;not null;default:in-progress"`
	ErrorMessage string      `gorm:"type:text"`

	StartedAt  time.Time
	FinishedAt *time.Time
}
