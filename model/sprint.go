package model

import (
	"fmt"
	"strings"
	"time"
)

// SprintState is the lifecycle state of a tracker sprint.
type SprintState string

const (
	SprintStateFuture SprintState = "future"
	SprintStateActive SprintState = "active"
	SprintStateClosed SprintState = "closed"
)

func (s SprintState) Valid() bool {
	switch s {
	case SprintStateFuture, SprintStateActive, SprintStateClosed:
		return true
	}
	return false
}

// SyncStatus is the per-entity sync state machine value (also used
// directly on Sprint for the denormalized "current" status).
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusInProgress SyncStatus = "in-progress"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
	SyncStatusSkipped    SyncStatus = "skipped"
)

func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusPending, SyncStatusInProgress, SyncStatusCompleted, SyncStatusFailed, SyncStatusSkipped:
		return true
	}
	return false
}

// Sprint is the canonical domain entity mirroring a tracker sprint.
type Sprint struct {
	Base

	TrackerSprintID int64       `gorm:"uniqueIndex;not null"`
	Name            string      `gorm:"size:200;not null;index"`
	State           SprintState `gorm:"size:20;not null"`
	Goal            string      `gorm:"type:text"`

	StartDate    *time.Time
	EndDate      *time.Time
	CompleteDate *time.Time

	BoardID int64

	TrackerLastModified *time.Time
	SyncStatus          SyncStatus `gorm:"size:20;not null;default:pending"`

	TrackerBoardName  string `gorm:"size:200"`
	TrackerProjectKey string `gorm:"size:64;index"`
	TrackerAPIVersion string `gorm:"size:8"`
}

// Validate enforces the invariants of spec.md section 3: non-empty
// trimmed name, start <= end, complete >= start.
func (s *Sprint) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("sprint name must not be empty")
	}
	if !s.State.Valid() {
		return fmt.Errorf("invalid sprint state %q", s.State)
	}
	if s.StartDate != nil && s.EndDate != nil && s.StartDate.After(*s.EndDate) {
		return fmt.Errorf("sprint start_date must not be after end_date")
	}
	if s.CompleteDate != nil && s.StartDate != nil && s.CompleteDate.Before(*s.StartDate) {
		return fmt.Errorf("sprint complete_date must not precede start_date")
	}
	return nil
}

// AnalysisType enumerates the kinds of SprintAnalysis rows.
type AnalysisType string

const (
	AnalysisDisciplineTeam AnalysisType = "discipline-team"
	AnalysisCapacity       AnalysisType = "capacity"
	AnalysisVelocity       AnalysisType = "velocity"
	AnalysisBurndown       AnalysisType = "burndown"
)

// DisciplineBreakdown summarizes one discipline team's contribution
// within a SprintAnalysis.
type DisciplineBreakdown struct {
	Issues      int      `json:"issues"`
	StoryPoints float64  `json:"story_points"`
	IssueKeys   []string `json:"issue_keys"`
}

// SprintAnalysis is an append-only record of one analysis run.
type SprintAnalysis struct {
	Base

	SprintID uint `gorm:"index;not null"`

	AnalysisType     AnalysisType `gorm:"size:32;not null"`
	TotalIssues      int
	TotalStoryPoints float64

	DisciplineBreakdown map[string]DisciplineBreakdown `gorm:"serializer:json"`
	FilterPredicate     string                         `gorm:"type:text"`
}
