package model

import "fmt"

// WorkstreamType enumerates ProjectWorkstream kinds.
type WorkstreamType string

const (
	WorkstreamStandard   WorkstreamType = "standard"
	WorkstreamEpic       WorkstreamType = "epic"
	WorkstreamInitiative WorkstreamType = "initiative"
)

func (t WorkstreamType) Valid() bool {
	switch t {
	case WorkstreamStandard, WorkstreamEpic, WorkstreamInitiative:
		return true
	}
	return false
}

// ProjectWorkstream is a distinct project source flowing through one or
// more sprints on a meta-board.
type ProjectWorkstream struct {
	Base

	ProjectKey  string `gorm:"size:64;uniqueIndex;not null"`
	ProjectName string `gorm:"size:200;not null"`

	TrackerBoardID   int64
	TrackerBoardName string `gorm:"size:200"`

	WorkstreamType WorkstreamType `gorm:"size:16;not null;default:standard"`
	Category       string         `gorm:"size:100"`
}

func (w *ProjectWorkstream) Validate() error {
	if w.ProjectKey == "" {
		return fmt.Errorf("project_key must not be empty")
	}
	if !w.WorkstreamType.Valid() {
		return fmt.Errorf("invalid workstream_type %q", w.WorkstreamType)
	}
	return nil
}

// AssociationType enumerates ProjectSprintAssociation kinds.
type AssociationType string

const (
	AssociationPrimary    AssociationType = "primary"
	AssociationSecondary  AssociationType = "secondary"
	AssociationDependency AssociationType = "dependency"
)

// ProjectSprintAssociation links a Sprint to a ProjectWorkstream.
// Uniqueness of (SprintID, ProjectWorkstreamID) is enforced by a composite
// unique index.
type ProjectSprintAssociation struct {
	Base

	SprintID            uint `gorm:"uniqueIndex:idx_sprint_project;not null"`
	ProjectWorkstreamID uint `gorm:"uniqueIndex:idx_sprint_project;not null"`

	AssociationType AssociationType `gorm:"size:16;not null"`
	Priority        int             `gorm:"not null"`

	ExpectedStoryPoints float64
	ActualStoryPoints   float64

	Active bool `gorm:"not null;default:true"`
}

func (a *ProjectSprintAssociation) Validate() error {
	if a.Priority <= 0 {
		return fmt.Errorf("priority must be positive")
	}
	if a.ExpectedStoryPoints < 0 || a.ActualStoryPoints < 0 {
		return fmt.Errorf("story point counters must be non-negative")
	}
	return nil
}

// ProjectSprintMetrics is a periodic roll-up per (sprint, project) dated.
type ProjectSprintMetrics struct {
	Base

	SprintID            uint `gorm:"uniqueIndex:idx_sprint_project_date;not null"`
	ProjectWorkstreamID uint `gorm:"uniqueIndex:idx_sprint_project_date;not null"`
	MetricDate          string `gorm:"uniqueIndex:idx_sprint_project_date;size:10;not null"` // YYYY-MM-DD

	TotalIssues      int
	CompletedIssues  int
	InProgressIssues int
	BlockedIssues    int

	TotalStoryPoints     float64
	CompletedStoryPoints float64

	CompletionPercentage float64
	Velocity             float64
	BurndownRate         float64

	ScopeAdded   int
	ScopeRemoved int

	DetailBreakdown JSONMap `gorm:"serializer:json"`
}

func (m *ProjectSprintMetrics) Validate() error {
	if m.CompletedIssues > m.TotalIssues {
		return fmt.Errorf("completed issues (%d) exceed total issues (%d)", m.CompletedIssues, m.TotalIssues)
	}
	if m.CompletedStoryPoints > m.TotalStoryPoints {
		return fmt.Errorf("completed story points (%.2f) exceed total (%.2f)", m.CompletedStoryPoints, m.TotalStoryPoints)
	}
	if m.CompletionPercentage < 0 || m.CompletionPercentage > 100 {
		return fmt.Errorf("completion_percentage %.2f out of [0,100]", m.CompletionPercentage)
	}
	return nil
}

// CapacityType enumerates the unit a DisciplineTeamCapacity is declared in.
type CapacityType string

const (
	CapacityStoryPoints CapacityType = "story-points"
	CapacityHours        CapacityType = "hours"
	CapacityIssues       CapacityType = "issues"
)

// DisciplineTeamCapacity is a per-sprint, per-discipline-team capacity
// declaration.
type DisciplineTeamCapacity struct {
	Base

	SprintID       uint   `gorm:"uniqueIndex:idx_sprint_team;not null"`
	DisciplineTeam string `gorm:"uniqueIndex:idx_sprint_team;size:100;not null"`

	CapacityPoints float64      `gorm:"not null"`
	CapacityType   CapacityType `gorm:"size:16;not null;default:story-points"`

	Allocated            float64
	Remaining            float64
	UtilizationPercentage float64
}

// Recalculate derives Remaining and UtilizationPercentage from
// CapacityPoints and Allocated, per spec.md section 3.
func (c *DisciplineTeamCapacity) Recalculate() {
	if c.CapacityPoints-c.Allocated > 0 {
		c.Remaining = c.CapacityPoints - c.Allocated
	} else {
		c.Remaining = 0
	}
	if c.CapacityPoints > 0 {
		c.UtilizationPercentage = 100 * c.Allocated / c.CapacityPoints
	} else {
		c.UtilizationPercentage = 0
	}
}

// CapacityTrend enumerates ProjectCapacityAllocation.Trend values.
type CapacityTrend string

const (
	TrendIncreasing CapacityTrend = "increasing"
	TrendDecreasing CapacityTrend = "decreasing"
	TrendStable     CapacityTrend = "stable"
)

// ProjectCapacityAllocation is the cross of (sprint, project, discipline
// team) with allocated/utilized/remaining capacity.
type ProjectCapacityAllocation struct {
	Base

	SprintID                 uint `gorm:"uniqueIndex:idx_spa;not null"`
	ProjectWorkstreamID      uint `gorm:"uniqueIndex:idx_spa;not null"`
	DisciplineTeamCapacityID uint `gorm:"uniqueIndex:idx_spa;not null"`

	Allocated float64
	Utilized  float64
	Remaining float64
	Priority  int

	Trend CapacityTrend `gorm:"size:16;not null;default:stable"`
}
