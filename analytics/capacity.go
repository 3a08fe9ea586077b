package analytics

import "github.com/scullers68/sprintintel/model"

// CapacityAllocationView is one project's allocation within a team's
// capacity distribution.
type CapacityAllocationView struct {
	ProjectWorkstreamID uint
	Allocated           float64
	Priority            int
}

// CapacityDistribution is the per-team roll-up produced by
// AnalyzeCapacityDistribution.
type CapacityDistribution struct {
	DisciplineTeam string
	Capacity       float64
	Allocated      float64
	Available      float64
	OverCapacity   bool
	Allocations    []CapacityAllocationView
}

// AnalyzeCapacityDistribution sums active allocations against a team's
// declared capacity for one sprint (section 4.7).
func AnalyzeCapacityDistribution(team model.DisciplineTeamCapacity, allocations []model.ProjectCapacityAllocation, includeProjects bool) CapacityDistribution {
	total := 0.0
	var views []CapacityAllocationView
	for _, a := range allocations {
		total += a.Allocated
		if includeProjects {
			views = append(views, CapacityAllocationView{
				ProjectWorkstreamID: a.ProjectWorkstreamID,
				Allocated:           a.Allocated,
				Priority:            a.Priority,
			})
		}
	}

	available := team.CapacityPoints - total
	if available < 0 {
		available = 0
	}

	return CapacityDistribution{
		DisciplineTeam: team.DisciplineTeam,
		Capacity:       team.CapacityPoints,
		Allocated:      total,
		Available:      available,
		OverCapacity:   total > team.CapacityPoints,
		Allocations:    views,
	}
}

// ConflictKind enumerates CapacityConflict classifications.
type ConflictKind string

const (
	ConflictOverAllocation  ConflictKind = "over_allocation"
	ConflictUnderUtilization ConflictKind = "under_utilization"
	ConflictPriorityMismatch ConflictKind = "priority_mismatch"
)

// CapacityConflict flags one team's capacity allocation issue.
type CapacityConflict struct {
	DisciplineTeam string
	Kind           ConflictKind
	Severity       string // high, medium
	Detail         string
}

// DetectCapacityConflicts classifies capacity conflicts per team
// (section 4.7): over/under allocation by utilization percentage, and
// priority mismatches where high-priority projects receive too little
// share or low-priority projects receive too much.
func DetectCapacityConflicts(team model.DisciplineTeamCapacity, allocations []model.ProjectCapacityAllocation) []CapacityConflict {
	var conflicts []CapacityConflict

	switch {
	case team.UtilizationPercentage > 150:
		conflicts = append(conflicts, CapacityConflict{
			DisciplineTeam: team.DisciplineTeam, Kind: ConflictOverAllocation, Severity: "high",
			Detail: "utilization exceeds 150% of declared capacity",
		})
	case team.UtilizationPercentage > 110:
		conflicts = append(conflicts, CapacityConflict{
			DisciplineTeam: team.DisciplineTeam, Kind: ConflictOverAllocation, Severity: "medium",
			Detail: "utilization exceeds 110% of declared capacity",
		})
	case team.UtilizationPercentage < 50:
		conflicts = append(conflicts, CapacityConflict{
			DisciplineTeam: team.DisciplineTeam, Kind: ConflictUnderUtilization, Severity: "medium",
			Detail: "utilization below 50% of declared capacity",
		})
	}

	total := 0.0
	for _, a := range allocations {
		total += a.Allocated
	}
	if total > 0 {
		for _, a := range allocations {
			share := a.Allocated / total * 100
			switch {
			case a.Priority <= 2 && share < 20:
				conflicts = append(conflicts, CapacityConflict{
					DisciplineTeam: team.DisciplineTeam, Kind: ConflictPriorityMismatch, Severity: "medium",
					Detail: "high-priority project holds under 20% capacity share",
				})
			case a.Priority >= 5 && share > 40:
				conflicts = append(conflicts, CapacityConflict{
					DisciplineTeam: team.DisciplineTeam, Kind: ConflictPriorityMismatch, Severity: "medium",
					Detail: "low-priority project holds over 40% capacity share",
				})
			}
		}
	}

	return conflicts
}

// ClassifyCapacityTrend supplements the distilled spec (section 4.7 is
// silent on how ProjectCapacityAllocation.Trend is derived): compares the
// current allocation against the previous period's, mirroring the
// percentage-change thresholds used for velocity trend classification.
func ClassifyCapacityTrend(previousAllocated, currentAllocated float64) model.CapacityTrend {
	if previousAllocated == 0 {
		if currentAllocated == 0 {
			return model.TrendStable
		}
		return model.TrendIncreasing
	}
	change := (currentAllocated - previousAllocated) / previousAllocated * 100
	switch {
	case change > 10:
		return model.TrendIncreasing
	case change < -10:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}
