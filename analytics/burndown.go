package analytics

import (
	"context"
	"sort"

	"github.com/scullers68/sprintintel/model"
)

// BurndownPoint is one day's data point in a burndown/burnup series.
type BurndownPoint struct {
	Date                 string
	TotalIssues          int
	CompletedIssues      int
	RemainingIssues      int
	InProgressIssues     int
	BlockedIssues        int
	Velocity             float64
	CompletionPercentage float64

	// Burnup-only fields, populated when includeBurnup is true.
	CumulativeCompleted int
	ScopeAdded          int
	ScopeRemoved        int
	NetScopeChange      int

	Ideal float64
}

// MetricsStore is the narrow persistence boundary burndown reconstruction
// needs.
type MetricsStore interface {
	MetricsForSprintProject(ctx context.Context, sprintID, projectWorkstreamID uint) ([]model.ProjectSprintMetrics, error)
}

// GenerateProjectBurndownData reconstructs a burndown (and, if
// includeBurnup, burnup) series from historical ProjectSprintMetrics rows,
// falling back to a single "current" point derived from live issues when
// no historical rows exist (section 4.7).
func GenerateProjectBurndownData(ctx context.Context, metrics MetricsStore, sprint model.Sprint, projectWorkstreamID uint, liveIssues []IssueSummary, includeBurnup bool) ([]BurndownPoint, error) {
	rows, err := metrics.MetricsForSprintProject(ctx, sprint.ID, projectWorkstreamID)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return []BurndownPoint{currentPointFromIssues(liveIssues)}, nil
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].MetricDate < rows[j].MetricDate })

	initialTotal := rows[0].TotalStoryPoints
	points := make([]BurndownPoint, 0, len(rows))
	cumulativeCompleted := 0
	dayCount := len(rows)

	for i, row := range rows {
		point := BurndownPoint{
			Date:                 row.MetricDate,
			TotalIssues:          row.TotalIssues,
			CompletedIssues:      row.CompletedIssues,
			RemainingIssues:      row.TotalIssues - row.CompletedIssues,
			InProgressIssues:     row.InProgressIssues,
			BlockedIssues:        row.BlockedIssues,
			Velocity:             row.Velocity,
			CompletionPercentage: row.CompletionPercentage,
			Ideal:                idealRemaining(initialTotal, i, dayCount),
		}
		if includeBurnup {
			cumulativeCompleted += row.CompletedIssues
			point.CumulativeCompleted = cumulativeCompleted
			point.ScopeAdded = row.ScopeAdded
			point.ScopeRemoved = row.ScopeRemoved
			point.NetScopeChange = row.ScopeAdded - row.ScopeRemoved
		}
		points = append(points, point)
	}
	return points, nil
}

// idealRemaining is the linear ideal-burndown line from initialTotal at
// day 0 to 0 at the last day.
func idealRemaining(initialTotal float64, day, totalDays int) float64 {
	if totalDays <= 1 {
		return 0
	}
	fraction := float64(day) / float64(totalDays-1)
	remaining := initialTotal * (1 - fraction)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func currentPointFromIssues(issues []IssueSummary) BurndownPoint {
	point := BurndownPoint{Date: "current", TotalIssues: len(issues)}
	for _, issue := range issues {
		switch {
		case IsDone(issue.Status):
			point.CompletedIssues++
		case IsBlocked(issue.Status):
			point.BlockedIssues++
		default:
			point.InProgressIssues++
		}
	}
	point.RemainingIssues = point.TotalIssues - point.CompletedIssues
	if point.TotalIssues > 0 {
		point.CompletionPercentage = float64(point.CompletedIssues) / float64(point.TotalIssues) * 100
	}
	return point
}
