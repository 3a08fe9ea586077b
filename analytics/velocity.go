package analytics

import (
	"context"
	"math"
	"time"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// Trend enumerates velocity trend classifications.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// SprintVelocity is one sprint's contribution to a velocity history.
type SprintVelocity struct {
	SprintID         uint
	SprintName       string
	CompletedPoints  float64
	DurationDays     float64
	Velocity         float64
}

// VelocityReport is the output of CalculateProjectVelocityWithHistory.
type VelocityReport struct {
	ProjectKey          string
	History             []SprintVelocity
	Mean                float64
	StdDev              float64
	Consistency         float64
	Trend               Trend
	ForecastNextSprint  float64
	ConfidenceLow       float64
	ConfidenceHigh      float64
}

// CalculateProjectVelocityWithHistory implements section 4.7's velocity
// algorithm: per-sprint velocity, mean/stddev, consistency score, trend
// classification, and a naive next-sprint forecast.
func CalculateProjectVelocityWithHistory(ctx context.Context, provider DataProvider, projectKey string, sprintCount int, includeCurrent bool) (*VelocityReport, error) {
	if sprintCount <= 0 {
		sprintCount = 5
	}
	sprints, err := provider.SprintsForProject(ctx, projectKey, sprintCount, includeCurrent)
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return nil, errs.NotFound("sprints for project " + projectKey)
	}

	history := make([]SprintVelocity, 0, len(sprints))
	for _, sprint := range sprints {
		issues, err := provider.IssuesForSprintProject(ctx, sprint, projectKey)
		if err != nil {
			return nil, err
		}
		completed := 0.0
		for _, issue := range issues {
			if IsDone(issue.Status) {
				completed += issue.StoryPoints
			}
		}
		duration := sprintDurationDays(sprint)
		velocity := 0.0
		if duration > 0 {
			velocity = completed / duration
		}
		history = append(history, SprintVelocity{
			SprintID:        sprint.ID,
			SprintName:      sprint.Name,
			CompletedPoints: completed,
			DurationDays:    duration,
			Velocity:        velocity,
		})
	}

	velocities := make([]float64, len(history))
	for i, h := range history {
		velocities[i] = h.Velocity
	}
	mean, stdDev := meanStdDev(velocities)
	consistency := 0.0
	if mean > 0 {
		consistency = math.Max(0, 100-(stdDev/mean*100))
	}

	report := &VelocityReport{
		ProjectKey:         projectKey,
		History:            history,
		Mean:               mean,
		StdDev:             stdDev,
		Consistency:        consistency,
		Trend:              classifyTrend(velocities),
		ForecastNextSprint: mean,
		ConfidenceLow:      math.Max(0, mean-stdDev),
		ConfidenceHigh:     math.Max(0, mean+stdDev),
	}
	return report, nil
}

// sprintDurationDays returns max(1, end-start) in days, or now-start for
// an active sprint with no end date yet.
func sprintDurationDays(s model.Sprint) float64 {
	if s.StartDate == nil {
		return 1
	}
	end := s.EndDate
	if end == nil {
		now := time.Now()
		end = &now
	}
	days := end.Sub(*s.StartDate).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// classifyTrend compares the mean of the first three sprints (newest) to
// the mean of the last three (oldest) in history, sprints assumed newest
// first as returned by the data provider.
func classifyTrend(velocitiesNewestFirst []float64) Trend {
	if len(velocitiesNewestFirst) < 2 {
		return TrendStable
	}
	n := len(velocitiesNewestFirst)
	take := 3
	if take > n {
		take = n
	}
	recent := velocitiesNewestFirst[:take]
	older := velocitiesNewestFirst[n-take:]

	recentMean, _ := meanStdDev(recent)
	olderMean, _ := meanStdDev(older)
	if olderMean == 0 {
		return TrendStable
	}
	change := (recentMean - olderMean) / olderMean * 100
	switch {
	case change > 10:
		return TrendImproving
	case change < -10:
		return TrendDeclining
	default:
		return TrendStable
	}
}
