package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scullers68/sprintintel/model"
)

func daysAgo(d int) *time.Time {
	t := time.Now().Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func TestCalculateProjectVelocityWithHistory_MeanAndStdDev(t *testing.T) {
	provider := &fakeDataProvider{
		sprints: map[string][]model.Sprint{
			"SI": {
				{Base: model.Base{ID: 1}, Name: "Sprint 1", StartDate: daysAgo(14), EndDate: daysAgo(7)},
				{Base: model.Base{ID: 2}, Name: "Sprint 2", StartDate: daysAgo(7), EndDate: daysAgo(0)},
			},
		},
		issues: map[uint][]IssueSummary{
			1: {{Key: "A-1", StoryPoints: 14, Status: "done"}},
			2: {{Key: "A-2", StoryPoints: 21, Status: "done"}},
		},
	}

	report, err := CalculateProjectVelocityWithHistory(context.Background(), provider, "SI", 2, true)
	require.NoError(t, err)
	assert.Len(t, report.History, 2)
	assert.InDelta(t, 2.0, report.History[0].Velocity, 0.0001)
	assert.InDelta(t, 3.0, report.History[1].Velocity, 0.0001)
	assert.InDelta(t, 2.5, report.Mean, 0.01)
	assert.InDelta(t, 0.5, report.StdDev, 0.01)
}

func TestCalculateProjectVelocityWithHistory_ConsistencyIsZeroWhenMeanZero(t *testing.T) {
	provider := &fakeDataProvider{
		sprints: map[string][]model.Sprint{
			"SI": {{Base: model.Base{ID: 1}, Name: "Sprint 1", StartDate: daysAgo(7), EndDate: daysAgo(0)}},
		},
		issues: map[uint][]IssueSummary{
			1: {{Key: "A-1", StoryPoints: 5, Status: "in_progress"}},
		},
	}

	report, err := CalculateProjectVelocityWithHistory(context.Background(), provider, "SI", 1, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Mean)
	assert.Equal(t, 0.0, report.Consistency)
}

func TestCalculateProjectVelocityWithHistory_NoSprintsReturnsNotFound(t *testing.T) {
	provider := &fakeDataProvider{}

	_, err := CalculateProjectVelocityWithHistory(context.Background(), provider, "SI", 3, true)
	require.Error(t, err)
}

func TestClassifyTrend_DecliningWhenRecentLowerThanOlder(t *testing.T) {
	// sprints newest-first: recent velocities much lower than older ones.
	velocities := []float64{1, 1, 1, 10, 10, 10}
	assert.Equal(t, TrendDeclining, classifyTrend(velocities))
}

func TestClassifyTrend_ImprovingWhenRecentHigherThanOlder(t *testing.T) {
	velocities := []float64{10, 10, 10, 1, 1, 1}
	assert.Equal(t, TrendImproving, classifyTrend(velocities))
}

func TestClassifyTrend_StableWithinTenPercent(t *testing.T) {
	velocities := []float64{10, 10, 10, 10, 10, 10}
	assert.Equal(t, TrendStable, classifyTrend(velocities))
}

func TestClassifyTrend_SingleSprintIsStable(t *testing.T) {
	assert.Equal(t, TrendStable, classifyTrend([]float64{5}))
}

func TestSprintDurationDays_NoStartDateDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, sprintDurationDays(model.Sprint{}))
}

func TestSprintDurationDays_ComputesFromStartToEnd(t *testing.T) {
	s := model.Sprint{StartDate: daysAgo(10), EndDate: daysAgo(0)}
	assert.InDelta(t, 10.0, sprintDurationDays(s), 0.1)
}
