package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProjectHealth_CompletedTakesPrecedence(t *testing.T) {
	assert.Equal(t, HealthCompleted, ClassifyProjectHealth(10, 90, true))
}

func TestClassifyProjectHealth_BlockedRatioAboveThreshold(t *testing.T) {
	assert.Equal(t, HealthBlocked, ClassifyProjectHealth(80, 25, false))
}

func TestClassifyProjectHealth_BehindOnLowCompletion(t *testing.T) {
	assert.Equal(t, HealthBehind, ClassifyProjectHealth(30, 0, false))
}

func TestClassifyProjectHealth_AtRiskOnModerateCompletion(t *testing.T) {
	assert.Equal(t, HealthAtRisk, ClassifyProjectHealth(60, 0, false))
}

func TestClassifyProjectHealth_OnTrackOnHighCompletion(t *testing.T) {
	assert.Equal(t, HealthOnTrack, ClassifyProjectHealth(85, 0, false))
}

func TestRollPortfolioHealth_CriticalWhenThirtyPercentRisky(t *testing.T) {
	statuses := []HealthStatus{HealthAtRisk, HealthAtRisk, HealthAtRisk, HealthOnTrack, HealthOnTrack, HealthOnTrack, HealthOnTrack}
	summary := RollPortfolioHealth(statuses)
	assert.Equal(t, OverallCritical, summary.Overall)
	assert.Equal(t, 3, summary.Counts[HealthAtRisk])
}

func TestRollPortfolioHealth_AtRiskWhenSomeRiskyButBelowThreshold(t *testing.T) {
	statuses := []HealthStatus{HealthBehind, HealthOnTrack, HealthOnTrack, HealthOnTrack, HealthOnTrack}
	summary := RollPortfolioHealth(statuses)
	assert.Equal(t, OverallAtRisk, summary.Overall)
}

func TestRollPortfolioHealth_HealthyWhenNoRiskyProjects(t *testing.T) {
	statuses := []HealthStatus{HealthOnTrack, HealthCompleted}
	summary := RollPortfolioHealth(statuses)
	assert.Equal(t, OverallHealthy, summary.Overall)
}

func TestRollPortfolioHealth_EmptyInputIsHealthy(t *testing.T) {
	summary := RollPortfolioHealth(nil)
	assert.Equal(t, OverallHealthy, summary.Overall)
	assert.Empty(t, summary.Counts)
}
