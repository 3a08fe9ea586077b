package analytics

// RiskFactor is one weighted contributor to an overall risk score.
type RiskFactor struct {
	Name     string
	Points   int
	Severity string // low, medium, high, critical
}

// RiskAssessment is the output of AssessProjectRisks.
type RiskAssessment struct {
	ProjectKey   string
	Score        int
	Factors      []RiskFactor
	OverallLevel string
}

// CapacityInput carries the optional capacity figures used when
// includeCapacityAnalysis is true.
type CapacityInput struct {
	UtilizationPercentage float64
	Available             bool
}

// AssessProjectRisks implements section 4.7's weighted risk model.
func AssessProjectRisks(projectKey string, velocity *VelocityReport, totalIssues, blockedIssues int, timeElapsedPercentage, completionPercentage float64, capacity *CapacityInput) RiskAssessment {
	var factors []RiskFactor
	score := 0

	if velocity != nil {
		if velocity.Consistency < 50 {
			factors = append(factors, RiskFactor{Name: "velocity_consistency", Points: 20, Severity: "medium"})
			score += 20
		}
		if velocity.Trend == TrendDeclining {
			factors = append(factors, RiskFactor{Name: "velocity_trend", Points: 30, Severity: "high"})
			score += 30
		}
	}

	if capacity != nil && capacity.Available {
		switch {
		case capacity.UtilizationPercentage > 120:
			factors = append(factors, RiskFactor{Name: "capacity_utilization_high", Points: 35, Severity: "high"})
			score += 35
		case capacity.UtilizationPercentage < 60:
			factors = append(factors, RiskFactor{Name: "capacity_utilization_low", Points: 10, Severity: "low"})
			score += 10
		}
	}

	if timeElapsedPercentage-completionPercentage > 20 {
		factors = append(factors, RiskFactor{Name: "completion_lag", Points: 25, Severity: "high"})
		score += 25
	}

	if totalIssues > 0 {
		blockedRatio := float64(blockedIssues) / float64(totalIssues) * 100
		switch {
		case blockedRatio > 20:
			factors = append(factors, RiskFactor{Name: "blocked_issues_ratio", Points: 40, Severity: "critical"})
			score += 40
		case blockedIssues > 0:
			factors = append(factors, RiskFactor{Name: "blocked_issues_present", Points: 15, Severity: "medium"})
			score += 15
		}
	}

	overall := "low"
	switch {
	case score >= 60:
		overall = "critical"
	case score >= 35:
		overall = "high"
	case score >= 15:
		overall = "medium"
	}

	return RiskAssessment{
		ProjectKey:   projectKey,
		Score:        score,
		Factors:      factors,
		OverallLevel: overall,
	}
}
