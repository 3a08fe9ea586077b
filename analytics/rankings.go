package analytics

import "sort"

// RankingCriteria enumerates GetProjectRankings sort keys.
type RankingCriteria string

const (
	RankByPriority             RankingCriteria = "priority"
	RankByCompletion           RankingCriteria = "completion"
	RankByRiskScore            RankingCriteria = "risk-score"
	RankByVelocity             RankingCriteria = "velocity"
	RankByCapacityUtilization  RankingCriteria = "capacity-utilization"
)

// ProjectScore is one project's input row for ranking.
type ProjectScore struct {
	ProjectKey            string
	Priority              float64
	CompletionPercentage  float64
	RiskScore             float64
	Velocity              float64
	CapacityUtilization   float64
}

// RankedProject is a ProjectScore annotated with rank and justification.
type RankedProject struct {
	ProjectScore
	Rank          int
	Justification string
}

// GetProjectRankings sorts projects by criteria (descending, except
// risk-score where lower is better) and returns the top limit entries
// (section 4.7).
func GetProjectRankings(projects []ProjectScore, criteria RankingCriteria, limit int) []RankedProject {
	if limit <= 0 {
		limit = 20
	}

	scoreOf := func(p ProjectScore) float64 {
		switch criteria {
		case RankByCompletion:
			return p.CompletionPercentage
		case RankByRiskScore:
			return p.RiskScore
		case RankByVelocity:
			return p.Velocity
		case RankByCapacityUtilization:
			return p.CapacityUtilization
		default:
			return p.Priority
		}
	}

	sorted := make([]ProjectScore, len(projects))
	copy(sorted, projects)

	ascending := criteria == RankByRiskScore
	sort.Slice(sorted, func(i, j int) bool {
		if ascending {
			return scoreOf(sorted[i]) < scoreOf(sorted[j])
		}
		return scoreOf(sorted[i]) > scoreOf(sorted[j])
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	ranked := make([]RankedProject, len(sorted))
	for i, p := range sorted {
		ranked[i] = RankedProject{
			ProjectScore:  p,
			Rank:          i + 1,
			Justification: justify(criteria, p),
		}
	}
	return ranked
}

func justify(criteria RankingCriteria, p ProjectScore) string {
	switch criteria {
	case RankByCompletion:
		return "ranked by completion percentage"
	case RankByRiskScore:
		return "ranked by ascending risk score (lower is better)"
	case RankByVelocity:
		return "ranked by velocity"
	case RankByCapacityUtilization:
		return "ranked by capacity utilization"
	default:
		return "ranked by declared priority"
	}
}
