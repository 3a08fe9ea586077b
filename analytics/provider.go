// Package analytics implements the Analytics Engine (C7): velocity,
// forecasting, burndown/burnup, risk assessment, capacity analysis, and
// project rankings.
package analytics

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// IssueSummary is the canonical projection of a tracker issue analytics
// needs, produced upstream by the Field Mapper.
type IssueSummary struct {
	Key         string
	StoryPoints float64
	Status      string // done, closed, resolved, in_progress, blocked, ...
}

// DoneStatuses are the canonical statuses counted as completed work.
var DoneStatuses = map[string]bool{"done": true, "closed": true, "resolved": true}

// IsDone reports whether status counts as completed.
func IsDone(status string) bool { return DoneStatuses[normalizeStatus(status)] }

// IsBlocked reports whether status counts as blocked.
func IsBlocked(status string) bool { return normalizeStatus(status) == "blocked" }

func normalizeStatus(status string) string {
	return status
}

// DataProvider is the boundary analytics depends on for live and
// historical data: local Sprint rows plus, when live figures are needed,
// issues resolved through the Tracker Client and Field Mapper.
type DataProvider interface {
	SprintsForProject(ctx context.Context, projectKey string, sprintCount int, includeCurrent bool) ([]model.Sprint, error)
	IssuesForSprintProject(ctx context.Context, sprint model.Sprint, projectKey string) ([]IssueSummary, error)
}
