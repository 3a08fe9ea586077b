// Package portfolio implements the Portfolio Aggregator (C8): meta-board
// project roll-ups and portfolio health indicators.
package portfolio

import (
	"context"

	"github.com/scullers68/sprintintel/analytics"
	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// Store is the persistence boundary the aggregator depends on.
type Store interface {
	MostRecentActiveSprintForBoard(ctx context.Context, boardID int64) (*model.Sprint, error)
	SprintByID(ctx context.Context, id uint) (*model.Sprint, error)
	ActiveAssociationsForSprint(ctx context.Context, sprintID uint) ([]model.ProjectSprintAssociation, error)
	WorkstreamByID(ctx context.Context, id uint) (*model.ProjectWorkstream, error)
}

// IssueProvider resolves live issue data for a (sprint, project) pair.
type IssueProvider interface {
	IssuesForSprintProject(ctx context.Context, sprint model.Sprint, projectKey string) ([]analytics.IssueSummary, error)
}

// Aggregator composes the portfolio view across a meta-board's projects.
type Aggregator struct {
	store   Store
	issues  IssueProvider
}

// New constructs an Aggregator.
func New(store Store, issues IssueProvider) *Aggregator {
	return &Aggregator{store: store, issues: issues}
}

// ProjectMetrics is the per-project roll-up within a portfolio view.
type ProjectMetrics struct {
	ProjectKey           string
	ProjectName          string
	AssociationType      model.AssociationType
	Priority             int
	TotalIssues          int
	CompletedIssues      int
	BlockedIssues        int
	CompletionPercentage float64
	Health               analytics.HealthStatus
}

// HealthIndicator is one named dimension of portfolio health with a
// target and a status bucket.
type HealthIndicator struct {
	Name   string
	Value  float64
	Target float64
	Status string // on-target, warning, critical
}

// PortfolioView is the full output of GetProjectPortfolio.
type PortfolioView struct {
	BoardID         int64
	SprintID        uint
	SprintName      string
	Projects        []ProjectMetrics
	TotalProjects   int
	OverallCompletion float64
	AverageRisk     float64
	HealthCounts    map[analytics.HealthStatus]int
	OverallHealth   analytics.OverallHealth
	Indicators      []HealthIndicator
}

// ProjectFilter narrows which associations are included.
type ProjectFilter struct {
	AssociationType *model.AssociationType
	MinPriority     int
}

func (f ProjectFilter) matches(a model.ProjectSprintAssociation) bool {
	if f.AssociationType != nil && a.AssociationType != *f.AssociationType {
		return false
	}
	if f.MinPriority > 0 && a.Priority < f.MinPriority {
		return false
	}
	return true
}

// GetProjectPortfolio resolves the meta-board's current or explicit
// sprint, loads active project associations, computes per-project
// metrics and health, and rolls them into a portfolio summary
// (section 4.8).
func (a *Aggregator) GetProjectPortfolio(ctx context.Context, boardID int64, sprintID uint, filter ProjectFilter) (*PortfolioView, error) {
	var sprint *model.Sprint
	var err error
	if sprintID != 0 {
		sprint, err = a.store.SprintByID(ctx, sprintID)
	} else {
		sprint, err = a.store.MostRecentActiveSprintForBoard(ctx, boardID)
	}
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, errs.NotFound("active sprint for board")
	}

	associations, err := a.store.ActiveAssociationsForSprint(ctx, sprint.ID)
	if err != nil {
		return nil, err
	}

	view := &PortfolioView{
		BoardID:      boardID,
		SprintID:     sprint.ID,
		SprintName:   sprint.Name,
		HealthCounts: map[analytics.HealthStatus]int{},
	}

	var statuses []analytics.HealthStatus
	totalCompletion := 0.0

	for _, assoc := range associations {
		if !filter.matches(assoc) {
			continue
		}
		workstream, err := a.store.WorkstreamByID(ctx, assoc.ProjectWorkstreamID)
		if err != nil {
			continue
		}

		issues, err := a.issues.IssuesForSprintProject(ctx, *sprint, workstream.ProjectKey)
		if err != nil {
			return nil, err
		}

		total := len(issues)
		completed := 0
		blocked := 0
		for _, issue := range issues {
			if analytics.IsDone(issue.Status) {
				completed++
			}
			if analytics.IsBlocked(issue.Status) {
				blocked++
			}
		}

		completionPct := 0.0
		if total > 0 {
			completionPct = float64(completed) / float64(total) * 100
		}
		blockedRatio := 0.0
		if total > 0 {
			blockedRatio = float64(blocked) / float64(total) * 100
		}

		health := analytics.ClassifyProjectHealth(completionPct, blockedRatio, completed == total && total > 0)

		metrics := ProjectMetrics{
			ProjectKey:           workstream.ProjectKey,
			ProjectName:          workstream.ProjectName,
			AssociationType:      assoc.AssociationType,
			Priority:             assoc.Priority,
			TotalIssues:          total,
			CompletedIssues:      completed,
			BlockedIssues:        blocked,
			CompletionPercentage: completionPct,
			Health:               health,
		}
		view.Projects = append(view.Projects, metrics)
		statuses = append(statuses, health)
		totalCompletion += completionPct
	}

	view.TotalProjects = len(view.Projects)
	if view.TotalProjects > 0 {
		view.OverallCompletion = totalCompletion / float64(view.TotalProjects)
	}

	healthSummary := analytics.RollPortfolioHealth(statuses)
	view.HealthCounts = healthSummary.Counts
	view.OverallHealth = healthSummary.Overall

	view.Indicators = []HealthIndicator{
		indicatorFor("completion", view.OverallCompletion, 80),
		indicatorFor("velocity", view.OverallCompletion, 80), // velocity target mirrors completion target absent a live figure
	}

	return view, nil
}

func indicatorFor(name string, value, target float64) HealthIndicator {
	status := "on-target"
	switch {
	case value < target*0.5:
		status = "critical"
	case value < target:
		status = "warning"
	}
	return HealthIndicator{Name: name, Value: value, Target: target, Status: status}
}
