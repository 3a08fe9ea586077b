// Package bridge composes the Tracker Client and Field Mapper into the
// narrow read interfaces the Analytics Engine and Portfolio Aggregator
// depend on, so neither of those packages needs to know about live
// tracker fetches or field mapping directly.
package bridge

import (
	"context"
	"fmt"

	"github.com/scullers68/sprintintel/analytics"
	"github.com/scullers68/sprintintel/fieldmap"
	"github.com/scullers68/sprintintel/model"
	"github.com/scullers68/sprintintel/trackerclient"
)

// SprintLister is the local persistence surface used to resolve a
// project's sprint history.
type SprintLister interface {
	SprintsForProject(ctx context.Context, projectKey string, sprintCount int, includeCurrent bool) ([]model.Sprint, error)
}

// IssueFetcher is the subset of the Tracker Client the bridge needs to
// pull live issues for a sprint.
type IssueFetcher interface {
	GetSprintIssues(ctx context.Context, sprintID int64, excludeSubtasks bool, jqlFilter string, maxResults int) ([]trackerclient.IssueDTO, error)
}

// IssueProvider implements analytics.DataProvider and portfolio.IssueProvider
// by combining a local sprint history store, the live Tracker Client, and
// the Field Mapper.
type IssueProvider struct {
	Sprints    SprintLister
	Tracker    IssueFetcher
	Mapper     *fieldmap.Mapper
	TemplateID uint // 0 resolves the active template
}

// New constructs an IssueProvider.
func New(sprints SprintLister, tracker IssueFetcher, mapper *fieldmap.Mapper, templateID uint) *IssueProvider {
	return &IssueProvider{Sprints: sprints, Tracker: tracker, Mapper: mapper, TemplateID: templateID}
}

// SprintsForProject satisfies analytics.DataProvider.
func (p *IssueProvider) SprintsForProject(ctx context.Context, projectKey string, sprintCount int, includeCurrent bool) ([]model.Sprint, error) {
	return p.Sprints.SprintsForProject(ctx, projectKey, sprintCount, includeCurrent)
}

// IssuesForSprintProject satisfies both analytics.DataProvider and
// portfolio.IssueProvider: it fetches the sprint's issues live, maps each
// through the active field mapping template, and projects the canonical
// fields analytics needs.
func (p *IssueProvider) IssuesForSprintProject(ctx context.Context, sprint model.Sprint, projectKey string) ([]analytics.IssueSummary, error) {
	jql := fmt.Sprintf("project = %s", projectKey)
	issues, err := p.Tracker.GetSprintIssues(ctx, sprint.TrackerSprintID, true, jql, 0)
	if err != nil {
		return nil, err
	}

	summaries := make([]analytics.IssueSummary, 0, len(issues))
	for _, issue := range issues {
		raw := make(map[string]interface{}, len(issue.Fields)+1)
		raw["key"] = issue.Key
		for k, v := range issue.Fields {
			raw[k] = v
		}

		mapped, err := p.Mapper.ApplyTemplate(ctx, raw, p.TemplateID)
		if err != nil {
			// A field mapping failure for one issue should not abort the
			// whole analytics run; fall back to the raw status field.
			mapped = nil
		}

		summary := analytics.IssueSummary{Key: issue.Key, Status: rawStatus(issue.Fields)}
		switch points := mapped["story_points"].(type) {
		case float64:
			summary.StoryPoints = points
		case int64:
			summary.StoryPoints = float64(points)
		}
		if status, ok := mapped["status"].(string); ok && status != "" {
			summary.Status = status
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// rawStatus best-effort extracts a status name from a tracker issue's
// unmapped fields payload, which nests it as {"status": {"name": "Done"}}.
func rawStatus(fields map[string]interface{}) string {
	status, ok := fields["status"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := status["name"].(string)
	return name
}
