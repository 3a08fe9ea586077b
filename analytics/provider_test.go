package analytics

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

type fakeDataProvider struct {
	sprints map[string][]model.Sprint
	issues  map[uint][]IssueSummary
	err     error
}

func (f *fakeDataProvider) SprintsForProject(ctx context.Context, projectKey string, sprintCount int, includeCurrent bool) ([]model.Sprint, error) {
	if f.err != nil {
		return nil, f.err
	}
	sprints := f.sprints[projectKey]
	if sprintCount > 0 && len(sprints) > sprintCount {
		sprints = sprints[:sprintCount]
	}
	return sprints, nil
}

func (f *fakeDataProvider) IssuesForSprintProject(ctx context.Context, sprint model.Sprint, projectKey string) ([]IssueSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.issues[sprint.ID], nil
}
