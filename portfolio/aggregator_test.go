package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scullers68/sprintintel/analytics"
	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

type fakeStore struct {
	activeSprint  *model.Sprint
	sprintsByID   map[uint]*model.Sprint
	associations  map[uint][]model.ProjectSprintAssociation
	workstreams   map[uint]*model.ProjectWorkstream
}

func (f *fakeStore) MostRecentActiveSprintForBoard(ctx context.Context, boardID int64) (*model.Sprint, error) {
	return f.activeSprint, nil
}

func (f *fakeStore) SprintByID(ctx context.Context, id uint) (*model.Sprint, error) {
	s, ok := f.sprintsByID[id]
	if !ok {
		return nil, errs.NotFound("sprint")
	}
	return s, nil
}

func (f *fakeStore) ActiveAssociationsForSprint(ctx context.Context, sprintID uint) ([]model.ProjectSprintAssociation, error) {
	return f.associations[sprintID], nil
}

func (f *fakeStore) WorkstreamByID(ctx context.Context, id uint) (*model.ProjectWorkstream, error) {
	w, ok := f.workstreams[id]
	if !ok {
		return nil, errs.NotFound("workstream")
	}
	return w, nil
}

type fakeIssueProvider struct {
	byProject map[string][]analytics.IssueSummary
}

func (f *fakeIssueProvider) IssuesForSprintProject(ctx context.Context, sprint model.Sprint, projectKey string) ([]analytics.IssueSummary, error) {
	return f.byProject[projectKey], nil
}

func TestAggregator_GetProjectPortfolio_RollsUpAcrossProjects(t *testing.T) {
	sprint := &model.Sprint{Base: model.Base{ID: 1}, Name: "Sprint 1"}
	store := &fakeStore{
		activeSprint: sprint,
		associations: map[uint][]model.ProjectSprintAssociation{
			1: {
				{SprintID: 1, ProjectWorkstreamID: 10, AssociationType: model.AssociationPrimary, Priority: 1, Active: true},
				{SprintID: 1, ProjectWorkstreamID: 20, AssociationType: model.AssociationSecondary, Priority: 3, Active: true},
			},
		},
		workstreams: map[uint]*model.ProjectWorkstream{
			10: {ProjectKey: "SI", ProjectName: "SprintIntel"},
			20: {ProjectKey: "OPS", ProjectName: "Ops"},
		},
	}
	issues := &fakeIssueProvider{byProject: map[string][]analytics.IssueSummary{
		"SI":  {{Key: "SI-1", Status: "done"}, {Key: "SI-2", Status: "in_progress"}},
		"OPS": {{Key: "OPS-1", Status: "blocked"}},
	}}

	aggregator := New(store, issues)
	view, err := aggregator.GetProjectPortfolio(context.Background(), 99, 0, ProjectFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, view.TotalProjects)
	assert.Len(t, view.Projects, 2)
	assert.InDelta(t, 25.0, view.OverallCompletion, 0.1) // (50 + 0) / 2
	assert.NotEmpty(t, view.Indicators)
}

func TestAggregator_GetProjectPortfolio_FiltersByAssociationTypeAndPriority(t *testing.T) {
	sprint := &model.Sprint{Base: model.Base{ID: 1}, Name: "Sprint 1"}
	store := &fakeStore{
		activeSprint: sprint,
		associations: map[uint][]model.ProjectSprintAssociation{
			1: {
				{SprintID: 1, ProjectWorkstreamID: 10, AssociationType: model.AssociationPrimary, Priority: 1, Active: true},
				{SprintID: 1, ProjectWorkstreamID: 20, AssociationType: model.AssociationDependency, Priority: 5, Active: true},
			},
		},
		workstreams: map[uint]*model.ProjectWorkstream{
			10: {ProjectKey: "SI", ProjectName: "SprintIntel"},
			20: {ProjectKey: "DEP", ProjectName: "Dependency"},
		},
	}
	issues := &fakeIssueProvider{byProject: map[string][]analytics.IssueSummary{
		"SI":  {{Key: "SI-1", Status: "done"}},
		"DEP": {{Key: "DEP-1", Status: "done"}},
	}}

	primary := model.AssociationPrimary
	aggregator := New(store, issues)
	view, err := aggregator.GetProjectPortfolio(context.Background(), 99, 0, ProjectFilter{AssociationType: &primary})
	require.NoError(t, err)

	assert.Equal(t, 1, view.TotalProjects)
	assert.Equal(t, "SI", view.Projects[0].ProjectKey)
}

func TestAggregator_GetProjectPortfolio_UsesExplicitSprintID(t *testing.T) {
	sprint := &model.Sprint{Base: model.Base{ID: 7}, Name: "Sprint 7"}
	store := &fakeStore{sprintsByID: map[uint]*model.Sprint{7: sprint}}
	issues := &fakeIssueProvider{}

	aggregator := New(store, issues)
	view, err := aggregator.GetProjectPortfolio(context.Background(), 99, 7, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, uint(7), view.SprintID)
}

func TestAggregator_GetProjectPortfolio_NoActiveSprintIsNotFound(t *testing.T) {
	store := &fakeStore{}
	aggregator := New(store, &fakeIssueProvider{})

	_, err := aggregator.GetProjectPortfolio(context.Background(), 99, 0, ProjectFilter{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}
