package repository

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// SprintRepository persists model.Sprint rows.
type SprintRepository struct {
	db *DB
}

// NewSprintRepository constructs a SprintRepository.
func NewSprintRepository(db *DB) *SprintRepository { return &SprintRepository{db: db} }

func (r *SprintRepository) SprintByTrackerID(ctx context.Context, trackerSprintID int64) (*model.Sprint, error) {
	var sprint model.Sprint
	err := r.db.WithContext(ctx).Where("tracker_sprint_id = ?", trackerSprintID).First(&sprint).Error
	if err != nil {
		return nil, translateGormError(err, "sprint")
	}
	return &sprint, nil
}

func (r *SprintRepository) SprintByID(ctx context.Context, id uint) (*model.Sprint, error) {
	var sprint model.Sprint
	err := r.db.WithContext(ctx).First(&sprint, id).Error
	if err != nil {
		return nil, translateGormError(err, "sprint")
	}
	return &sprint, nil
}

func (r *SprintRepository) SaveSprint(ctx context.Context, s *model.Sprint) error {
	return translateGormError(r.db.WithContext(ctx).Save(s).Error, "sprint")
}

func (r *SprintRepository) SprintsByBoard(ctx context.Context, boardID int64) ([]model.Sprint, error) {
	var sprints []model.Sprint
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Find(&sprints).Error
	if err != nil {
		return nil, translateGormError(err, "sprints")
	}
	return sprints, nil
}

// SprintsForProject returns up to sprintCount sprints for projectKey,
// most recent first. When includeCurrent is false, the active sprint (if
// any) is excluded so velocity history reflects only closed sprints.
func (r *SprintRepository) SprintsForProject(ctx context.Context, projectKey string, sprintCount int, includeCurrent bool) ([]model.Sprint, error) {
	query := r.db.WithContext(ctx).Where("tracker_project_key = ?", projectKey)
	if !includeCurrent {
		query = query.Where("state = ?", model.SprintStateClosed)
	}
	var sprints []model.Sprint
	err := query.Order("start_date DESC").Limit(sprintCount).Find(&sprints).Error
	if err != nil {
		return nil, translateGormError(err, "sprints")
	}
	return sprints, nil
}

func (r *SprintRepository) MostRecentActiveSprintForBoard(ctx context.Context, boardID int64) (*model.Sprint, error) {
	var sprint model.Sprint
	err := r.db.WithContext(ctx).
		Where("board_id = ? AND state = ?", boardID, model.SprintStateActive).
		Order("start_date DESC").
		First(&sprint).Error
	if err != nil {
		return nil, translateGormError(err, "active sprint")
	}
	return &sprint, nil
}
