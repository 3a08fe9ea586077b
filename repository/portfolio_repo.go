package repository

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// PortfolioRepository resolves sprints, project associations, and
// workstreams for the portfolio aggregator, reusing SprintRepository for
// its sprint-lookup methods.
type PortfolioRepository struct {
	db *DB
	*SprintRepository
}

// NewPortfolioRepository constructs a PortfolioRepository.
func NewPortfolioRepository(db *DB) *PortfolioRepository {
	return &PortfolioRepository{db: db, SprintRepository: NewSprintRepository(db)}
}

func (r *PortfolioRepository) ActiveAssociationsForSprint(ctx context.Context, sprintID uint) ([]model.ProjectSprintAssociation, error) {
	var associations []model.ProjectSprintAssociation
	err := r.db.WithContext(ctx).
		Where("sprint_id = ? AND active = ?", sprintID, true).
		Order("priority ASC").
		Find(&associations).Error
	if err != nil {
		return nil, translateGormError(err, "project sprint associations")
	}
	return associations, nil
}

func (r *PortfolioRepository) WorkstreamByID(ctx context.Context, id uint) (*model.ProjectWorkstream, error) {
	var workstream model.ProjectWorkstream
	err := r.db.WithContext(ctx).First(&workstream, id).Error
	if err != nil {
		return nil, translateGormError(err, "project workstream")
	}
	return &workstream, nil
}
