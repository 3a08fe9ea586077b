package repository

import (
	"context"

	"github.com/scullers68/sprintintel/model"
)

// FieldMapRepository persists field mapping templates, mappings, and their
// version trail.
type FieldMapRepository struct {
	db *DB
}

// NewFieldMapRepository constructs a FieldMapRepository.
func NewFieldMapRepository(db *DB) *FieldMapRepository { return &FieldMapRepository{db: db} }

func (r *FieldMapRepository) ActiveTemplate(ctx context.Context) (*model.FieldMappingTemplate, error) {
	var template model.FieldMappingTemplate
	err := r.db.WithContext(ctx).Where("active = ?", true).First(&template).Error
	if err != nil {
		return nil, translateGormError(err, "field mapping template")
	}
	return &template, nil
}

func (r *FieldMapRepository) TemplateByID(ctx context.Context, id uint) (*model.FieldMappingTemplate, error) {
	var template model.FieldMappingTemplate
	err := r.db.WithContext(ctx).First(&template, id).Error
	if err != nil {
		return nil, translateGormError(err, "field mapping template")
	}
	return &template, nil
}

func (r *FieldMapRepository) MappingsForTemplate(ctx context.Context, templateID uint) ([]model.FieldMapping, error) {
	var mappings []model.FieldMapping
	err := r.db.WithContext(ctx).Where("template_id = ?", templateID).Find(&mappings).Error
	if err != nil {
		return nil, translateGormError(err, "field mappings")
	}
	return mappings, nil
}

func (r *FieldMapRepository) SaveMapping(ctx context.Context, m *model.FieldMapping) error {
	return translateGormError(r.db.WithContext(ctx).Save(m).Error, "field mapping")
}

func (r *FieldMapRepository) RecordVersion(ctx context.Context, v *model.FieldMappingVersion) error {
	return translateGormError(r.db.WithContext(ctx).Create(v).Error, "field mapping version")
}
