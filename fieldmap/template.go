package fieldmap

import (
	"context"
	"fmt"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// Store is the persistence boundary the field mapper depends on. The
// repository package provides the GORM-backed implementation; tests use an
// in-memory fake.
type Store interface {
	ActiveTemplate(ctx context.Context) (*model.FieldMappingTemplate, error)
	TemplateByID(ctx context.Context, id uint) (*model.FieldMappingTemplate, error)
	MappingsForTemplate(ctx context.Context, templateID uint) ([]model.FieldMapping, error)
	SaveMapping(ctx context.Context, m *model.FieldMapping) error
	RecordVersion(ctx context.Context, v *model.FieldMappingVersion) error
}

// Mapper applies field mapping templates to raw tracker records.
type Mapper struct {
	store Store
}

// New constructs a Mapper backed by store.
func New(store Store) *Mapper {
	return &Mapper{store: store}
}

// ApplyTemplate maps a raw tracker record into canonical field values
// using templateID's mappings, or the active template if templateID is 0.
func (m *Mapper) ApplyTemplate(ctx context.Context, raw map[string]interface{}, templateID uint) (map[string]interface{}, error) {
	template, err := m.resolveTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	mappings, err := m.store.MappingsForTemplate(ctx, template.ID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(mappings))
	for _, mapping := range mappings {
		if !mapping.IsActive {
			continue
		}
		rawValue, present := raw[mapping.SourceFieldID]
		if !present || rawValue == nil {
			if mapping.Required {
				return nil, errs.Validation(fmt.Sprintf("required source field %q missing", mapping.SourceFieldID))
			}
			if mapping.DefaultValue != "" {
				result[mapping.TargetField] = mapping.DefaultValue
			}
			continue
		}

		value, ok, err := TransformValue(rawValue, mapping.FieldType, mapping.TransformationConfig)
		if err != nil {
			return nil, err
		}
		if !ok {
			value = rawValue
		}

		rules := RulesFromConfig(mapping.ValidationRules)
		valid, validationErrors, _, normalized := ValidateValue(value, rules, mapping.FieldType, mapping.Required)
		if !valid {
			return nil, errs.Validation(fmt.Sprintf("field %q failed validation: %v", mapping.TargetField, validationErrors))
		}
		result[mapping.TargetField] = normalized
	}
	return result, nil
}

func (m *Mapper) resolveTemplate(ctx context.Context, templateID uint) (*model.FieldMappingTemplate, error) {
	if templateID != 0 {
		return m.store.TemplateByID(ctx, templateID)
	}
	return m.store.ActiveTemplate(ctx)
}

// SaveMapping creates or updates a FieldMapping and writes an audit
// FieldMappingVersion row describing the change (section 4.2 versioning).
func (m *Mapper) SaveMapping(ctx context.Context, mapping *model.FieldMapping, previousConfig model.JSONMap, changedBy string) error {
	changeType := model.ChangeCreated
	if mapping.ID != 0 {
		changeType = model.ChangeUpdated
	}
	if err := m.store.SaveMapping(ctx, mapping); err != nil {
		return err
	}
	version := &model.FieldMappingVersion{
		FieldMappingID: mapping.ID,
		ChangeType:     changeType,
		PreviousConfig: previousConfig,
		NewConfig:      mapping.TransformationConfig,
		ChangedBy:      changedBy,
	}
	return m.store.RecordVersion(ctx, version)
}

// DeleteMapping soft-deletes mapping by flipping IsActive off and writes a
// ChangeDeleted version row; the row itself is retained.
func (m *Mapper) DeleteMapping(ctx context.Context, mapping *model.FieldMapping, changedBy string) error {
	previous := mapping.TransformationConfig
	mapping.IsActive = false
	if err := m.store.SaveMapping(ctx, mapping); err != nil {
		return err
	}
	version := &model.FieldMappingVersion{
		FieldMappingID: mapping.ID,
		ChangeType:     model.ChangeDeleted,
		PreviousConfig: previous,
		NewConfig:      nil,
		ChangedBy:      changedBy,
	}
	return m.store.RecordVersion(ctx, version)
}
