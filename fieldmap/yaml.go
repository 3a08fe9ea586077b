package fieldmap

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// TemplateDocument is the YAML-serializable shape of a field mapping
// template and its mappings, used to hand-author or back up a template
// outside the database (section 4.2).
type TemplateDocument struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Version     int              `yaml:"version"`
	Mappings    []MappingDocument `yaml:"mappings"`
}

// MappingDocument is the YAML-serializable shape of a single FieldMapping.
type MappingDocument struct {
	SourceFieldID   string                 `yaml:"source_field_id"`
	TargetField     string                 `yaml:"target_field"`
	FieldType       string                 `yaml:"field_type"`
	MappingType     string                 `yaml:"mapping_type,omitempty"`
	Transformation  map[string]interface{} `yaml:"transformation,omitempty"`
	ValidationRules map[string]interface{} `yaml:"validation_rules,omitempty"`
	DefaultValue    string                 `yaml:"default_value,omitempty"`
	Required        bool                   `yaml:"required,omitempty"`
}

// ExportTemplateYAML renders a template and its active mappings as a YAML
// document suitable for version control or hand-editing.
func ExportTemplateYAML(template *model.FieldMappingTemplate, mappings []model.FieldMapping) ([]byte, error) {
	doc := TemplateDocument{
		Name:        template.Name,
		Description: template.Description,
		Version:     template.Version,
	}
	for _, m := range mappings {
		if !m.IsActive {
			continue
		}
		doc.Mappings = append(doc.Mappings, MappingDocument{
			SourceFieldID:   m.SourceFieldID,
			TargetField:     m.TargetField,
			FieldType:       string(m.FieldType),
			MappingType:     string(m.MappingType),
			Transformation:  m.TransformationConfig,
			ValidationRules: m.ValidationRules,
			DefaultValue:    m.DefaultValue,
			Required:        m.Required,
		})
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal template document: %w", err)
	}
	return out, nil
}

// ParseTemplateYAML parses a YAML template document produced by
// ExportTemplateYAML (or hand-authored in the same shape) into a template
// and its mappings, ready to be persisted via Mapper.SaveMapping.
func ParseTemplateYAML(data []byte) (*model.FieldMappingTemplate, []model.FieldMapping, error) {
	var doc TemplateDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse template document: %w", err)
	}
	if doc.Name == "" {
		return nil, nil, errs.Validation("template document missing name")
	}

	template := &model.FieldMappingTemplate{
		Name:        doc.Name,
		Description: doc.Description,
		Version:     doc.Version,
	}
	if template.Version == 0 {
		template.Version = 1
	}

	mappings := make([]model.FieldMapping, 0, len(doc.Mappings))
	for _, m := range doc.Mappings {
		if m.SourceFieldID == "" || m.TargetField == "" {
			return nil, nil, errs.Validation(fmt.Sprintf("mapping for target %q missing source or target field", m.TargetField))
		}
		mappingType := model.MappingType(m.MappingType)
		if mappingType == "" {
			mappingType = model.MappingDirect
		}
		mappings = append(mappings, model.FieldMapping{
			SourceFieldID:        m.SourceFieldID,
			TargetField:          m.TargetField,
			FieldType:            model.FieldType(m.FieldType),
			MappingType:          mappingType,
			TransformationConfig: m.Transformation,
			ValidationRules:      m.ValidationRules,
			DefaultValue:         m.DefaultValue,
			Required:             m.Required,
			IsActive:             true,
			Version:              1,
		})
	}
	return template, mappings, nil
}
