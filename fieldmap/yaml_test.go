package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scullers68/sprintintel/model"
)

func TestExportParseTemplateYAML_RoundTrip(t *testing.T) {
	template := &model.FieldMappingTemplate{Name: "Jira Default", Description: "baseline mapping", Version: 2}
	mappings := []model.FieldMapping{
		{
			SourceFieldID:        "summary",
			TargetField:          "title",
			FieldType:            model.FieldString,
			MappingType:          model.MappingDirect,
			IsActive:             true,
			TransformationConfig: model.JSONMap{"type": "direct"},
		},
		{
			SourceFieldID: "story_points",
			TargetField:   "points",
			FieldType:     model.FieldFloat,
			MappingType:   model.MappingTransformation,
			IsActive:      false, // must be excluded from export
		},
	}

	out, err := ExportTemplateYAML(template, mappings)
	require.NoError(t, err)
	assert.Contains(t, string(out), "name: Jira Default")

	parsedTemplate, parsedMappings, err := ParseTemplateYAML(out)
	require.NoError(t, err)
	assert.Equal(t, "Jira Default", parsedTemplate.Name)
	assert.Equal(t, "baseline mapping", parsedTemplate.Description)
	assert.Equal(t, 2, parsedTemplate.Version)

	require.Len(t, parsedMappings, 1, "inactive mappings must not round-trip")
	assert.Equal(t, "summary", parsedMappings[0].SourceFieldID)
	assert.Equal(t, "title", parsedMappings[0].TargetField)
	assert.True(t, parsedMappings[0].IsActive)
}

func TestParseTemplateYAML_MissingName(t *testing.T) {
	_, _, err := ParseTemplateYAML([]byte("version: 1\nmappings: []\n"))
	require.Error(t, err)
}

func TestParseTemplateYAML_MappingMissingFields(t *testing.T) {
	doc := []byte(`
name: Broken
mappings:
  - target_field: title
`)
	_, _, err := ParseTemplateYAML(doc)
	require.Error(t, err)
}

func TestParseTemplateYAML_DefaultsVersionAndMappingType(t *testing.T) {
	doc := []byte(`
name: Minimal
mappings:
  - source_field_id: summary
    target_field: title
    field_type: string
`)
	template, mappings, err := ParseTemplateYAML(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, template.Version)
	require.Len(t, mappings, 1)
	assert.Equal(t, model.MappingDirect, mappings[0].MappingType)
	assert.True(t, mappings[0].IsActive)
}
