package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scullers68/sprintintel/model"
)

func TestTransformValue_Direct(t *testing.T) {
	value, ok, err := TransformValue("hello", model.FieldString, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", value)
}

func TestTransformValue_ExtractObjectValue(t *testing.T) {
	raw := map[string]interface{}{"value": "In Progress", "id": "3"}
	value, ok, err := TransformValue(raw, model.FieldString, map[string]interface{}{
		"type": "extract_object_value",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "In Progress", value)
}

func TestTransformValue_ExtractObjectValue_RejectsNonObject(t *testing.T) {
	_, _, err := TransformValue("not-an-object", model.FieldString, map[string]interface{}{
		"type": "extract_object_value",
	})
	require.Error(t, err)
}

func TestTransformValue_NumericConversion(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want float64
	}{
		{"float", 3.5, 3.5},
		{"int", 4, 4},
		{"numeric_string", "2.25", 2.25},
		{"unparseable_string_uses_default", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok, err := TransformValue(tt.raw, model.FieldFloat, map[string]interface{}{
				"type": "numeric_conversion",
			})
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestTransformValue_DateFormat(t *testing.T) {
	value, ok, err := TransformValue("2024-01-15T10:00:00Z", model.FieldString, map[string]interface{}{
		"type":          "date_format",
		"input_format":  "2006-01-02T15:04:05Z07:00",
		"output_format": "2006-01-02",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-15", value)
}

func TestTransformValue_DateFormat_RejectsNonString(t *testing.T) {
	_, _, err := TransformValue(42, model.FieldString, map[string]interface{}{"type": "date_format"})
	require.Error(t, err)
}

func TestTransformValue_Conditional(t *testing.T) {
	config := map[string]interface{}{
		"type": "conditional",
		"conditions": []interface{}{
			map[string]interface{}{"operator": "equals", "value": "Done", "result": "closed"},
			map[string]interface{}{"operator": "equals", "value": "In Progress", "result": "open"},
		},
		"default": "unknown",
	}
	value, ok, err := TransformValue("Done", model.FieldString, config)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "closed", value)

	value, _, err = TransformValue("Blocked", model.FieldString, config)
	require.NoError(t, err)
	assert.Equal(t, "unknown", value)
}

func TestTransformValue_UnknownType(t *testing.T) {
	_, _, err := TransformValue("x", model.FieldString, map[string]interface{}{"type": "does_not_exist"})
	require.Error(t, err)
}

func TestCoerce_Integer(t *testing.T) {
	value, ok, err := TransformValue("42", model.FieldInteger, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), value)
}

func TestCoerce_Boolean(t *testing.T) {
	tests := []struct {
		raw  interface{}
		want bool
	}{
		{"true", true},
		{"yes", true},
		{"0", false},
		{"off", false},
	}
	for _, tt := range tests {
		value, ok, err := TransformValue(tt.raw, model.FieldBoolean, nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, tt.want, value)
	}
}

func TestCoerce_NilPassesThrough(t *testing.T) {
	value, ok, err := TransformValue(nil, model.FieldString, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, value)
}
