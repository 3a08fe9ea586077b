// Package fieldmap translates raw tracker records into canonical domain
// fields using versioned, configurable mapping templates.
package fieldmap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scullers68/sprintintel/errs"
	"github.com/scullers68/sprintintel/model"
)

// TransformFunc applies one named transformation to a raw value given its
// transformation-config.
type TransformFunc func(raw interface{}, config map[string]interface{}) (interface{}, error)

// registry maps a transformation-config "type" key to its implementation.
var registry = map[string]TransformFunc{
	"direct":                transformDirect,
	"extract_object_value":  transformExtractObjectValue,
	"string_format":         transformStringFormat,
	"numeric_conversion":    transformNumericConversion,
	"date_format":           transformDateFormat,
	"conditional":           transformConditional,
}

func transformDirect(raw interface{}, _ map[string]interface{}) (interface{}, error) {
	return raw, nil
}

func transformExtractObjectValue(raw interface{}, config map[string]interface{}) (interface{}, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errs.Validation("extract_object_value requires an object input")
	}
	key := "value"
	if k, ok := config["key"].(string); ok && k != "" {
		key = k
	}
	return obj[key], nil
}

func transformStringFormat(raw interface{}, config map[string]interface{}) (interface{}, error) {
	template, _ := config["template"].(string)
	if template == "" {
		return fmt.Sprintf("%v", raw), nil
	}
	return strings.ReplaceAll(template, "{value}", fmt.Sprintf("%v", raw)), nil
}

func transformNumericConversion(raw interface{}, config map[string]interface{}) (interface{}, error) {
	def := config["default"]
	if def == nil {
		def = 0
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
		return def, nil
	default:
		return def, nil
	}
}

func transformDateFormat(raw interface{}, config map[string]interface{}) (interface{}, error) {
	inputFormat, _ := config["input_format"].(string)
	outputFormat, _ := config["output_format"].(string)
	if inputFormat == "" {
		inputFormat = time.RFC3339
	}
	if outputFormat == "" {
		outputFormat = time.RFC3339
	}
	s, ok := raw.(string)
	if !ok {
		return nil, errs.Validation("date_format requires a string input")
	}
	t, err := time.Parse(inputFormat, s)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("date_format: cannot parse %q with layout %q", s, inputFormat))
	}
	return t.Format(outputFormat), nil
}

func transformConditional(raw interface{}, config map[string]interface{}) (interface{}, error) {
	rawConds, _ := config["conditions"].([]interface{})
	for _, c := range rawConds {
		cond, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		operator, _ := cond["operator"].(string)
		if evaluateCondition(operator, raw, cond["value"]) {
			return cond["result"], nil
		}
	}
	return config["default"], nil
}

func evaluateCondition(operator string, value, target interface{}) bool {
	vs := fmt.Sprintf("%v", value)
	ts := fmt.Sprintf("%v", target)
	switch operator {
	case "equals":
		return vs == ts
	case "not_equals":
		return vs != ts
	case "contains":
		return strings.Contains(vs, ts)
	case "starts_with":
		return strings.HasPrefix(vs, ts)
	case "ends_with":
		return strings.HasSuffix(vs, ts)
	case "greater_than":
		vf, verr := strconv.ParseFloat(vs, 64)
		tf, terr := strconv.ParseFloat(ts, 64)
		return verr == nil && terr == nil && vf > tf
	case "less_than":
		vf, verr := strconv.ParseFloat(vs, 64)
		tf, terr := strconv.ParseFloat(ts, 64)
		return verr == nil && terr == nil && vf < tf
	default:
		return false
	}
}

// TransformValue applies the named transformation in transformConfig
// ("type" key selects the registered TransformFunc; "direct" if absent),
// then coerces the result to fieldType on a best-effort basis.
func TransformValue(raw interface{}, fieldType model.FieldType, transformConfig map[string]interface{}) (interface{}, bool, error) {
	transformType := "direct"
	if transformConfig != nil {
		if t, ok := transformConfig["type"].(string); ok && t != "" {
			transformType = t
		}
	}
	fn, ok := registry[transformType]
	if !ok {
		return nil, false, errs.Validation(fmt.Sprintf("unknown transformation type %q", transformType))
	}
	transformed, err := fn(raw, transformConfig)
	if err != nil {
		return nil, false, err
	}
	return coerce(transformed, fieldType)
}

// coerce attempts to convert value to fieldType, returning the original
// (pre-coercion) value with ok=false when coercion cannot be performed.
func coerce(value interface{}, fieldType model.FieldType) (interface{}, bool, error) {
	if value == nil {
		return nil, true, nil
	}
	switch fieldType {
	case model.FieldString:
		return fmt.Sprintf("%v", value), true, nil
	case model.FieldInteger:
		switch v := value.(type) {
		case float64:
			return int64(v), true, nil
		case int64:
			return v, true, nil
		case int:
			return int64(v), true, nil
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true, nil
			}
		}
		return value, false, nil
	case model.FieldFloat:
		switch v := value.(type) {
		case float64:
			return v, true, nil
		case int:
			return float64(v), true, nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true, nil
			}
		}
		return value, false, nil
	case model.FieldBoolean:
		if b, ok := value.(bool); ok {
			return b, true, nil
		}
		s := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
		switch s {
		case "true", "1", "yes", "on":
			return true, true, nil
		case "false", "0", "no", "off":
			return false, true, nil
		}
		return value, false, nil
	case model.FieldList, model.FieldObject:
		return value, true, nil
	case model.FieldDate, model.FieldDatetime:
		if _, ok := value.(string); ok {
			return value, true, nil
		}
		return value, false, nil
	default:
		return value, true, nil
	}
}
