package fieldmap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scullers68/sprintintel/model"
)

// Rules is the decoded shape of a FieldMapping's validation-rules.
type Rules struct {
	MinValue      *float64
	MaxValue      *float64
	MinLength     *int
	MaxLength     *int
	Pattern       string
	AllowedValues []interface{}
}

// RulesFromConfig decodes a raw validation-rules JSONMap into Rules.
func RulesFromConfig(config map[string]interface{}) Rules {
	var r Rules
	if v, ok := numeric(config["min_value"]); ok {
		r.MinValue = &v
	}
	if v, ok := numeric(config["max_value"]); ok {
		r.MaxValue = &v
	}
	if v, ok := config["min_length"]; ok {
		if n, ok := numeric(v); ok {
			i := int(n)
			r.MinLength = &i
		}
	}
	if v, ok := config["max_length"]; ok {
		if n, ok := numeric(v); ok {
			i := int(n)
			r.MaxLength = &i
		}
	}
	if p, ok := config["pattern"].(string); ok {
		r.Pattern = p
	}
	if av, ok := config["allowed_values"].([]interface{}); ok {
		r.AllowedValues = av
	}
	return r
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ValidateValue checks value against rules and the declared field type,
// returning ok, any hard errors, any soft warnings, and a normalized value.
func ValidateValue(value interface{}, rules Rules, fieldType model.FieldType, required bool) (bool, []string, []string, interface{}) {
	var errors []string
	var warnings []string

	isEmpty := value == nil || value == ""
	if required && isEmpty {
		return false, []string{"value is required"}, nil, value
	}
	if isEmpty {
		return true, nil, nil, value
	}

	normalized, coerced, _ := coerce(value, fieldType)
	if !coerced {
		errors = append(errors, fmt.Sprintf("value %v is not coercible to type %s", value, fieldType))
	}

	if rules.MinValue != nil || rules.MaxValue != nil {
		if n, ok := numeric(normalized); ok {
			if rules.MinValue != nil && n < *rules.MinValue {
				errors = append(errors, fmt.Sprintf("value %v below minimum %v", n, *rules.MinValue))
			}
			if rules.MaxValue != nil && n > *rules.MaxValue {
				errors = append(errors, fmt.Sprintf("value %v above maximum %v", n, *rules.MaxValue))
			}
		} else {
			warnings = append(warnings, "numeric range rules skipped: value is not numeric")
		}
	}

	if s, ok := normalized.(string); ok {
		if rules.MinLength != nil && len(s) < *rules.MinLength {
			errors = append(errors, fmt.Sprintf("string shorter than minimum length %d", *rules.MinLength))
		}
		if rules.MaxLength != nil && len(s) > *rules.MaxLength {
			errors = append(errors, fmt.Sprintf("string longer than maximum length %d", *rules.MaxLength))
		}
		if rules.Pattern != "" {
			re, err := regexp.Compile(rules.Pattern)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("pattern %q is not a valid regex", rules.Pattern))
			} else if !re.MatchString(s) {
				errors = append(errors, fmt.Sprintf("value %q does not match pattern %q", s, rules.Pattern))
			}
		}
	}

	if len(rules.AllowedValues) > 0 {
		found := false
		for _, a := range rules.AllowedValues {
			if fmt.Sprintf("%v", a) == fmt.Sprintf("%v", normalized) {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, fmt.Sprintf("value %v is not among allowed values", normalized))
		}
	}

	return len(errors) == 0, errors, warnings, normalized
}

// strip is a small helper used by discovery to normalize field names for
// fuzzy matching against canonical target names.
func strip(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
