package fieldmap

import (
	"sort"
	"strings"
)

// Suggestion is a ranked candidate mapping produced by sampling raw
// tracker records.
type Suggestion struct {
	SourceFieldID   string
	FieldName       string
	SuggestedTarget string
	FieldType       string
	UsageCount      int
	Confidence      float64
	SampleValues    []interface{}
}

var highConfidencePatterns = []string{"story point", "team", "discipline", "epic", "priority", "component"}
var mediumConfidencePatterns = []string{"version", "label", "environment", "due", "estimate"}

// suggestTargetField guesses a canonical target field name from a raw
// field's display name.
func suggestTargetField(fieldName string) string {
	name := strip(fieldName)
	switch {
	case strings.Contains(name, "story point") || strings.Contains(name, "points"):
		return "story_points"
	case strings.Contains(name, "team") || strings.Contains(name, "discipline"):
		return "discipline_team"
	case strings.Contains(name, "epic"):
		return "epic_name"
	case strings.Contains(name, "priority"):
		return "priority"
	case strings.Contains(name, "component"):
		return "components"
	case strings.Contains(name, "version"):
		return "fix_versions"
	case strings.Contains(name, "label"):
		return "labels"
	case strings.Contains(name, "environment"):
		return "environment"
	case strings.Contains(name, "due") || strings.Contains(name, "deadline"):
		return "due_date"
	case strings.Contains(name, "estimate"):
		return "time_estimate"
	default:
		return strings.ReplaceAll(strings.ReplaceAll(name, " ", "_"), "-", "_")
	}
}

// confidence scores a suggestion by usage frequency (max score at 5+
// observed uses) and name-pattern clarity.
func confidence(usageCount int, fieldName string) float64 {
	usageScore := float64(usageCount) / 5.0
	if usageScore > 1.0 {
		usageScore = 1.0
	}

	name := strip(fieldName)
	nameScore := 0.0
	for _, p := range highConfidencePatterns {
		if strings.Contains(name, p) {
			nameScore = 1.0
			break
		}
	}
	if nameScore == 0 {
		for _, p := range mediumConfidencePatterns {
			if strings.Contains(name, p) {
				nameScore = 0.6
				break
			}
		}
	}

	return usageScore*0.5 + nameScore*0.5
}

type fieldObservation struct {
	fieldName string
	values    []interface{}
}

// DiscoverMappings analyzes sample raw tracker records (the "fields" map
// of each issue) and produces ranked field-mapping suggestions, confidence
// derived from usage frequency and name-pattern clarity.
func DiscoverMappings(samples []map[string]interface{}) []Suggestion {
	observed := make(map[string]*fieldObservation)
	order := make([]string, 0)

	for _, sample := range samples {
		for fieldID, value := range sample {
			if value == nil {
				continue
			}
			obs, ok := observed[fieldID]
			if !ok {
				obs = &fieldObservation{fieldName: fieldID}
				observed[fieldID] = obs
				order = append(order, fieldID)
			}
			obs.values = append(obs.values, value)
		}
	}

	suggestions := make([]Suggestion, 0, len(order))
	for _, fieldID := range order {
		obs := observed[fieldID]
		usage := len(obs.values)
		sampleValues := obs.values
		if len(sampleValues) > 3 {
			sampleValues = sampleValues[:3]
		}
		suggestions = append(suggestions, Suggestion{
			SourceFieldID:   fieldID,
			FieldName:       obs.fieldName,
			SuggestedTarget: suggestTargetField(obs.fieldName),
			FieldType:       inferType(obs.values),
			UsageCount:      usage,
			Confidence:      confidence(usage, obs.fieldName),
			SampleValues:    sampleValues,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].UsageCount > suggestions[j].UsageCount
	})

	return suggestions
}

func inferType(values []interface{}) string {
	if len(values) == 0 {
		return "string"
	}
	switch values[0].(type) {
	case float64, int:
		return "float"
	case bool:
		return "boolean"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "object"
	default:
		return "string"
	}
}
