package llm

import "github.com/joseph-ayodele/labreport-signatures/constants"

// BuildVerdictJSONSchema returns the closed schema a classifier answer must satisfy after
// NormalizeVerdict has run. Unknown keys are rejected.
func BuildVerdictJSONSchema() map[string]any {
	mark := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"kind"},
		"properties": map[string]any{
			"position_description": map[string]any{"type": "string"},
			"kind":                 map[string]any{"type": "string", "enum": constants.MarkKindsAsStrings()},
			"description":          map[string]any{"type": "string"},
			"characteristics":      stringList(),
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"is_signature", "confidence"},
		"properties": map[string]any{
			"is_signature":               map[string]any{"type": "boolean"},
			"confidence":                 map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"total_mark_count":           map[string]any{"type": "integer", "minimum": 0, "maximum": constants.MaxMarksPerImage},
			"full_signature_count":       map[string]any{"type": "integer", "minimum": 0, "maximum": constants.MaxMarksPerImage},
			"marks":                      map[string]any{"type": "array", "items": mark},
			"reasoning":                  map[string]any{"type": "string"},
			"signature_characteristics":  stringList(),
			"alternative_classification": map[string]any{"type": "string"},
		},
	}
}

// BuildEntitiesJSONSchema describes the entity extractor's answer. It is deliberately open:
// extra keys are allowed and nothing is required, since the reconciler fills defaults.
func BuildEntitiesJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"our_ref":                  str,
			"company_name":             str,
			"lab_report_creation_date": str,
			"subject":                  str,
			"sample_reference":         str,
			"names_and_designations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        str,
						"designation": str,
					},
				},
			},
			"test_results": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"parameter":     str,
						"unit":          str,
						"test_method":   str,
						"result":        str,
						"specification": str,
						"pass_fail":     str,
					},
				},
			},
		},
	}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}
