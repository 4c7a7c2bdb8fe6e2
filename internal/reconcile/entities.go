package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

const unknownName = "Unknown"

// ParseEntities decodes extracted-entities JSON. Anything but a JSON object is a
// StructuralInputError; missing fields take their defaults.
func ParseEntities(raw []byte) (entity.ExtractedEntities, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entity.ExtractedEntities{}, &common.StructuralInputError{Reason: "entities are not valid JSON", Cause: err}
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return entity.ExtractedEntities{}, &common.StructuralInputError{Reason: fmt.Sprintf("entities must be a JSON object, got %s", kindOf(doc))}
	}
	return FromMap(m)
}

// FromMap builds entities from an already decoded object. Scalar fields default to
// "Not found". List entries that are not objects are skipped.
func FromMap(m map[string]any) (entity.ExtractedEntities, error) {
	if m == nil {
		return entity.ExtractedEntities{}, &common.StructuralInputError{Reason: "entities must be a JSON object, got null"}
	}

	out := entity.ExtractedEntities{
		OurRef:                stringField(m, "our_ref", constants.NotFound),
		CompanyName:           stringField(m, "company_name", constants.NotFound),
		LabReportCreationDate: stringField(m, "lab_report_creation_date", constants.NotFound),
		Subject:               stringField(m, "subject", constants.NotFound),
		SampleReference:       stringField(m, "sample_reference", constants.NotFound),
		NamesAndDesignations:  []entity.NamedSignatory{},
		TestResults:           []entity.TestResultRecord{},
	}

	names, err := listField(m, "names_and_designations")
	if err != nil {
		return entity.ExtractedEntities{}, err
	}
	for _, n := range names {
		out.NamesAndDesignations = append(out.NamesAndDesignations, entity.NamedSignatory{
			Name:        stringField(n, "name", unknownName),
			Designation: stringField(n, "designation", ""),
		})
	}

	results, err := listField(m, "test_results")
	if err != nil {
		return entity.ExtractedEntities{}, err
	}
	for _, r := range results {
		out.TestResults = append(out.TestResults, entity.TestResultRecord{
			Parameter:     stringField(r, "parameter", ""),
			Unit:          stringField(r, "unit", ""),
			Method:        stringField(r, "test_method", ""),
			Result:        stringField(r, "result", ""),
			Specification: stringField(r, "specification", ""),
			PassFail:      stringField(r, "pass_fail", ""),
		})
	}
	return out, nil
}

// listField returns the object entries of a list. A missing or null list is empty; any
// other non-list value is structural.
func listField(m map[string]any, key string) ([]map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &common.StructuralInputError{Reason: fmt.Sprintf("%s must be a list, got %s", key, kindOf(v))}
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func stringField(m map[string]any, key, def string) string {
	switch v := m[key].(type) {
	case nil:
		return def
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
