package reconcile

import (
	"slices"
	"strings"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// InferSignatories adds at most one signatory for a detected signature nobody was named
// for. It never modifies existing; out is always a fresh slice and added is nil when
// nothing was inferred.
//
// Rules, first match wins:
//   - exactly one of QA APPROVED / QC PASSED is present: the first unlisted name gets the
//     missing designation.
//   - a single listed entry and at least two distinct detected names: the first unlisted
//     name gets the complement of the existing designation, or SIGNATORY.
func InferSignatories(existing []entity.NamedSignatory, detected []string) ([]entity.NamedSignatory, *entity.NamedSignatory) {
	out := slices.Clone(existing)
	if out == nil {
		out = []entity.NamedSignatory{}
	}

	hasQA := hasDesignation(existing, constants.DesignationQAApproved)
	hasQC := hasDesignation(existing, constants.DesignationQCPassed)

	var add *entity.NamedSignatory
	switch {
	case hasQA != hasQC:
		name, ok := firstUnlisted(existing, detected)
		if !ok {
			break
		}
		designation := constants.DesignationQCPassed
		if hasQC {
			designation = constants.DesignationQAApproved
		}
		add = &entity.NamedSignatory{Name: name, Designation: designation}

	case len(existing) == 1 && len(distinct(detected)) >= 2:
		name, ok := firstUnlisted(existing, detected)
		if !ok {
			break
		}
		add = &entity.NamedSignatory{Name: name, Designation: complement(existing[0].Designation)}
	}

	if add != nil {
		out = append(out, *add)
	}
	return out, add
}

func hasDesignation(list []entity.NamedSignatory, designation string) bool {
	for _, n := range list {
		if n.Designation == designation {
			return true
		}
	}
	return false
}

// firstUnlisted returns the first detected name not contained in any listed name.
func firstUnlisted(list []entity.NamedSignatory, detected []string) (string, bool) {
	for _, d := range detected {
		needle := strings.ToLower(d)
		listed := slices.ContainsFunc(list, func(n entity.NamedSignatory) bool {
			return strings.Contains(strings.ToLower(n.Name), needle)
		})
		if !listed {
			return d, true
		}
	}
	return "", false
}

func complement(designation string) string {
	switch {
	case strings.Contains(designation, "QA"):
		return constants.DesignationQCPassed
	case strings.Contains(designation, "QC"):
		return constants.DesignationQAApproved
	default:
		return constants.DesignationSignatory
	}
}

func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
