// Package reconcile merges text-extracted entities with a signature report into the
// persisted per-document result.
package reconcile

import (
	"fmt"
	"slices"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// Reconcile derives the signature and compliance fields. A nil report means detection was
// not run: actual signatures are 0 and signature_detection is omitted.
func Reconcile(e entity.ExtractedEntities, report *entity.SignatureReport) entity.ReconciledEntities {
	names := slices.Clone(e.NamesAndDesignations)
	if names == nil {
		names = []entity.NamedSignatory{}
	}

	actual := 0
	if report != nil {
		actual = report.SignaturesFound
	}
	if report != nil && actual > len(names) {
		names, _ = InferSignatories(names, DetectedNames(*report))
	}
	expected := len(names)

	results := slices.Clone(e.TestResults)
	if results == nil {
		results = []entity.TestResultRecord{}
	}
	comply := TestResultsComply(results)

	found := make([]string, 0, len(names))
	for _, n := range names {
		found = append(found, namesFoundLabel(n))
	}

	return entity.ReconciledEntities{
		OurRef:                e.OurRef,
		CompanyName:           e.CompanyName,
		LabReportCreationDate: e.LabReportCreationDate,
		Subject:               e.Subject,
		SampleReference:       e.SampleReference,
		NamesAndDesignations:  names,
		ExpectedSignatures:    expected,
		ActualSignatures:      actual,
		IsThereSignature:      constants.VerdictOf(actual > 0),
		ResultsComply:         constants.VerdictOf(comply),
		TestResults:           results,
		SignatureValidationDetails: entity.SignatureValidationDetails{
			NamesFound:            found,
			SignatureCountMatches: expected > 0 && actual == expected,
			TestResultsComply:     comply,
			ValidationNote: fmt.Sprintf(
				"Expected %d signatures based on names/designations, found %d signatures. Test results comply: %t",
				expected, actual, comply),
		},
		SignatureDetection: report,
	}
}

// ReconcileRaw parses raw entities JSON and reconciles it. Structural errors are returned
// unchanged.
func ReconcileRaw(raw []byte, report *entity.SignatureReport) (entity.ReconciledEntities, error) {
	e, err := ParseEntities(raw)
	if err != nil {
		return entity.ReconciledEntities{}, err
	}
	return Reconcile(e, report), nil
}

// TestResultsComply is false as soon as one row is a case-insensitive "Fail". An empty
// table complies.
func TestResultsComply(results []entity.TestResultRecord) bool {
	return !slices.ContainsFunc(results, entity.TestResultRecord.Failed)
}

func namesFoundLabel(n entity.NamedSignatory) string {
	if n.Designation == "" {
		n.Designation = unknownName
	}
	return n.String()
}
