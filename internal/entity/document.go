package entity

import (
	"strings"

	"github.com/joseph-ayodele/labreport-signatures/constants"
)

// NamedSignatory is a person expected to have signed the report.
type NamedSignatory struct {
	Name        string `json:"name" yaml:"name"`
	Designation string `json:"designation" yaml:"designation"`
}

// String renders "name - designation".
func (n NamedSignatory) String() string {
	return n.Name + " - " + n.Designation
}

// TestResultRecord is one row of the report's results table.
type TestResultRecord struct {
	Parameter     string `json:"parameter" yaml:"parameter"`
	Unit          string `json:"unit" yaml:"unit"`
	Method        string `json:"test_method" yaml:"test_method"`
	Result        string `json:"result" yaml:"result"`
	Specification string `json:"specification" yaml:"specification"`
	PassFail      string `json:"pass_fail" yaml:"pass_fail"`
}

// Failed reports a case-insensitive "Fail".
func (t TestResultRecord) Failed() bool {
	return strings.EqualFold(strings.TrimSpace(t.PassFail), constants.PassFailFail)
}

// Passed reports a case-insensitive "Pass".
func (t TestResultRecord) Passed() bool {
	return strings.EqualFold(strings.TrimSpace(t.PassFail), constants.PassFailPass)
}

// ExtractedEntities is the text-extraction output the reconciler consumes.
type ExtractedEntities struct {
	OurRef                string             `json:"our_ref"`
	CompanyName           string             `json:"company_name"`
	LabReportCreationDate string             `json:"lab_report_creation_date"`
	Subject               string             `json:"subject"`
	SampleReference       string             `json:"sample_reference"`
	NamesAndDesignations  []NamedSignatory   `json:"names_and_designations"`
	TestResults           []TestResultRecord `json:"test_results"`
}

// SignatureValidationDetails explains how the signature counts compare.
type SignatureValidationDetails struct {
	NamesFound            []string `json:"names_found" yaml:"names_found"`
	SignatureCountMatches bool     `json:"signature_count_matches" yaml:"signature_count_matches"`
	TestResultsComply     bool     `json:"test_results_comply" yaml:"test_results_comply"`
	ValidationNote        string   `json:"validation_note" yaml:"validation_note"`
}

// ReconciledEntities is the persisted per-document result.
type ReconciledEntities struct {
	OurRef                     string                     `json:"our_ref" yaml:"our_ref"`
	CompanyName                string                     `json:"company_name" yaml:"company_name"`
	LabReportCreationDate      string                     `json:"lab_report_creation_date" yaml:"lab_report_creation_date"`
	Subject                    string                     `json:"subject" yaml:"subject"`
	SampleReference            string                     `json:"sample_reference" yaml:"sample_reference"`
	NamesAndDesignations       []NamedSignatory           `json:"names_and_designations" yaml:"names_and_designations"`
	ExpectedSignatures         int                        `json:"expected_signatures" yaml:"expected_signatures"`
	ActualSignatures           int                        `json:"actual_signatures" yaml:"actual_signatures"`
	IsThereSignature           constants.Verdict          `json:"is_there_signature" yaml:"is_there_signature"`
	ResultsComply              constants.Verdict          `json:"results_comply" yaml:"results_comply"`
	TestResults                []TestResultRecord         `json:"test_results" yaml:"test_results"`
	SignatureValidationDetails SignatureValidationDetails `json:"signature_validation_details" yaml:"signature_validation_details"`
	SignatureDetection         *SignatureReport           `json:"signature_detection,omitempty" yaml:"-"`
}

// ResultCounts tallies pass and fail rows.
type ResultCounts struct {
	Total  int `yaml:"total"`
	Passed int `yaml:"passed"`
	Failed int `yaml:"failed"`
}

// Counts returns pass/fail tallies for the summary output.
func (r ReconciledEntities) Counts() ResultCounts {
	c := ResultCounts{Total: len(r.TestResults)}
	for _, t := range r.TestResults {
		switch {
		case t.Passed():
			c.Passed++
		case t.Failed():
			c.Failed++
		}
	}
	return c
}
