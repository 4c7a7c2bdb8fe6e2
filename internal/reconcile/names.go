package reconcile

import (
	"regexp"

	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// nameToken matches `name` followed by a quoted token, e.g. Handwritten name 'LimmyT'.
var nameToken = regexp.MustCompile(`(?i)\bname\s+['"]([^'"]+)['"]`)

// ExtractNames returns every quoted name in a mark description, in order.
func ExtractNames(description string) []string {
	var out []string
	for _, m := range nameToken.FindAllStringSubmatch(description, -1) {
		out = append(out, m[1])
	}
	return out
}

// DetectedNames collects names from the descriptions of full-signature records.
func DetectedNames(report entity.SignatureReport) []string {
	var out []string
	for _, r := range report.SignatureRecords {
		if !r.Mark.IsFullSignature() {
			continue
		}
		out = append(out, ExtractNames(r.Mark.Description)...)
	}
	return out
}
