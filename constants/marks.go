package constants

import "strings"

// MarkKind is the classifier's label for a single handwritten or printed mark.
type MarkKind string

const (
	FullSignature MarkKind = "full_signature"
	Initials      MarkKind = "initials"
	Mark          MarkKind = "mark"
	Stamp         MarkKind = "stamp"
)

var allMarkKinds = []MarkKind{FullSignature, Initials, Mark, Stamp}

// MarkKindsAsStrings returns the enum used in the verdict JSON schema.
func MarkKindsAsStrings() []string {
	out := make([]string, len(allMarkKinds))
	for i, k := range allMarkKinds {
		out[i] = string(k)
	}
	return out
}

// CanonicalMarkKind folds case, spaces and dashes ("Full Signature", "full-signature").
func CanonicalMarkKind(input string) (MarkKind, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)

	synonyms := map[string]MarkKind{
		"signature":        FullSignature,
		"full":             FullSignature,
		"initial":          Initials,
		"seal":             Stamp,
		"printed_stamp":    Stamp,
		"simple_mark":      Mark,
		"handwritten_mark": Mark,
	}
	if k, ok := synonyms[s]; ok {
		return k, true
	}
	for _, k := range allMarkKinds {
		if s == string(k) {
			return k, true
		}
	}
	return MarkKind(s), false
}

// ImageSource tags where a classified image came from.
type ImageSource string

const (
	SourceEmbedded       ImageSource = "embedded"
	SourceLayoutDetected ImageSource = "layout_detected"
)

// Designations the reconciler knows how to pair.
const (
	DesignationQAApproved = "QA APPROVED"
	DesignationQCPassed   = "QC PASSED"
	DesignationSignatory  = "SIGNATORY"
)

// SignatureConfidenceThreshold is the inclusive minimum verdict confidence for counting.
const SignatureConfidenceThreshold = 0.5

// MaxMarksPerImage bounds the mark counts a single classified image may report.
const MaxMarksPerImage = 50
