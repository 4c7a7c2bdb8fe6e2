package constants

// Verdict is the Yes/No value stored for document-level checks.
type Verdict string

const (
	Yes Verdict = "Yes"
	No  Verdict = "No"
)

// VerdictOf maps a boolean onto the stored Yes/No representation.
func VerdictOf(b bool) Verdict {
	if b {
		return Yes
	}
	return No
}

// NotFound is the placeholder for any entity string the extractor could not locate.
const NotFound = "Not found"

// Pass/fail values a test result may carry.
const (
	PassFailPass = "Pass"
	PassFailFail = "Fail"
)
