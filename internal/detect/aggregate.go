package detect

import (
	"fmt"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// Outcome is the classifier result for one candidate: a verdict or an error.
type Outcome struct {
	Verdict entity.ClassificationVerdict
	Err     error
}

// Aggregate folds per-candidate outcomes into a report. outcomes[i] belongs to
// candidates[i]; signature ids follow candidate order, so the result does not depend on
// the order classifications finished in. It is a pure function of its inputs.
func Aggregate(candidates []entity.ImageCandidate, outcomes []Outcome, threshold float64) entity.SignatureReport {
	report := entity.NewSignatureReport("", "")
	report.ImagesExamined = len(candidates)

	for i, c := range candidates {
		if i >= len(outcomes) {
			break
		}
		o := outcomes[i]
		if o.Err != nil {
			report.ProcessingErrors = append(report.ProcessingErrors,
				fmt.Sprintf("Error processing image %d: %v", c.Index+1, o.Err))
			continue
		}
		if !qualifies(o.Verdict, threshold) {
			continue
		}
		if n := o.Verdict.TotalMarkCount; n > constants.MaxMarksPerImage {
			report.ProcessingErrors = append(report.ProcessingErrors,
				fmt.Sprintf("Error processing image %d: classifier reported %d marks, limit is %d", c.Index+1, n, constants.MaxMarksPerImage))
			continue
		}

		marks := fullSignatureMarks(o.Verdict)
		totalMarks := o.Verdict.TotalMarkCount
		if totalMarks == 0 {
			totalMarks = len(o.Verdict.Marks)
		}
		for k, m := range marks {
			report.SignatureRecords = append(report.SignatureRecords, entity.SignatureRecord{
				SignatureID:       fmt.Sprintf("sig_%d", len(report.SignatureRecords)+1),
				PageNumber:        c.PageNumber,
				Confidence:        o.Verdict.Confidence,
				Kind:              constants.FullSignature,
				ImageSource:       c.Source,
				SiblingCount:      len(marks),
				IndexInImage:      k + 1,
				TotalMarksInImage: totalMarks,
				ImageSizeBytes:    c.SizeBytes,
				Mark:              m,
				Reasoning:         o.Verdict.Reasoning,
			})
		}
	}

	report.SignaturesFound = len(report.SignatureRecords)
	return report
}

// qualifies applies the inclusive confidence threshold.
func qualifies(v entity.ClassificationVerdict, threshold float64) bool {
	return v.IsSignature && v.Confidence >= threshold
}

// fullSignatureMarks returns the marks that count. A positive verdict that reports a total
// but itemizes nothing counts the total, each as an otherwise empty full_signature mark.
func fullSignatureMarks(v entity.ClassificationVerdict) []entity.MarkRecord {
	if len(v.Marks) == 0 {
		if !v.IsSignature || v.TotalMarkCount <= 0 {
			return nil
		}
		out := make([]entity.MarkRecord, v.TotalMarkCount)
		for i := range out {
			out[i] = entity.MarkRecord{Kind: constants.FullSignature}
		}
		return out
	}

	var out []entity.MarkRecord
	for _, m := range v.Marks {
		if m.IsFullSignature() {
			out = append(out, m)
		}
	}
	return out
}
