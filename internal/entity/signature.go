package entity

import (
	"fmt"
	"strconv"

	"github.com/joseph-ayodele/labreport-signatures/constants"
)

// SignatureRecord is one counted full signature.
type SignatureRecord struct {
	SignatureID       string                `json:"signature_id"`
	PageNumber        int                   `json:"page_number"`
	Confidence        float64               `json:"confidence"`
	Kind              constants.MarkKind    `json:"signature_type"`
	ImageSource       constants.ImageSource `json:"image_source"`
	SiblingCount      int                   `json:"total_full_signatures_in_image"`
	IndexInImage      int                   `json:"signature_index_in_image"`
	TotalMarksInImage int                   `json:"total_marks_in_image"`
	ImageSizeBytes    int                   `json:"image_data_size"`
	Mark              MarkRecord            `json:"individual_signature_info"`
	Reasoning         string                `json:"reasoning,omitempty"`
}

// SignatureReport is the per-document output of a detection run.
type SignatureReport struct {
	DocumentPath        string            `json:"pdf_path,omitempty"`
	DetectionMethod     string            `json:"detection_method,omitempty"`
	ImagesExamined      int               `json:"total_images_detected"`
	EmbeddedImagesFound int               `json:"embedded_images_found"`
	SignaturesFound     int               `json:"signatures_found"`
	SignatureRecords    []SignatureRecord `json:"signature_details"`
	ProcessingErrors    []string          `json:"processing_errors"`
}

// NewSignatureReport returns an empty report with non-nil slices so it serializes as [].
func NewSignatureReport(path, method string) SignatureReport {
	return SignatureReport{
		DocumentPath:     path,
		DetectionMethod:  method,
		SignatureRecords: []SignatureRecord{},
		ProcessingErrors: []string{},
	}
}

// Validate checks the count invariant between SignaturesFound and the records.
func (r SignatureReport) Validate() error {
	if r.SignaturesFound != len(r.SignatureRecords) {
		return fmt.Errorf("signatures_found=%d but %d signature records", r.SignaturesFound, len(r.SignatureRecords))
	}
	return nil
}

// PageLabel prints a page number, or "unknown" for 0.
func PageLabel(page int) string {
	if page <= 0 {
		return "unknown"
	}
	return strconv.Itoa(page)
}
