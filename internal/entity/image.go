package entity

import "github.com/joseph-ayodele/labreport-signatures/constants"

// ImageCandidate is one image handed to the signature classifier. It lives for a single
// detection run only.
type ImageCandidate struct {
	Index      int                   `json:"index"`       // position in document order
	PageNumber int                   `json:"page_number"` // 1-based; 0 when unknown
	Source     constants.ImageSource `json:"source"`
	Format     string                `json:"format,omitempty"` // png | jpeg | ...
	Data       []byte                `json:"-"`
	SizeBytes  int                   `json:"size_bytes"`
}

// PageLabel renders the page number the way reports print it.
func (c ImageCandidate) PageLabel() string {
	return PageLabel(c.PageNumber)
}

// MarkRecord is one mark the classifier itemized inside an image.
type MarkRecord struct {
	Position        string             `json:"position_description"`
	Kind            constants.MarkKind `json:"kind"`
	Description     string             `json:"description"`
	Characteristics []string           `json:"characteristics,omitempty"`
}

// IsFullSignature reports whether the mark counts toward document signature totals.
func (m MarkRecord) IsFullSignature() bool {
	return m.Kind == constants.FullSignature
}

// ClassificationVerdict is the validated classifier answer for one image.
type ClassificationVerdict struct {
	IsSignature               bool         `json:"is_signature"`
	Confidence                float64      `json:"confidence"`
	TotalMarkCount            int          `json:"total_mark_count"`
	FullSignatureCount        int          `json:"full_signature_count,omitempty"`
	Marks                     []MarkRecord `json:"marks"`
	Reasoning                 string       `json:"reasoning,omitempty"`
	Characteristics           []string     `json:"signature_characteristics,omitempty"`
	AlternativeClassification string       `json:"alternative_classification,omitempty"`
}
