package export

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

// SignatureRow is one counted signature in the columnar export.
type SignatureRow struct {
	DocumentPath      string  `parquet:"document_path"`
	DetectionMethod   string  `parquet:"detection_method"`
	SignatureID       string  `parquet:"signature_id"`
	PageNumber        int32   `parquet:"page_number"`
	Confidence        float64 `parquet:"confidence"`
	ImageSource       string  `parquet:"image_source"`
	SiblingCount      int32   `parquet:"total_full_signatures_in_image"`
	IndexInImage      int32   `parquet:"signature_index_in_image"`
	TotalMarksInImage int32   `parquet:"total_marks_in_image"`
	ImageSizeBytes    int64   `parquet:"image_data_size"`
	Position          string  `parquet:"position_description,optional"`
	Description       string  `parquet:"description,optional"`
	Reasoning         string  `parquet:"reasoning,optional"`
}

// SignatureRows flattens a report, one row per signature record.
func SignatureRows(report entity.SignatureReport) []SignatureRow {
	rows := make([]SignatureRow, 0, len(report.SignatureRecords))
	for _, r := range report.SignatureRecords {
		rows = append(rows, SignatureRow{
			DocumentPath:      report.DocumentPath,
			DetectionMethod:   report.DetectionMethod,
			SignatureID:       r.SignatureID,
			PageNumber:        int32(r.PageNumber),
			Confidence:        r.Confidence,
			ImageSource:       string(r.ImageSource),
			SiblingCount:      int32(r.SiblingCount),
			IndexInImage:      int32(r.IndexInImage),
			TotalMarksInImage: int32(r.TotalMarksInImage),
			ImageSizeBytes:    int64(r.ImageSizeBytes),
			Position:          r.Mark.Position,
			Description:       r.Mark.Description,
			Reasoning:         r.Reasoning,
		})
	}
	return rows
}

// WriteSignaturesParquet writes the report's signature records to path. A report without
// signatures still produces a valid, empty file.
func (s *Service) WriteSignaturesParquet(path string, report entity.SignatureReport) error {
	rows := SignatureRows(report)
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	s.logger.Info("export.parquet.ok", "path", path, "rows", len(rows))
	return nil
}
