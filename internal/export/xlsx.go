package export

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
)

const (
	reportSheet = "Lab Test Report"
	reportTitle = "Laboratory Test Report"
	generatedBy = "Lab Report Signature Checker"
	lastColumn  = "F"
)

// Service renders reconciled results into files people open outside the tool.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

type reportStyles struct {
	title, section, label, header, cell, cellLeft int
}

// BuildLabReportXLSX returns the workbook bytes: sample information, signatures, the test
// results table, the compliance line and a generated-at footer.
func (s *Service) BuildLabReportXLSX(e entity.ReconciledEntities) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newReportStyles(f)
	if err != nil {
		return nil, fmt.Errorf("xlsx styles: %w", err)
	}

	w := &sheetWriter{f: f, sheet: reportSheet}

	w.set(1, 1, reportTitle)
	w.merge(1)
	w.style(1, 1, 1, st.title)

	row := 3
	row = w.section(row, "SAMPLE INFORMATION", st.section)
	for _, kv := range [][2]string{
		{"Our Reference:", e.OurRef},
		{"Company:", e.CompanyName},
		{"Date:", e.LabReportCreationDate},
		{"Subject:", e.Subject},
		{"Sample Reference:", e.SampleReference},
	} {
		row = w.field(row, kv[0], kv[1], st.label)
	}

	row++
	row = w.section(row, "SIGNATURES", st.section)
	for i, n := range e.NamesAndDesignations {
		row = w.field(row, fmt.Sprintf("Signatory %d:", i+1), n.String(), st.label)
	}
	row = w.field(row, "Expected Signatures:", strconv.Itoa(e.ExpectedSignatures), st.label)
	row = w.field(row, "Actual Signatures:", strconv.Itoa(e.ActualSignatures), st.label)
	row = w.field(row, "Is There Signature:", string(e.IsThereSignature), st.label)

	row++
	row = w.section(row, "TEST RESULTS", st.section)
	for col, h := range []string{"Parameter", "Unit", "Method", "Result", "Specification", "Pass/Fail"} {
		w.set(col+1, row, h)
	}
	w.style(1, row, 6, st.header)
	row++
	for _, t := range e.TestResults {
		for col, v := range []string{t.Parameter, t.Unit, t.Method, t.Result, t.Specification, t.PassFail} {
			w.set(col+1, row, v)
		}
		w.style(1, row, 1, st.cellLeft)
		w.style(2, row, 6, st.cell)
		row++
	}

	row++
	row = w.field(row, "Results Comply:", string(e.ResultsComply), st.label)

	row += 2
	row = w.field(row, "Generated by:", generatedBy, st.label)
	w.field(row, "Date:", s.now().Format("02/01/2006 03:04:05 PM"), st.label)

	for col, width := range map[string]float64{"A": 25, "B": 15, "C": 30, "D": 15, "E": 22, "F": 12} {
		_ = f.SetColWidth(reportSheet, col, col, width)
	}

	if w.err != nil {
		return nil, fmt.Errorf("xlsx build: %w", w.err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(e.TestResults),
		"signatories", len(e.NamesAndDesignations),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func newReportStyles(f *excelize.File) (reportStyles, error) {
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	fill := excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1}

	var st reportStyles
	for _, d := range []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: center}},
		{&st.section, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: center, Fill: fill}},
		{&st.label, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: left}},
		{&st.header, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: center, Border: thin, Fill: fill}},
		{&st.cell, &excelize.Style{Alignment: center, Border: thin}},
		{&st.cellLeft, &excelize.Style{Alignment: left, Border: thin}},
	} {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, err
		}
		*d.dst = id
	}
	return st, nil
}

// sheetWriter keeps the first error so the layout code reads top to bottom.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

func (w *sheetWriter) set(col, row int, v any) {
	if err := w.f.SetCellValue(w.sheet, w.cell(col, row), v); err != nil && w.err == nil {
		w.err = err
	}
}

func (w *sheetWriter) style(fromCol, row, toCol, id int) {
	if err := w.f.SetCellStyle(w.sheet, w.cell(fromCol, row), w.cell(toCol, row), id); err != nil && w.err == nil {
		w.err = err
	}
}

// merge spans A..F on one row.
func (w *sheetWriter) merge(row int) {
	w.mergeFrom("A", row)
}

func (w *sheetWriter) mergeFrom(col string, row int) {
	r := strconv.Itoa(row)
	if err := w.f.MergeCell(w.sheet, col+r, lastColumn+r); err != nil && w.err == nil {
		w.err = err
	}
}

func (w *sheetWriter) section(row int, title string, id int) int {
	w.set(1, row, title)
	w.merge(row)
	w.style(1, row, 1, id)
	return row + 1
}

func (w *sheetWriter) field(row int, label, value string, labelStyle int) int {
	w.set(1, row, label)
	w.style(1, row, 1, labelStyle)
	w.set(2, row, value)
	w.mergeFrom("B", row)
	return row + 1
}
