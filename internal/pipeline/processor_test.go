package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/export"
	"github.com/joseph-ayodele/labreport-signatures/internal/images"
	"github.com/joseph-ayodele/labreport-signatures/internal/ocr"
	"github.com/joseph-ayodele/labreport-signatures/internal/repository"
)

type mockText struct {
	res ocr.ExtractionResult
	err error
}

func (m mockText) Extract(context.Context, string) (ocr.ExtractionResult, error) { return m.res, m.err }

type mockEntities struct {
	raw string
	err error
	got string
}

func (m *mockEntities) ExtractEntities(_ context.Context, text string) ([]byte, error) {
	m.got = text
	return []byte(m.raw), m.err
}

type mockDetector struct {
	report entity.SignatureReport
	calls  int
}

func (m *mockDetector) Detect(_ context.Context, doc images.Document) entity.SignatureReport {
	m.calls++
	r := m.report
	r.DocumentPath = doc.Path
	return r
}

type mockStore struct {
	saved []repository.DocumentResult
	err   error
}

func (m *mockStore) Save(_ context.Context, r repository.DocumentResult) (uuid.UUID, error) {
	if m.err != nil {
		return uuid.Nil, m.err
	}
	m.saved = append(m.saved, r)
	return uuid.New(), nil
}
func (m *mockStore) Latest(context.Context, string) (*repository.DocumentResult, error) {
	return nil, repository.ErrNotFound
}
func (m *mockStore) List(context.Context, int) ([]repository.DocumentSummary, error) {
	return nil, nil
}
func (m *mockStore) Ping(context.Context) error { return nil }
func (m *mockStore) Close() error               { return nil }

const entitiesJSON = `{
	"our_ref": "R-9",
	"company_name": "Acme Labs",
	"names_and_designations": [{"name": "A. Tan", "designation": "QA APPROVED"}],
	"test_results": [{"parameter": "pH", "pass_fail": "Pass"}, {"parameter": "Pb", "pass_fail": "Fail"}]
}`

func twoSignatureReport() entity.SignatureReport {
	r := entity.NewSignatureReport("", "test")
	r.ImagesExamined = 1
	r.SignatureRecords = []entity.SignatureRecord{
		{SignatureID: "sig_1", PageNumber: 1, Confidence: 0.9, Kind: constants.FullSignature,
			Mark: entity.MarkRecord{Kind: constants.FullSignature, Description: "name 'A. Tan'"}},
		{SignatureID: "sig_2", PageNumber: 1, Confidence: 0.9, Kind: constants.FullSignature,
			Mark: entity.MarkRecord{Kind: constants.FullSignature, Description: "name 'B. Lee'"}},
	}
	r.SignaturesFound = 2
	return r
}

func inputPDF(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "Sample1.pdf")
	if err := os.WriteFile(p, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProcessFullRun(t *testing.T) {
	out := t.TempDir()
	ents := &mockEntities{raw: entitiesJSON}
	det := &mockDetector{report: twoSignatureReport()}
	store := &mockStore{}
	p := NewProcessor(nil, out,
		mockText{res: ocr.ExtractionResult{Text: "lab report text", Pages: 1, Method: ocr.MethodPDFText}},
		ents,
		WithDetector(det),
		WithExporter(export.NewService(nil)),
		WithStore(store),
	)

	res, err := p.Process(context.Background(), inputPDF(t), Options{Signatures: true, Excel: true, Parquet: true, Store: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if ents.got != "lab report text" {
		t.Errorf("extractor got %q", ents.got)
	}

	for name, path := range map[string]string{
		"Sample1_extracted_text.txt":       res.TextPath,
		"Sample1_signature_detection.json": res.DetectionPath,
		"Sample1_entities.json":            res.EntitiesPath,
		"Sample1_report.xlsx":              res.ReportPath,
		"Sample1_signatures.parquet":       res.ParquetPath,
	} {
		if path != filepath.Join(out, name) {
			t.Errorf("path for %s = %q", name, path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	e := res.Entities
	if e.ExpectedSignatures != 2 || e.ActualSignatures != 2 {
		t.Errorf("expected=%d actual=%d", e.ExpectedSignatures, e.ActualSignatures)
	}
	if e.ResultsComply != constants.No || e.IsThereSignature != constants.Yes {
		t.Errorf("results_comply=%q is_there_signature=%q", e.ResultsComply, e.IsThereSignature)
	}
	if len(store.saved) != 1 || res.StoredID == uuid.Nil {
		t.Errorf("store saved %d results, id %s", len(store.saved), res.StoredID)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %q", res.Warnings)
	}

	b, err := os.ReadFile(res.EntitiesPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("entities file: %v", err)
	}
	for _, key := range []string{"our_ref", "names_and_designations", "expected_signatures", "signature_validation_details", "signature_detection"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("entities file missing %q", key)
		}
	}
	if strings.Contains(string(b), "image_data\"") {
		t.Error("entities file carries image bytes")
	}
}

func TestProcessWithoutSignatures(t *testing.T) {
	det := &mockDetector{report: twoSignatureReport()}
	p := NewProcessor(nil, t.TempDir(), mockText{res: ocr.ExtractionResult{Text: "x"}}, &mockEntities{raw: entitiesJSON}, WithDetector(det))

	res, err := p.Process(context.Background(), inputPDF(t), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if det.calls != 0 || res.Report != nil || res.DetectionPath != "" {
		t.Errorf("detection ran without the option")
	}
	if res.Entities.ActualSignatures != 0 || res.Entities.SignatureDetection != nil {
		t.Errorf("entities = %+v", res.Entities)
	}
}

func TestProcessStructuralEntitiesFail(t *testing.T) {
	p := NewProcessor(nil, t.TempDir(), mockText{res: ocr.ExtractionResult{Text: "x"}}, &mockEntities{raw: `["not", "an", "object"]`})

	_, err := p.Process(context.Background(), inputPDF(t), Options{})
	if !errors.Is(err, common.ErrStructuralInput) {
		t.Fatalf("err = %v, want structural input error", err)
	}
}

func TestProcessEntityTransportErrorUsesDefaults(t *testing.T) {
	p := NewProcessor(nil, t.TempDir(), mockText{res: ocr.ExtractionResult{Text: "x"}},
		&mockEntities{err: errors.New("status 503")})

	res, err := p.Process(context.Background(), inputPDF(t), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Entities.OurRef != constants.NotFound {
		t.Errorf("our_ref = %q", res.Entities.OurRef)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %q", res.Warnings)
	}
}

func TestProcessStoreFailureIsWarning(t *testing.T) {
	p := NewProcessor(nil, t.TempDir(), mockText{res: ocr.ExtractionResult{Text: "x"}}, &mockEntities{raw: `{}`},
		WithStore(&mockStore{err: errors.New("disk full")}))

	res, err := p.Process(context.Background(), inputPDF(t), Options{Store: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "disk full") {
		t.Errorf("warnings = %q", res.Warnings)
	}
}

func TestProcessErrors(t *testing.T) {
	text := mockText{res: ocr.ExtractionResult{Text: "x"}}
	ents := &mockEntities{raw: `{}`}

	t.Run("missing input", func(t *testing.T) {
		p := NewProcessor(nil, t.TempDir(), text, ents)
		_, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), Options{})
		if !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("detector not configured", func(t *testing.T) {
		p := NewProcessor(nil, t.TempDir(), text, ents)
		_, err := p.Process(context.Background(), inputPDF(t), Options{Signatures: true})
		if !errors.Is(err, common.ErrConfiguration) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("text extraction", func(t *testing.T) {
		p := NewProcessor(nil, t.TempDir(), mockText{err: errors.New("pdftotext missing")}, ents)
		if _, err := p.Process(context.Background(), inputPDF(t), Options{}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestStem(t *testing.T) {
	if got := Stem("/a/b/Sample1.report.pdf"); got != "Sample1.report" {
		t.Errorf("Stem = %q", got)
	}
}
