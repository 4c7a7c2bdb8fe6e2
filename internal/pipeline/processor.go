// Package pipeline runs one document end to end: text extraction, entity extraction,
// optional signature detection, reconciliation and the output files.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/images"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
	"github.com/joseph-ayodele/labreport-signatures/internal/ocr"
	"github.com/joseph-ayodele/labreport-signatures/internal/reconcile"
	"github.com/joseph-ayodele/labreport-signatures/internal/repository"
)

// TextExtractor is satisfied by *ocr.Extractor.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// SignatureDetector is satisfied by *detect.Detector.
type SignatureDetector interface {
	Detect(ctx context.Context, doc images.Document) entity.SignatureReport
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	BuildLabReportXLSX(e entity.ReconciledEntities) ([]byte, error)
	WriteSignaturesParquet(path string, report entity.SignatureReport) error
}

// Options selects the optional stages of a run.
type Options struct {
	Signatures bool
	Excel      bool
	Parquet    bool
	Store      bool
}

// Result lists what a run produced. Warnings hold failures of optional stages that did not
// fail the run.
type Result struct {
	DocumentPath  string
	TextMethod    string
	TextPath      string
	DetectionPath string
	EntitiesPath  string
	ReportPath    string
	ParquetPath   string
	StoredID      uuid.UUID
	Report        *entity.SignatureReport
	Entities      entity.ReconciledEntities
	Warnings      []string
	Elapsed       time.Duration
}

type Processor struct {
	logger    *slog.Logger
	outDir    string
	text      TextExtractor
	extractor llm.EntityExtractor
	detector  SignatureDetector
	exporter  Exporter
	store     repository.ResultRepository
}

type Option func(*Processor)

func WithDetector(d SignatureDetector) Option { return func(p *Processor) { p.detector = d } }

func WithExporter(e Exporter) Option { return func(p *Processor) { p.exporter = e } }

func WithStore(s repository.ResultRepository) Option { return func(p *Processor) { p.store = s } }

func NewProcessor(logger *slog.Logger, outDir string, text TextExtractor, extractor llm.EntityExtractor, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if outDir == "" {
		outDir = "output"
	}
	p := &Processor{logger: logger, outDir: outDir, text: text, extractor: extractor}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs the document at path. Only unreadable input, a missing stage the options
// ask for, structurally invalid entities and failed writes of the text, detection or
// entities files return an error; everything else is logged and collected in Warnings.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	start := time.Now()
	ctx = common.WithDocumentPath(ctx, path)
	if common.RequestIDFromContext(ctx) == "" {
		ctx = common.WithRequestID(ctx, uuid.NewString())
	}
	log := p.logger.With("req_id", common.RequestIDFromContext(ctx), "path", path)

	if err := p.checkOptions(opts); err != nil {
		return nil, err
	}
	if st, err := os.Stat(path); err != nil {
		return nil, common.NewAppError("INVALID_INPUT", "cannot read input document", errors.Join(common.ErrInvalidInput, err))
	} else if st.IsDir() {
		return nil, common.NewAppError("INVALID_INPUT", path+" is a directory", common.ErrInvalidInput)
	}
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	log.Info("pipeline.start", "signatures", opts.Signatures, "excel", opts.Excel, "parquet", opts.Parquet, "store", opts.Store)

	res := &Result{DocumentPath: path}

	// 1) text
	text, err := p.text.Extract(ctx, path)
	if err != nil {
		log.Error("pipeline.text.failed", "error", err)
		return nil, fmt.Errorf("extract text: %w", err)
	}
	res.TextMethod = text.Method
	res.Warnings = append(res.Warnings, text.Warnings...)
	res.TextPath = p.outputPath(path, constants.SuffixExtractedText)
	if err := os.WriteFile(res.TextPath, []byte(text.Text), 0o644); err != nil {
		return nil, fmt.Errorf("write extracted text: %w", err)
	}
	log.Info("pipeline.text.ok", "method", text.Method, "pages", text.Pages, "chars", len(text.Text))

	// 2) entities
	raw, err := p.extractor.ExtractEntities(ctx, text.Text)
	var structural *common.StructuralInputError
	switch {
	case errors.As(err, &structural):
		log.Error("pipeline.entities.structural", "error", err)
		return nil, err
	case err != nil:
		log.Warn("pipeline.entities.failed_using_defaults", "error", err)
		res.Warnings = append(res.Warnings, "entity extraction: "+err.Error())
		raw = []byte("{}")
	}

	// 3) signatures
	if opts.Signatures {
		report := p.detector.Detect(ctx, images.Document{Path: path})
		if err := report.Validate(); err != nil {
			log.Warn("pipeline.signatures.inconsistent", "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		}
		res.Report = &report
		res.DetectionPath = p.outputPath(path, constants.SuffixSignatureDetection)
		if err := writeJSON(res.DetectionPath, report); err != nil {
			return nil, fmt.Errorf("write signature detection: %w", err)
		}
		log.Info("pipeline.signatures.ok",
			"images", report.ImagesExamined,
			"signatures", report.SignaturesFound,
			"errors", len(report.ProcessingErrors),
		)
	}

	// 4) reconcile
	res.Entities, err = reconcile.ReconcileRaw(raw, res.Report)
	if err != nil {
		log.Error("pipeline.reconcile.failed", "error", err)
		return nil, err
	}
	res.EntitiesPath = p.outputPath(path, constants.SuffixEntities)
	if err := writeJSON(res.EntitiesPath, res.Entities); err != nil {
		return nil, fmt.Errorf("write entities: %w", err)
	}
	log.Info("pipeline.reconcile.ok",
		"expected_signatures", res.Entities.ExpectedSignatures,
		"actual_signatures", res.Entities.ActualSignatures,
		"results_comply", res.Entities.ResultsComply,
	)

	// 5) optional outputs
	if opts.Excel {
		if out, err := p.writeExcel(path, res.Entities); err != nil {
			log.Warn("pipeline.excel.failed", "error", err)
			res.Warnings = append(res.Warnings, "excel report: "+err.Error())
		} else {
			res.ReportPath = out
		}
	}
	if opts.Parquet && res.Report != nil {
		out := p.outputPath(path, constants.SuffixSignaturesParquet)
		if err := p.exporter.WriteSignaturesParquet(out, *res.Report); err != nil {
			log.Warn("pipeline.parquet.failed", "error", err)
			res.Warnings = append(res.Warnings, "parquet export: "+err.Error())
		} else {
			res.ParquetPath = out
		}
	}
	if opts.Store {
		id, err := p.store.Save(ctx, repository.DocumentResult{DocumentPath: absPath(path), Entities: res.Entities})
		if err != nil {
			log.Warn("pipeline.store.failed", "error", err)
			res.Warnings = append(res.Warnings, "store: "+err.Error())
		} else {
			res.StoredID = id
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("pipeline.done", "warnings", len(res.Warnings), "elapsed_ms", res.Elapsed.Milliseconds())
	return res, nil
}

func (p *Processor) checkOptions(opts Options) error {
	var missing []string
	if opts.Signatures && p.detector == nil {
		missing = append(missing, "signature detector")
	}
	if (opts.Excel || opts.Parquet) && p.exporter == nil {
		missing = append(missing, "exporter")
	}
	if opts.Store && p.store == nil {
		missing = append(missing, "result store")
	}
	if p.text == nil {
		missing = append(missing, "text extractor")
	}
	if p.extractor == nil {
		missing = append(missing, "entity extractor")
	}
	if len(missing) > 0 {
		return common.NewAppError("CONFIG_ERROR", "not configured: "+strings.Join(missing, ", "), common.ErrConfiguration)
	}
	return nil
}

func (p *Processor) writeExcel(docPath string, e entity.ReconciledEntities) (string, error) {
	b, err := p.exporter.BuildLabReportXLSX(e)
	if err != nil {
		return "", err
	}
	out := p.outputPath(docPath, constants.SuffixReport)
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Processor) outputPath(docPath, suffix string) string {
	return filepath.Join(p.outDir, Stem(docPath)+suffix)
}

// Stem is the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
