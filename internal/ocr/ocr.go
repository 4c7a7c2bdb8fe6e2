package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/docintel"
	"github.com/joseph-ayodele/labreport-signatures/internal/runner"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit

	// MinTextChars is how much embedded text a PDF needs before OCR is skipped.
	MinTextChars int
}

// Extraction methods reported in ExtractionResult.Method.
const (
	MethodPDFText   = "pdf-text"
	MethodDocIntel  = "docintel-layout"
	MethodVisionOCR = "azure-vision-ocr"
	MethodTesseract = "tesseract-ocr"
)

type ExtractionResult struct {
	Text     string
	Pages    int
	Method   string
	Duration time.Duration
	Warnings []string
}

// LayoutAnalyzer is satisfied by *docintel.Client.
type LayoutAnalyzer interface {
	Analyze(ctx context.Context, pdf []byte) (*docintel.AnalyzeResult, error)
}

// ImageOCR recognizes printed text in one rendered page.
type ImageOCR interface {
	RecognizeImage(ctx context.Context, img []byte) (string, error)
}

type Extractor struct {
	cfg    Config
	runner runner.Runner
	layout LayoutAnalyzer
	vision ImageOCR
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the os/exec runner.
func WithRunner(r runner.Runner) Option { return func(e *Extractor) { e.runner = r } }

// WithLayoutAnalyzer enables Document Intelligence text for scanned PDFs.
func WithLayoutAnalyzer(a LayoutAnalyzer) Option { return func(e *Extractor) { e.layout = a } }

// WithImageOCR uses a cloud OCR backend instead of tesseract for rendered pages.
func WithImageOCR(o ImageOCR) Option { return func(e *Extractor) { e.vision = o } }

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	e := &Extractor{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = runner.New(logger)
	}
	return e
}

// Extract picks a strategy based on file extension and how much text the PDF carries.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch {
	case ext == "pdf":
		res, err = e.extractPDF(ctx, path)
	case constants.IsImageExt(ext):
		res, err = e.extractImage(ctx, path)
	default:
		e.logger.Error("ocr.extract.unsupported_extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err == nil {
		e.logger.Info("ocr.extract.ok",
			"path", path,
			"method", res.Method,
			"pages", res.Pages,
			"chars", len(res.Text),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	}
	return res, err
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		return ExtractionResult{Warnings: warns}, fmt.Errorf("pdftotext: %w", err)
	}
	text = Normalize(text)
	if len(text) >= e.cfg.MinTextChars {
		return ExtractionResult{Text: text, Pages: pages, Method: MethodPDFText, Warnings: warns}, nil
	}
	e.logger.Info("ocr.extract.scanned_pdf", "path", path, "text_chars", len(text))

	if e.layout != nil {
		res, lerr := e.extractLayout(ctx, path)
		if lerr == nil {
			res.Warnings = append(warns, res.Warnings...)
			return res, nil
		}
		e.logger.Warn("ocr.extract.docintel_failed", "path", path, "error", lerr)
		warns = append(warns, "docintel: "+lerr.Error())
	}

	ocrText, ocrPages, ocrWarns, err := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		return ExtractionResult{Warnings: warns}, err
	}
	method := MethodTesseract
	if e.vision != nil {
		method = MethodVisionOCR
	}
	return ExtractionResult{Text: Normalize(ocrText), Pages: ocrPages, Method: method, Warnings: warns}, nil
}

func (e *Extractor) extractLayout(ctx context.Context, path string) (ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{}, err
	}
	res, err := e.layout.Analyze(ctx, data)
	if err != nil {
		return ExtractionResult{}, err
	}
	text := Normalize(res.Text())
	if strings.TrimSpace(text) == "" {
		return ExtractionResult{}, fmt.Errorf("layout analysis returned no text")
	}
	return ExtractionResult{Text: text, Pages: len(res.Pages), Method: MethodDocIntel}, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warn, err := e.recognize(ctx, path)
	if err != nil {
		return ExtractionResult{Warnings: warn}, err
	}
	method := MethodTesseract
	if e.vision != nil {
		method = MethodVisionOCR
	}
	return ExtractionResult{Text: Normalize(txt), Pages: 1, Method: method, Warnings: warn}, nil
}
