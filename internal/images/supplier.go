package images

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/docintel"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/runner"
)

// Document is the input to both listing strategies. Path is preferred; Data is used when
// the document only exists in memory.
type Document struct {
	Path string
	Data []byte
}

// Result is a listing plus the regions that could not be read. Skipped entries are
// *common.ImageExtractionError values and do not stop the listing.
type Result struct {
	Candidates []entity.ImageCandidate
	Skipped    []error
}

// Supplier is the interface the detector depends on. Candidates come back in page order,
// then in the order they appear within the page.
type Supplier interface {
	ListEmbedded(ctx context.Context, doc Document) (Result, error)
	ListLayoutFigures(ctx context.Context, doc Document) (Result, error)
}

// LayoutAnalyzer is satisfied by *docintel.Client.
type LayoutAnalyzer interface {
	Analyze(ctx context.Context, pdf []byte) (*docintel.AnalyzeResult, error)
}

type Config struct {
	Pdfimages string // default "pdfimages"
	Pdftoppm  string // default "pdftoppm"
	DPI       int    // page render resolution for figure crops, default 200

	// MinImageBytes drops embedded images smaller than this; 0 keeps everything.
	MinImageBytes int
}

// PDFSupplier lists images with poppler and, for the fallback, Document Intelligence figures.
type PDFSupplier struct {
	cfg    Config
	runner runner.Runner
	layout LayoutAnalyzer
	logger *slog.Logger
}

var _ Supplier = (*PDFSupplier)(nil)

type Option func(*PDFSupplier)

func WithRunner(r runner.Runner) Option { return func(s *PDFSupplier) { s.runner = r } }

func WithLayoutAnalyzer(a LayoutAnalyzer) Option { return func(s *PDFSupplier) { s.layout = a } }

func NewPDFSupplier(cfg Config, logger *slog.Logger, opts ...Option) *PDFSupplier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdfimages == "" {
		cfg.Pdfimages = "pdfimages"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	s := &PDFSupplier{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = runner.New(logger)
	}
	return s
}

// materialize returns a path poppler can read, writing Data to dir when needed.
func (d Document) materialize(dir string) (string, error) {
	if d.Path != "" {
		return d.Path, nil
	}
	if len(d.Data) == 0 {
		return "", fmt.Errorf("%w: document has neither path nor data", common.ErrInvalidInput)
	}
	p := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(p, d.Data, 0o600); err != nil {
		return "", err
	}
	return p, nil
}

// bytes returns the document content, reading Path when Data is empty.
func (d Document) bytes() ([]byte, error) {
	if len(d.Data) > 0 {
		return d.Data, nil
	}
	if d.Path == "" {
		return nil, fmt.Errorf("%w: document has neither path nor data", common.ErrInvalidInput)
	}
	return os.ReadFile(d.Path)
}

func documentError(err error) error {
	return &common.ImageExtractionError{Cause: err}
}

func (s *PDFSupplier) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("images.tempdir.cleanup_failed", "dir", dir, "error", err)
	}
}
