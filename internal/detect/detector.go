package detect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/images"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
)

// DefaultMethod labels reports produced with the Azure stack.
const DefaultMethod = "Azure Document Intelligence + Azure OpenAI"

// Detector finds full human signatures in a document: it lists image candidates, classifies
// each one and aggregates the verdicts into a SignatureReport.
type Detector struct {
	supplier   images.Supplier
	classifier llm.SignatureClassifier
	logger     *slog.Logger

	threshold   float64
	timeout     time.Duration
	concurrency int
	method      string
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold sets the inclusive minimum verdict confidence.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t >= 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// WithClassifyTimeout bounds each classifier call; a timeout is a per-image error.
func WithClassifyTimeout(t time.Duration) Option {
	return func(d *Detector) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithConcurrency lets up to n classifications run at once. Output is identical to n=1.
func WithConcurrency(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDetectionMethod sets the method label recorded in the report.
func WithDetectionMethod(m string) Option {
	return func(d *Detector) {
		if m != "" {
			d.method = m
		}
	}
}

// NewDetector returns a sequential detector using the default threshold.
func NewDetector(supplier images.Supplier, classifier llm.SignatureClassifier, logger *slog.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Detector{
		supplier:    supplier,
		classifier:  classifier,
		logger:      logger,
		threshold:   constants.SignatureConfidenceThreshold,
		concurrency: 1,
		method:      DefaultMethod,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect never fails: extraction and classification problems end up in ProcessingErrors.
func (d *Detector) Detect(ctx context.Context, doc images.Document) entity.SignatureReport {
	start := time.Now()
	ctx = common.WithDocumentPath(ctx, doc.Path)
	d.logger.Info("detect.start", "path", doc.Path, "concurrency", d.concurrency, "threshold", d.threshold)

	candidates, embedded, listErrs := d.listCandidates(ctx, doc)

	var report entity.SignatureReport
	if len(candidates) == 0 {
		report = entity.NewSignatureReport("", "")
		d.logger.Info("detect.no_images", "path", doc.Path)
	} else {
		report = Aggregate(candidates, d.classifyAll(ctx, candidates), d.threshold)
	}

	report.DocumentPath = doc.Path
	report.DetectionMethod = d.method
	report.EmbeddedImagesFound = embedded
	report.ProcessingErrors = append(listErrs, report.ProcessingErrors...)

	d.logger.Info("detect.done",
		"path", doc.Path,
		"images", report.ImagesExamined,
		"signatures", report.SignaturesFound,
		"errors", len(report.ProcessingErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report
}

// listCandidates prefers embedded images and falls back to layout figures only when the
// embedded listing is empty or failed.
func (d *Detector) listCandidates(ctx context.Context, doc images.Document) ([]entity.ImageCandidate, int, []string) {
	errs := []string{}

	res, err := d.supplier.ListEmbedded(ctx, doc)
	if err != nil {
		d.logger.Warn("detect.embedded_failed", "path", doc.Path, "error", err)
		errs = append(errs, fmt.Sprintf("Error extracting embedded images: %v", err))
	}
	errs = append(errs, skippedMessages(res.Skipped)...)
	if len(res.Candidates) > 0 {
		return reindex(res.Candidates), len(res.Candidates), errs
	}

	d.logger.Info("detect.layout_fallback", "path", doc.Path)
	res, err = d.supplier.ListLayoutFigures(ctx, doc)
	if err != nil {
		d.logger.Warn("detect.layout_failed", "path", doc.Path, "error", err)
		errs = append(errs, fmt.Sprintf("Error detecting layout figures: %v", err))
		return nil, 0, errs
	}
	errs = append(errs, skippedMessages(res.Skipped)...)
	return reindex(res.Candidates), 0, errs
}

// classifyAll returns one outcome per candidate, in candidate order.
func (d *Detector) classifyAll(ctx context.Context, candidates []entity.ImageCandidate) []Outcome {
	outcomes := make([]Outcome, len(candidates))
	if d.concurrency <= 1 {
		for i, c := range candidates {
			outcomes[i] = d.classify(ctx, c)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			outcomes[i] = d.classify(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Detector) classify(ctx context.Context, c entity.ImageCandidate) Outcome {
	ctx, cancel := common.WithTimeout(ctx, d.timeout)
	defer cancel()

	verdict, _, err := d.classifier.Classify(ctx, llm.ImageInput{
		Data:       c.Data,
		Format:     c.Format,
		PageNumber: c.PageNumber,
		Index:      c.Index,
	})
	if err != nil {
		d.logger.Warn("detect.image.classify_failed", "index", c.Index, "page", c.PageLabel(), "error", err)
		return Outcome{Err: err}
	}
	d.logger.Info("detect.image.classified",
		"index", c.Index,
		"page", c.PageLabel(),
		"is_signature", verdict.IsSignature,
		"confidence", verdict.Confidence,
		"full_signatures", len(fullSignatureMarks(verdict)),
	)
	return Outcome{Verdict: verdict}
}

func reindex(cs []entity.ImageCandidate) []entity.ImageCandidate {
	for i := range cs {
		cs[i].Index = i
	}
	return cs
}

func skippedMessages(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
