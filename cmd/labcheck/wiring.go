package main

import (
	"context"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
	"github.com/joseph-ayodele/labreport-signatures/internal/detect"
	"github.com/joseph-ayodele/labreport-signatures/internal/docintel"
	"github.com/joseph-ayodele/labreport-signatures/internal/images"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm/azure"
	"github.com/joseph-ayodele/labreport-signatures/internal/llm/gemini"
	"github.com/joseph-ayodele/labreport-signatures/internal/ocr"
	"github.com/joseph-ayodele/labreport-signatures/internal/repository"
	"github.com/joseph-ayodele/labreport-signatures/internal/runner"
)

func (a *app) llmProvider() (llm.Provider, string) {
	c := a.cfg.LLM
	if c.Provider == "gemini" {
		return gemini.New(gemini.Config{
			APIKey:      c.GeminiAPIKey,
			Model:       c.GeminiModel,
			Temperature: c.Temperature,
		}, a.logger), "Azure Document Intelligence + Gemini"
	}
	return azure.NewClient(azure.Config{
		Endpoint:    c.Endpoint,
		APIKey:      c.APIKey,
		Deployment:  c.Deployment,
		APIVersion:  c.APIVersion,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}, a.logger), detect.DefaultMethod
}

// docIntel returns nil when Document Intelligence is not configured.
func (a *app) docIntel() *docintel.Client {
	c := a.cfg.DocIntel
	if c.Endpoint == "" || c.APIKey == "" {
		return nil
	}
	return docintel.NewClient(docintel.Config{
		Endpoint:     c.Endpoint,
		APIKey:       c.APIKey,
		APIVersion:   c.APIVersion,
		PollInterval: c.PollInterval,
		Timeout:      c.Timeout,
	}, a.logger)
}

func (a *app) textExtractor(r runner.Runner, di *docintel.Client) *ocr.Extractor {
	t := a.cfg.Tools
	opts := []ocr.Option{ocr.WithRunner(r)}
	if di != nil {
		opts = append(opts, ocr.WithLayoutAnalyzer(di))
	}
	if a.cfg.Vision.Enabled() {
		opts = append(opts, ocr.WithImageOCR(ocr.NewVisionOCR(a.cfg.Vision.Endpoint, a.cfg.Vision.APIKey, a.logger)))
	}
	return ocr.NewExtractor(ocr.Config{
		Pdftotext:   t.Pdftotext,
		Pdftoppm:    t.Pdftoppm,
		Tesseract:   t.Tesseract,
		TessdataDir: t.TessdataDir,
	}, a.logger, opts...)
}

func (a *app) detector(r runner.Runner, di *docintel.Client, classifier llm.SignatureClassifier, method string) *detect.Detector {
	t, d := a.cfg.Tools, a.cfg.Detection
	supplierOpts := []images.Option{images.WithRunner(r)}
	if di != nil {
		supplierOpts = append(supplierOpts, images.WithLayoutAnalyzer(di))
	}
	supplier := images.NewPDFSupplier(images.Config{
		Pdfimages:     t.Pdfimages,
		Pdftoppm:      t.Pdftoppm,
		DPI:           t.DPI,
		MinImageBytes: d.MinImageBytes,
	}, a.logger, supplierOpts...)

	return detect.NewDetector(supplier, classifier, a.logger,
		detect.WithThreshold(d.Threshold),
		detect.WithConcurrency(d.Concurrency),
		detect.WithClassifyTimeout(d.ClassifyTimeout),
		detect.WithDetectionMethod(method),
	)
}

func (a *app) openStore(ctx context.Context) (repository.ResultRepository, error) {
	if a.cfg.Store.DSN == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "no results store configured (set --store or STORE_DSN)", common.ErrConfiguration)
	}
	db, err := repository.Open(ctx, repository.Config{DSN: a.cfg.Store.DSN}, a.logger)
	if err != nil {
		return nil, err
	}
	return repository.NewResultRepository(db, a.logger), nil
}
