package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/labreport-signatures/internal/export"
	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
	"github.com/joseph-ayodele/labreport-signatures/internal/runner"
)

func newProcessCmd(a *app) *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "process <pdf>",
		Short: "Extract entities from a lab report, optionally detecting signatures",
		Example: `  labcheck process reports/Sample1.pdf
  labcheck process reports/Sample1.pdf --signatures --excel
  labcheck process reports/Sample1.pdf --signatures --parquet --store sqlite://results.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeStore, err := a.newProcessor(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := p.Process(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			printProcessResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Signatures, "signatures", false, "Detect human signatures in the PDF")
	cmd.Flags().BoolVar(&opts.Excel, "excel", false, "Generate the Excel report")
	cmd.Flags().BoolVar(&opts.Parquet, "parquet", false, "Write detected signatures as parquet (needs --signatures)")
	return cmd
}

// newProcessor validates the configuration for opts and wires a pipeline processor. The
// returned func releases the results store, if one was opened.
func (a *app) newProcessor(ctx context.Context, opts *pipeline.Options) (*pipeline.Processor, func(), error) {
	if err := a.cfg.Validate(opts.Signatures); err != nil {
		return nil, nil, err
	}
	opts.Store = a.cfg.Store.DSN != ""

	r := runner.New(a.logger)
	di := a.docIntel()
	provider, method := a.llmProvider()

	popts := []pipeline.Option{pipeline.WithExporter(export.NewService(a.logger))}
	if opts.Signatures {
		popts = append(popts, pipeline.WithDetector(a.detector(r, di, provider, method)))
	}
	release := func() {}
	if opts.Store {
		store, err := a.openStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		release = func() {
			if err := store.Close(); err != nil {
				a.logger.Warn("store.close.failed", "error", err)
			}
		}
		popts = append(popts, pipeline.WithStore(store))
	}
	return pipeline.NewProcessor(a.logger, a.cfg.Output.Dir, a.textExtractor(r, di), provider, popts...), release, nil
}

func printProcessResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Extracted text saved to: %s (%s)\n", res.TextPath, res.TextMethod)
	if res.Report != nil {
		printDetection(w, *res.Report)
		fmt.Fprintf(w, "Signature detection saved to: %s\n", res.DetectionPath)
	}

	printEntities(w, res.Entities)

	fmt.Fprintf(w, "\nExtracted entities saved to: %s\n", res.EntitiesPath)
	if res.ReportPath != "" {
		fmt.Fprintf(w, "Generated Excel report: %s\n", res.ReportPath)
	}
	if res.ParquetPath != "" {
		fmt.Fprintf(w, "Signatures parquet: %s\n", res.ParquetPath)
	}
	if res.StoredID != uuid.Nil {
		fmt.Fprintf(w, "Stored result: %s\n", res.StoredID)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
}
