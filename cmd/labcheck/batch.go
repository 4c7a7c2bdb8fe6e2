package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/labreport-signatures/internal/batch"
	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		opts       pipeline.Options
		workers    int
		timeout    time.Duration
		exts       []string
		skipHidden bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every lab report under a directory",
		Example: `  labcheck batch reports/ --signatures --excel
  labcheck batch reports/ --workers 4 --store sqlite://results.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, stats, err := batch.Scan(args[0], exts, skipHidden)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Found %d report(s) in %s (%d files scanned)\n", stats.Matched, args[0], stats.Scanned)
			if len(paths) == 0 {
				return nil
			}

			p, closeStore, err := a.newProcessor(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			defer closeStore()

			q := batch.NewQueue(cmd.Context(), p, opts, a.logger,
				batch.WithWorkers(workers),
				batch.WithProcessTimeout(timeout),
			)
			for _, path := range paths {
				if err := q.Enqueue(cmd.Context(), path); err != nil {
					a.logger.Warn("batch.enqueue.failed", "path", path, "error", err)
					break
				}
			}
			outcomes, err := q.Shutdown(cmd.Context())
			failed := printBatch(w, outcomes)
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d report(s) failed", failed, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Signatures, "signatures", false, "Detect human signatures in each PDF")
	cmd.Flags().BoolVar(&opts.Excel, "excel", false, "Generate an Excel report per document")
	cmd.Flags().BoolVar(&opts.Parquet, "parquet", false, "Write detected signatures as parquet (needs --signatures)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "Documents processed in parallel")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Per-document time limit")
	cmd.Flags().StringSliceVar(&exts, "ext", []string{"pdf"}, "File extensions to include")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	return cmd
}

func printBatch(w io.Writer, outcomes []batch.Outcome) (failed int) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSTATUS\tSIGNATURES\tEXPECTED\tCOMPLY\tELAPSED")
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tFAILED: %v\t-\t-\t-\t%s\n", o.Path, o.Err, o.Elapsed.Round(time.Millisecond))
			continue
		}
		e := o.Result.Entities
		status := "ok"
		if len(o.Result.Warnings) > 0 {
			status = fmt.Sprintf("ok (%d warnings)", len(o.Result.Warnings))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", o.Path, status,
			e.ActualSignatures, e.ExpectedSignatures, e.ResultsComply, o.Elapsed.Round(time.Millisecond))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nProcessed %d report(s), %d failed\n", len(outcomes), failed)
	return failed
}
