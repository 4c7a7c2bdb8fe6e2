package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/export"
	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
)

func newExcelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "excel <entities.json> [output.xlsx]",
		Short: "Generate the Excel report from a saved entities file",
		Example: `  labcheck excel output/Sample1_entities.json
  labcheck excel output/Sample1_entities.json my_report.xlsx`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			e, err := loadEntities(in)
			if err != nil {
				return err
			}

			out := strings.TrimSuffix(pipeline.Stem(in), "_entities") + constants.SuffixReport
			if len(args) > 1 {
				out = args[1]
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}

			b, err := export.NewService(a.logger).BuildLabReportXLSX(e)
			if err != nil {
				return fmt.Errorf("generate excel report: %w", err)
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write excel report: %w", err)
			}

			w := cmd.OutOrStdout()
			c := e.Counts()
			fmt.Fprintf(w, "Excel report generated: %s\n\n", out)
			fmt.Fprintln(w, "Report Summary:")
			fmt.Fprintf(w, "   Company: %s\n", e.CompanyName)
			fmt.Fprintf(w, "   Sample: %s\n", e.Subject)
			fmt.Fprintf(w, "   Total Tests: %d\n", c.Total)
			fmt.Fprintf(w, "   Tests Passed: %d\n", c.Passed)
			fmt.Fprintf(w, "   Tests Failed: %d\n", c.Failed)
			fmt.Fprintf(w, "   Signatures Found: %d\n", e.ActualSignatures)
			fmt.Fprintf(w, "   Results Comply: %s\n", e.ResultsComply)
			return nil
		},
	}
}
