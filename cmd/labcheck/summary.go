package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
)

func newSummaryCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "summary <entities.json>",
		Short: "Print a saved entities file as a readable report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEntities(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(summaryView{ReconciledEntities: e, Tests: e.Counts()})
			case "text", "":
				printReport(w, pipeline.Stem(args[0]), e)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or yaml")
	return cmd
}

type summaryView struct {
	entity.ReconciledEntities `yaml:",inline"`
	Tests                     entity.ResultCounts `yaml:"tests"`
}

func loadEntities(path string) (entity.ReconciledEntities, error) {
	var e entity.ReconciledEntities
	b, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("parse %s: %w", path, err)
	}
	return e, nil
}

func printReport(w io.Writer, name string, e entity.ReconciledEntities) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nLABORATORY TEST REPORT SUMMARY - %s\n%s\n", rule, name, rule)
	printEntities(w, e)

	if len(e.TestResults) > 0 {
		fmt.Fprintln(w, "\nTEST RESULTS:")
		headers := []string{"Parameter", "Unit", "Test Method", "Result", "Pass/Fail"}
		rows := make([][]string, 0, len(e.TestResults))
		for _, t := range e.TestResults {
			rows = append(rows, []string{t.Parameter, t.Unit, t.Method, t.Result, t.PassFail})
		}
		printTable(w, headers, rows)
	}
	c := e.Counts()
	fmt.Fprintf(w, "\nTotal Tests: %d  Passed: %d  Failed: %d\n%s\n", c.Total, c.Passed, c.Failed, rule)
}

// printEntities prints the reconciled fields the way the process command reports them.
func printEntities(w io.Writer, e entity.ReconciledEntities) {
	fmt.Fprintln(w, "\nExtracted Entities:")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "Our Ref: %s\n", e.OurRef)
	fmt.Fprintf(w, "Company Name: %s\n", e.CompanyName)
	fmt.Fprintf(w, "Lab Report Creation Date: %s\n", e.LabReportCreationDate)
	fmt.Fprintf(w, "Subject: %s\n", e.Subject)
	fmt.Fprintf(w, "Sample Reference: %s\n", e.SampleReference)
	fmt.Fprintf(w, "Is There Signature?: %s\n", e.IsThereSignature)
	fmt.Fprintf(w, "Results Comply?: %s\n", e.ResultsComply)

	if len(e.NamesAndDesignations) > 0 {
		fmt.Fprintln(w, "\nNames and Designations:")
		for i, n := range e.NamesAndDesignations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, n)
		}
	}
	fmt.Fprintf(w, "\nSignature Validation: Expected %d, Found %d\n", e.ExpectedSignatures, e.ActualSignatures)
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], len(c))
		}
	}
	line := func(cells []string) {
		fmt.Fprint(w, " ")
		for i, c := range cells {
			fmt.Fprintf(w, " %-*s", widths[i]+1, c)
		}
		fmt.Fprintln(w)
	}
	line(headers)
	dashes := make([]string, len(headers))
	for i, n := range widths {
		dashes[i] = strings.Repeat("-", n)
	}
	line(dashes)
	for _, r := range rows {
		line(r)
	}
}
