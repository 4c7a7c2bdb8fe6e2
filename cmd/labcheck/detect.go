package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/labreport-signatures/constants"
	"github.com/joseph-ayodele/labreport-signatures/internal/entity"
	"github.com/joseph-ayodele/labreport-signatures/internal/images"
	"github.com/joseph-ayodele/labreport-signatures/internal/pipeline"
	"github.com/joseph-ayodele/labreport-signatures/internal/runner"
)

func newDetectCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect <pdf>",
		Short: "Count full human signatures in a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(true); err != nil {
				return err
			}
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("input: %w", err)
			}

			provider, method := a.llmProvider()
			d := a.detector(runner.New(a.logger), a.docIntel(), provider, method)
			report := d.Detect(cmd.Context(), images.Document{Path: path})

			if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
				return err
			}
			out := filepath.Join(a.cfg.Output.Dir, pipeline.Stem(path)+constants.SuffixSignatureDetection)
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, append(b, '\n'), 0o644); err != nil {
				return fmt.Errorf("write signature detection: %w", err)
			}

			if asJSON {
				_, err := cmd.OutOrStdout().Write(append(b, '\n'))
				return err
			}
			printDetection(cmd.OutOrStdout(), report)
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printDetection(w io.Writer, r entity.SignatureReport) {
	fmt.Fprintln(w, "\nSignature Detection Results:")
	fmt.Fprintf(w, "Total images detected: %d\n", r.ImagesExamined)
	fmt.Fprintf(w, "Embedded images found: %d\n", r.EmbeddedImagesFound)
	fmt.Fprintf(w, "Signatures found: %d\n", r.SignaturesFound)

	if len(r.SignatureRecords) > 0 {
		fmt.Fprintln(w, "\nSignature Details:")
		for i, s := range r.SignatureRecords {
			fmt.Fprintf(w, "  Signature %d (%s):\n", i+1, s.SignatureID)
			fmt.Fprintf(w, "    Page: %s\n", entity.PageLabel(s.PageNumber))
			fmt.Fprintf(w, "    Confidence: %.2f\n", s.Confidence)
			fmt.Fprintf(w, "    Source: %s\n", s.ImageSource)
			if s.Mark.Description != "" {
				fmt.Fprintf(w, "    Description: %s\n", s.Mark.Description)
			}
			if s.Reasoning != "" {
				fmt.Fprintf(w, "    Reasoning: %s\n", s.Reasoning)
			}
		}
	}
	if len(r.ProcessingErrors) > 0 {
		fmt.Fprintln(w, "\nProcessing Errors:")
		for _, e := range r.ProcessingErrors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}
