package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the results store",
	}

	ping := &cobra.Command{
		Use:   "ping",
		Short: "Check that the results store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("store health: FAIL (%w)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "store health: OK")
			return nil
		},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recently processed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROCESSED\tDOCUMENT\tSIGNATURES\tEXPECTED\tCOMPLY")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					r.ProcessedAt.Local().Format(time.DateTime), r.DocumentPath,
					r.ActualSignatures, r.ExpectedSignatures, r.ResultsComply)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows")

	cmd.AddCommand(ping, list)
	return cmd
}
