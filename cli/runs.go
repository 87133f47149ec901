package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/next-trace/scg-mics/internal/report"
)

// NewRunsCmd creates the "runs" subcommand for inspecting stored runs.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded with run --store",
	}

	cmd.PersistentFlags().String("store", "file:runs.db", "SQLite DSN of the run store")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runRunsList,
	}, &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	})

	return cmd
}

func openStore(cmd *cobra.Command) (*report.SQLiteStore, error) {
	dsn, _ := cmd.Flags().GetString("store")

	s, err := report.Open(dsn)
	if err != nil {
		return nil, exitError(exitRuntime, err)
	}

	return s, nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		return exitError(exitRuntime, err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tRUNTIME\tLANDMARKS\tCRASH")

	for _, r := range runs {
		crash := "-"
		if r.Crashed {
			crash = r.FaultySensor
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.RunID, r.CreatedAt.Format(time.RFC3339), r.Runtime, r.Landmarks, crash)
	}

	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.LoadRun(cmd.Context(), args[0])
	if errors.Is(err, report.ErrRunNotFound) {
		return exitError(exitFileNotFound, err)
	}

	if err != nil {
		return exitError(exitRuntime, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
