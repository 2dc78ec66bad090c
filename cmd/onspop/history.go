package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"onspop/internal/history"
	"onspop/pkg/database"
	"onspop/pkg/models"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the run ledger",
	}
	cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 50, "maximum runs to read")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := readHistory(cmd, opts, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write recent runs as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := readHistory(cmd, opts, limit)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return history.WriteCSV(cmd.OutOrStdout(), runs)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := history.WriteCSV(f, runs); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d runs to %s\n", len(runs), out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "data/history.csv", "output CSV path, - for stdout")

	cmd.AddCommand(list, export)
	return cmd
}

func readHistory(cmd *cobra.Command, opts *options, limit int) ([]models.PopulationRun, error) {
	path := opts.historyDB
	if path == "" {
		cfg, err := loadConfig(cmd, opts)
		if err != nil {
			return nil, err
		}
		path = cfg.HistoryDB
	}
	if path == "" {
		path = database.DefaultPath()
	}

	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return history.NewRepo(db).List(cmd.Context(), limit, 0)
}

func printRuns(w io.Writer, runs []models.PopulationRun) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPDATED\tGEOGRAPHY\tPERIOD\tPOPULATION\tDATASET\tVERSION\tMETHOD")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%s\t%s/%s\t%s\n",
			r.Record.UpdatedAt.Format("2006-01-02 15:04:05"),
			r.Record.Geography,
			r.Record.Period,
			r.Record.Population,
			r.Record.DatasetID,
			r.Edition, r.Version,
			r.Method)
	}
	return tw.Flush()
}
