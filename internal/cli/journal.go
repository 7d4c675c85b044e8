package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/risingsun/backtest"
	"github.com/rustyeddy/risingsun/journal"
	"github.com/rustyeddy/risingsun/ledger"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query recorded runs",
		Long: `Query runs and trade events recorded in a SQLite journal.

Subcommands:
  list    - List recorded runs
  show    - Show one run and its events
  org     - Render an Org-mode report for a run
  export  - Write the events of a run as CSV

Examples:
  risingsun journal list -d runs.sqlite
  risingsun journal org <run-id> -o run.org`,
	}
	cmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "./risingsun.sqlite", "path to SQLite journal DB")

	open := func() (*journal.SQLite, error) {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		j, err := journal.NewSQLite(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns()
			if err != nil {
				return fmt.Errorf("query runs: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCREATED\tINSTRUMENT\tCANDLES\tTRADES\tWIN RATE\tNET P/L")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f%%\t%.2f\n",
					r.RunID, r.Created.Format("2006-01-02 15:04"), r.Instrument,
					r.Candles, r.Trades, r.WinRate*100, r.NetPnL)
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			events, err := j.ListEvents(args[0])
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			out := cmd.OutOrStdout()
			backtest.PrintRun(out, run)
			for _, e := range events {
				fmt.Fprintln(out, journal.FormatEventOrg(e))
			}
			return nil
		},
	}

	var orgOut string
	orgCmd := &cobra.Command{
		Use:   "org <run-id>",
		Short: "Render an Org-mode report for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			events, err := j.ListEvents(args[0])
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			if orgOut != "" {
				return journal.WriteOrg(orgOut, run, events)
			}
			s, err := journal.FormatOrg(run, events)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), s)
			return err
		},
	}
	orgCmd.Flags().StringVarP(&orgOut, "output", "o", "", "write the report to this file instead of stdout")

	exportCmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write the events of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			l, err := j.LoadLedger(args[0])
			if err != nil {
				return fmt.Errorf("load ledger: %w", err)
			}

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write(ledger.Header); err != nil {
				return err
			}
			if err := w.WriteAll(l.Rows()); err != nil {
				return err
			}
			return w.Error()
		},
	}

	cmd.AddCommand(listCmd, showCmd, orgCmd, exportCmd)
	return cmd
}
