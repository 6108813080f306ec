package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pevans/holdings/export"
	"github.com/pevans/holdings/holding"
	"github.com/pevans/holdings/runs"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "The 'runs' subcommand works with recorded scrape runs.",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsExportCmd(a))
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists recorded runs, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			printRunsTable(out, list)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	var showRecords bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Shows one run. The ID may be abbreviated to a unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Lookup(args[0])
			if err != nil {
				return err
			}

			var records []holding.Record
			if showRecords {
				if records, err = store.Records(run.RunID); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, struct {
					*runs.Run
					Records []holding.Record `json:"records,omitempty"`
				}{run, records})
			}

			printRunDetail(out, run)
			if showRecords {
				fmt.Fprintln(out)
				printRecordsTable(out, records)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showRecords, "records", "r", false, "Also print the stored records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

func newRunsExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <run-id> <path>",
		Short: "Writes the records of a successful run to a .csv or .xlsx file.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Lookup(args[0])
			if err != nil {
				return err
			}
			if run.Status != runs.StatusSucceeded {
				return fmt.Errorf("run %s did not succeed (status %s)", run.RunID, run.Status)
			}

			records, err := store.Records(run.RunID)
			if err != nil {
				return err
			}
			if err := export.Write(args[1], records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), args[1])
			return nil
		},
	}
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func printRunsTable(out io.Writer, list []*runs.Run) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Started", "Status", "Pages", "Rows", "Valid", "Duration", "Detail"})

	for _, run := range list {
		detail := run.OutputPath
		if run.Status == runs.StatusFailed {
			detail = run.FailKind
		}
		t.AppendRow(table.Row{
			run.RunID.String()[:8],
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.Pages,
			run.RawRows,
			run.ValidRows,
			formatDuration(run),
			detail,
		})
	}
	t.Render()
}

func printRunDetail(out io.Writer, run *runs.Run) {
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(out, run.RunID)
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(out)

	fmt.Fprintf(out, "URL:         %s\n", run.URL)
	fmt.Fprintf(out, "User Agent:  %s\n", orNone(run.UserAgent))
	fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished:    %s (%s)\n", run.FinishedAt.Local().Format(time.DateTime), formatDuration(run))
	}
	fmt.Fprintln(out)

	switch run.Status {
	case runs.StatusSucceeded:
		fmt.Fprintln(out, "Status:      ✓ Succeeded")
	case runs.StatusFailed:
		fmt.Fprintf(out, "Status:      ✗ Failed (%s)\n", run.FailKind)
		fmt.Fprintf(out, "Error:       %s\n", run.Error)
	default:
		fmt.Fprintf(out, "Status:      %s\n", run.Status)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Pagination:")
	fmt.Fprintf(out, "  Pages:       %d\n", run.Pages)
	fmt.Fprintf(out, "  Raw Rows:    %d\n", run.RawRows)
	fmt.Fprintf(out, "  Valid Rows:  %d\n", run.ValidRows)
	fmt.Fprintf(out, "  Stopped:     %s\n", orNone(run.Stop))
	fmt.Fprintf(out, "  Output:      %s\n", orNone(run.OutputPath))
}

func printRecordsTable(out io.Writer, records []holding.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records stored.")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Stock", "Sector", "Shares Held", "Market Value", "% Portfolio", "Rank"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Stock, r.Sector, r.SharesHeld, r.MarketValue, r.PercentPortfolio, r.Rank})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Stock", WidthMax: 40},
	})
	t.Render()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDuration(run *runs.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Second).String()
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
