// Command holdings inspects the run history written by holdings-scrape.
package main

import (
	"fmt"
	"os"

	"github.com/pevans/holdings/config"
	"github.com/pevans/holdings/runs"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand.
type app struct {
	historyDSN string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "holdings",
		Short:         "holdings inspects and re-exports recorded scrape runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("history") {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.historyDSN = cfg.HistoryDSN
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.historyDSN, "history", "", "Run history database (default from config, HOLDINGS_HISTORY_DSN)")

	root.AddCommand(newRunsCmd(a))
	return root
}

// openStore opens the configured history database.
func (a *app) openStore() (*runs.Store, error) {
	if a.historyDSN == "" {
		return nil, fmt.Errorf("run history is disabled: set history_dsn or HOLDINGS_HISTORY_DSN")
	}
	if _, err := os.Stat(a.historyDSN); err != nil {
		return nil, fmt.Errorf("no run history at %s: %w", a.historyDSN, err)
	}
	return runs.NewStore(a.historyDSN)
}
