package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent launches",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.ListAccess(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if jsonOutput {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing launched yet.")
		return nil
	}

	t := newTable("WHEN", "ITEM", "KIND", "PROFILE")
	for _, e := range entries {
		profile := string(e.Profile)
		if e.Rerouted {
			profile += Dim(" (auto)")
		}
		t.Row(e.Timestamp.Local().Format(time.DateTime), e.ItemName, KindLabel(e.Kind), profile)
	}
	return t.Flush()
}
