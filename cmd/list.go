package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sani/internal/media"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List series with their progress",
	Args:  cobra.NoArgs,
	RunE:  listRun,
}

func listRun(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	progress, err := a.store.Progress(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading progress: %w", err)
	}

	rows := progressRows(progress, a.store.SeriesExists)
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No series found.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Series", "Current", "Last watched"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}

// progressRows keeps the series still present on disk, in store order.
func progressRows(progress []media.Progress, exists func(string) bool) [][]string {
	rows := make([][]string, 0, len(progress))
	for _, p := range progress {
		if !exists(p.Series) {
			continue
		}
		current := "-"
		if p.HasCurrent {
			current = p.Current.String()
		}
		rows = append(rows, []string{p.Series, current, formatWatched(p.LastWatched)})
	}
	return rows
}
