package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sani/internal/catalog"
	"sani/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the library and update the catalog",
	Args:  cobra.NoArgs,
	RunE:  indexRun,
}

func indexRun(cmd *cobra.Command, args []string) error {
	roots := cfg.LibraryDirs()
	if len(roots) == 0 {
		return errors.New("no library directory configured (set library in config.toml or pass --library)")
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}
	store, err := catalog.Open(dbPath, catalog.WithRoots(roots), catalog.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()

	ix := indexer.New(store, roots,
		indexer.WithLogger(logger),
		indexer.WithMaxDepth(cfg.MaxDepth))
	stats, err := ix.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("indexing library: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Series", "Files", "New", "Skipped"},
		[][]string{{
			strconv.Itoa(stats.Series),
			strconv.Itoa(stats.Files),
			strconv.Itoa(stats.Inserted),
			strconv.Itoa(stats.Skipped),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight}))
	return nil
}
