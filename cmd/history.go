package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sani/internal/catalog"
	"sani/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Export or import watch progress",
}

var historyExportCmd = &cobra.Command{
	Use:   "export <file|->",
	Short: "Write watch progress as TSV",
	Args:  cobra.ExactArgs(1),
	RunE:  historyExportRun,
}

var historyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge watch progress from a TSV file (newer entries win)",
	Args:  cobra.ExactArgs(1),
	RunE:  historyImportRun,
}

func init() {
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
}

func openCatalog() (*catalog.Store, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	store, err := catalog.Open(dbPath, catalog.WithRoots(cfg.LibraryDirs()), catalog.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return store, nil
}

func historyExportRun(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Progress(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading progress: %w", err)
	}

	if args[0] == "-" {
		return history.Write(cmd.OutOrStdout(), entries)
	}
	if err := history.Save(args[0], entries); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	logger.Debug("history exported", "path", args[0], "entries", len(entries))
	return nil
}

func historyImportRun(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	entries, err := history.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportProgress(cmd.Context(), entries)
	if err != nil {
		return fmt.Errorf("importing history: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d entries.\n", n, len(entries))
	return nil
}
