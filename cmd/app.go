package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sani/internal/catalog"
	"sani/internal/indexer"
)

// app owns the catalog and the background indexer for one command.
type app struct {
	store    *catalog.Store
	idxStore *catalog.Store
	cancel   context.CancelFunc
	indexed  <-chan indexer.Result
}

// openApp opens the catalog and starts indexing the library. On the first
// run, when no database exists yet, it waits for the index so the pickers
// have something to show.
func openApp(ctx context.Context) (*app, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	_, statErr := os.Stat(dbPath)
	firstRun := errors.Is(statErr, os.ErrNotExist)

	store, err := catalog.Open(dbPath,
		catalog.WithRoots(cfg.LibraryDirs()),
		catalog.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	// The indexer writes through its own connection pool so a long scan
	// never holds up the session's reads.
	idxStore, err := catalog.Open(dbPath, catalog.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("opening catalog for indexing: %w", err)
	}

	idxCtx, cancel := context.WithCancel(ctx)
	ix := indexer.New(idxStore, cfg.LibraryDirs(),
		indexer.WithLogger(logger),
		indexer.WithMaxDepth(cfg.MaxDepth))

	a := &app{store: store, idxStore: idxStore, cancel: cancel}
	ch := ix.Start(idxCtx, firstRun)
	if !firstRun {
		a.indexed = ch
		return a, nil
	}

	logger.Info("indexing library for the first time", "library", cfg.LibraryDirs())
	res := <-ch
	if res.Err != nil && !errors.Is(res.Err, indexer.ErrLocked) {
		a.Close()
		return nil, fmt.Errorf("indexing library: %w", res.Err)
	}
	return a, nil
}

// Close stops the indexer, flushes pending writes and closes the catalog.
func (a *app) Close() {
	a.cancel()
	if a.indexed != nil {
		<-a.indexed
	}
	if err := a.idxStore.Close(); err != nil {
		logger.Warn("closing index catalog", "error", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("closing catalog", "error", err)
	}
}
