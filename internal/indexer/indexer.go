// Package indexer reconciles the on-disk video library with the catalog.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"sani/internal/catalog"
	"sani/internal/media"
)

// ErrLocked is returned by a refresh when another process is already indexing.
var ErrLocked = errors.New("library is being indexed by another process")

// DefaultMaxDepth bounds the walk below each library root: files directly in
// a series directory, or one or two folders below it.
const DefaultMaxDepth = 4

const lockRetryDelay = 100 * time.Millisecond

var videoExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".m4v":  {},
	".webm": {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".ts":   {},
	".m2ts": {},
	".mpg":  {},
	".mpeg": {},
	".ogv":  {},
}

// IsVideo reports whether path has a known video extension.
func IsVideo(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Stats summarizes one indexing run.
type Stats struct {
	Series   int // Series directories seen
	Files    int // Video files seen
	Inserted int // Episodes new to the catalog
	Skipped  int // Unreadable directories and files
}

// Result is delivered once by Start when the run ends.
type Result struct {
	Stats Stats
	Err   error
}

// Indexer walks library roots and records series and episodes.
type Indexer struct {
	store    *catalog.Store
	fs       afero.Fs
	roots    []string
	maxDepth int
	logger   *slog.Logger
	lock     *flock.Flock
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithFs sets the filesystem to walk.
func WithFs(fs afero.Fs) Option {
	return func(ix *Indexer) { ix.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) { ix.logger = logger }
}

// WithMaxDepth bounds how many levels below a root are walked.
func WithMaxDepth(depth int) Option {
	return func(ix *Indexer) {
		if depth > 1 {
			ix.maxDepth = depth
		}
	}
}

// New creates an indexer writing to store. The store should be a dedicated
// connection so interactive queries are not queued behind the scan.
func New(store *catalog.Store, roots []string, opts ...Option) *Indexer {
	ix := &Indexer{
		store:    store,
		fs:       afero.NewOsFs(),
		roots:    roots,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
		lock:     flock.New(store.Path() + ".lock"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = ix.logger.With("component", "indexer")
	return ix
}

// Run indexes every root, waiting for any other process that holds the
// index lock.
func (ix *Indexer) Run(ctx context.Context) (Stats, error) {
	locked, err := ix.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Stats{}, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return Stats{}, ErrLocked
	}
	defer ix.unlock()
	return ix.scan(ctx)
}

// Refresh indexes every root unless another process already is, in which
// case it returns ErrLocked immediately.
func (ix *Indexer) Refresh(ctx context.Context) (Stats, error) {
	locked, err := ix.lock.TryLock()
	if err != nil {
		return Stats{}, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return Stats{}, ErrLocked
	}
	defer ix.unlock()
	return ix.scan(ctx)
}

// Start runs the indexer on its own goroutine. A first run waits for the
// index lock; later runs skip when it is taken. The returned channel
// receives exactly one Result and is then closed.
func (ix *Indexer) Start(ctx context.Context, firstRun bool) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		run := ix.Refresh
		if firstRun {
			run = ix.Run
		}
		started := time.Now()
		stats, err := run(ctx)
		switch {
		case errors.Is(err, ErrLocked):
			ix.logger.Debug("index refresh skipped", "reason", err)
		case err != nil:
			ix.logger.Warn("index failed", "error", err)
		default:
			ix.logger.Debug("index complete",
				"series", stats.Series,
				"files", stats.Files,
				"inserted", stats.Inserted,
				"skipped", stats.Skipped,
				"duration", time.Since(started))
		}
		done <- Result{Stats: stats, Err: err}
	}()
	return done
}

func (ix *Indexer) unlock() {
	if err := ix.lock.Unlock(); err != nil {
		ix.logger.Warn("release index lock", "error", err)
	}
}

func (ix *Indexer) scan(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, root := range ix.roots {
		if err := ix.scanRoot(ctx, root, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (ix *Indexer) scanRoot(ctx context.Context, root string, stats *Stats) error {
	entries, err := afero.ReadDir(ix.fs, root)
	if err != nil {
		ix.logger.Debug("skipping unreadable root", "root", root, "error", err)
		stats.Skipped++
		return nil
	}

	var series []string
	for _, entry := range entries {
		if entry.IsDir() {
			series = append(series, entry.Name())
		}
	}
	if err := ix.store.UpsertSeries(ctx, series...); err != nil {
		return fmt.Errorf("record series under %s: %w", root, err)
	}

	for _, dir := range series {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Series++
		episodes := ix.collect(root, dir, stats)
		inserted, err := ix.store.InsertEpisodes(ctx, episodes)
		if err != nil {
			return fmt.Errorf("record episodes of %s: %w", dir, err)
		}
		stats.Inserted += inserted
	}
	return nil
}

// collect returns the video files below root/dir, at most maxDepth levels
// below root.
func (ix *Indexer) collect(root, dir string, stats *Stats) []media.Episode {
	var episodes []media.Episode
	seriesPath := filepath.Join(root, dir)

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			ix.logger.Debug("skipping unreadable path", "path", path, "error", err)
			stats.Skipped++
			if info != nil && info.IsDir() && path != seriesPath {
				return filepath.SkipDir
			}
			return nil
		}
		depth := depthBelow(root, path)
		if info.IsDir() {
			if depth >= ix.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !IsVideo(path) {
			return nil
		}
		stats.Files++
		episodes = append(episodes, media.Episode{
			Path:     path,
			Series:   dir,
			Identity: media.Classify(info.Name()),
		})
		return nil
	}

	if err := afero.Walk(ix.fs, seriesPath, walkFn); err != nil {
		ix.logger.Debug("walk stopped", "series", dir, "error", err)
	}
	return episodes
}

// depthBelow counts the path components of path below root.
func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
