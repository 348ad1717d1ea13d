// Package catalog is the episode catalog and progress cache backed by SQLite.
//
// Every process that touches the catalog opens its own Store; WAL mode lets
// the indexer write while the interactive session reads.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"temp_store(MEMORY)",
}

// Store manages catalog persistence.
type Store struct {
	db     *sql.DB
	path   string
	roots  []string
	fs     afero.Fs
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	stmts map[string]*sql.Stmt

	writes sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithRoots sets the library roots used to check that a series directory
// still exists. Without roots every series is considered present.
func WithRoots(roots []string) Option {
	return func(s *Store) { s.roots = roots }
}

// WithFs sets the filesystem used for existence checks.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithLogger sets the logger for background write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the clock used for last_watched.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open initializes or connects to the catalog database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dsn := path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
		now:    time.Now,
		stmts:  make(map[string]*sql.Stmt),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// prepared returns a cached prepared statement for query.
func (s *Store) prepared(ctx context.Context, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	s.stmts[query] = stmt
	return stmt, nil
}

// dispatch runs fn on its own goroutine. Failures are logged, never returned.
func (s *Store) dispatch(op string, fn func(context.Context) error, attrs ...any) {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := fn(context.Background()); err != nil {
			s.logger.Warn(op+" failed", append(attrs, "error", err)...)
		}
	}()
}

// Wait blocks until all dispatched writes have finished.
func (s *Store) Wait() {
	s.writes.Wait()
}

// SeriesExists reports whether dir is present under any configured root.
func (s *Store) SeriesExists(dir string) bool {
	if len(s.roots) == 0 {
		return true
	}
	for _, root := range s.roots {
		ok, err := afero.DirExists(s.fs, filepath.Join(root, dir))
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Close drains pending writes, lets SQLite update its planner statistics and
// closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.writes.Wait()

	s.mu.Lock()
	for query, stmt := range s.stmts {
		_ = stmt.Close()
		delete(s.stmts, query)
	}
	s.mu.Unlock()

	if _, err := s.db.Exec("PRAGMA optimize"); err != nil {
		s.logger.Debug("pragma optimize failed", "error", err)
	}
	return s.db.Close()
}
