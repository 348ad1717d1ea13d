package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"sani/internal/media"
)

const (
	queryListEpisodes = `
		SELECT season, episode, special
		FROM episode
		WHERE dir_name = ?`

	queryFindNumbered = `
		SELECT path
		FROM episode
		WHERE dir_name = ? AND season = ? AND episode = ?
		ORDER BY path`

	queryFindSpecial = `
		SELECT path
		FROM episode
		WHERE dir_name = ? AND special = ?
		ORDER BY path`

	queryExists = `
		SELECT 1
		FROM episode
		WHERE episode = ? AND season = ? AND dir_name = ?
		LIMIT 1`

	queryInsertEpisode = `
		INSERT OR IGNORE INTO episode (path, dir_name, episode, season, special)
		VALUES (?, ?, ?, ?, ?)`

	querySaveResume = `
		INSERT INTO episode (path, dir_name, episode, season, special, resume_timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			resume_timestamp = excluded.resume_timestamp`

	queryResumeTimestamp = `
		SELECT resume_timestamp
		FROM episode
		WHERE path = ?`
)

// identityColumns returns the (episode, season, special) column values for id.
func identityColumns(id media.Identity) (episode, season, special any) {
	if id.IsSpecial() {
		return nil, nil, id.Label
	}
	return id.Episode, id.Season, nil
}

// ListEpisodes returns every distinct episode identity of a series in
// ascending order. Files that classified to the same identity collapse into
// one entry.
func (s *Store) ListEpisodes(ctx context.Context, dir string) ([]media.Identity, error) {
	stmt, err := s.prepared(ctx, queryListEpisodes)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list episodes of %q: %w", dir, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []media.Identity
	for rows.Next() {
		var (
			season, episode sql.NullInt64
			special         sql.NullString
		)
		if err := rows.Scan(&season, &episode, &special); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if special.Valid {
			ids = append(ids, media.NewSpecial(special.String))
			continue
		}
		ids = append(ids, media.NewNumbered(int(season.Int64), int(episode.Int64)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return media.SortUnique(ids), nil
}

// FindPaths returns the files of a series that classified to id. An empty
// result means the episode is not in the catalog.
func (s *Store) FindPaths(ctx context.Context, dir string, id media.Identity) ([]string, error) {
	var (
		stmt *sql.Stmt
		rows *sql.Rows
		err  error
	)
	if id.IsSpecial() {
		if stmt, err = s.prepared(ctx, queryFindSpecial); err != nil {
			return nil, err
		}
		rows, err = stmt.QueryContext(ctx, dir, id.Label)
	} else {
		if stmt, err = s.prepared(ctx, queryFindNumbered); err != nil {
			return nil, err
		}
		rows, err = stmt.QueryContext(ctx, dir, id.Season, id.Episode)
	}
	if err != nil {
		return nil, fmt.Errorf("find paths for %s of %q: %w", id, dir, err)
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return paths, nil
}

// Exists reports whether the catalog holds the numbered episode.
func (s *Store) Exists(ctx context.Context, dir string, season, episode int) (bool, error) {
	stmt, err := s.prepared(ctx, queryExists)
	if err != nil {
		return false, err
	}
	var one int
	err = stmt.QueryRowContext(ctx, episode, season, dir).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check S%02dE%02d of %q: %w", season, episode, dir, err)
	}
	return true, nil
}

// NextEpisode returns the episode after current: the next episode of the same
// season, or else the first episode of the next season. Nothing further ahead
// is searched. Specials have no successor.
func (s *Store) NextEpisode(ctx context.Context, dir string, current media.Identity) (media.Identity, bool, error) {
	if current.IsSpecial() {
		return media.Identity{}, false, nil
	}
	candidates := []media.Identity{
		media.NewNumbered(current.Season, current.Episode+1),
		media.NewNumbered(current.Season+1, 1),
	}
	for _, c := range candidates {
		ok, err := s.Exists(ctx, dir, c.Season, c.Episode)
		if err != nil {
			return media.Identity{}, false, err
		}
		if ok {
			return c, true, nil
		}
	}
	return media.Identity{}, false, nil
}

// InsertEpisodes records indexed files in one transaction, creating missing
// series rows. Files already in the catalog are left untouched. Returns the
// number of new rows.
func (s *Store) InsertEpisodes(ctx context.Context, episodes []media.Episode) (int, error) {
	if len(episodes) == 0 {
		return 0, nil
	}
	seriesStmt, err := s.prepared(ctx, queryUpsertSeries)
	if err != nil {
		return 0, err
	}
	episodeStmt, err := s.prepared(ctx, queryInsertEpisode)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txSeries := tx.StmtContext(ctx, seriesStmt)
	txEpisode := tx.StmtContext(ctx, episodeStmt)

	seen := make(map[string]bool)
	inserted := 0
	for _, ep := range episodes {
		if !seen[ep.Series] {
			if _, err := txSeries.ExecContext(ctx, ep.Series); err != nil {
				return 0, fmt.Errorf("upsert series %q: %w", ep.Series, mapSQLiteError(err))
			}
			seen[ep.Series] = true
		}
		episode, season, special := identityColumns(ep.Identity)
		res, err := txEpisode.ExecContext(ctx, ep.Path, ep.Series, episode, season, special)
		if err != nil {
			return 0, fmt.Errorf("insert episode %q: %w", ep.Path, mapSQLiteError(err))
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// SaveResume stores the resume position of an episode in seconds, creating
// the series and episode rows if the indexer has not seen them yet.
func (s *Store) SaveResume(ctx context.Context, ep media.Episode, seconds int64) error {
	if seconds < 0 {
		seconds = 0
	}
	seriesStmt, err := s.prepared(ctx, queryUpsertSeries)
	if err != nil {
		return err
	}
	resumeStmt, err := s.prepared(ctx, querySaveResume)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.StmtContext(ctx, seriesStmt).ExecContext(ctx, ep.Series); err != nil {
		return fmt.Errorf("upsert series %q: %w", ep.Series, mapSQLiteError(err))
	}
	episode, season, special := identityColumns(ep.Identity)
	if _, err := tx.StmtContext(ctx, resumeStmt).ExecContext(ctx, ep.Path, ep.Series, episode, season, special, seconds); err != nil {
		return fmt.Errorf("save resume for %q: %w", ep.Path, mapSQLiteError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RecordResume is SaveResume dispatched on its own goroutine.
func (s *Store) RecordResume(ep media.Episode, seconds int64) {
	s.dispatch("record resume", func(ctx context.Context) error {
		return s.SaveResume(ctx, ep, seconds)
	}, "path", ep.Path, "seconds", seconds)
}

// ResumeTimestamp returns the stored resume position of path in seconds,
// or 0 when there is none or the lookup fails.
func (s *Store) ResumeTimestamp(ctx context.Context, path string) int64 {
	stmt, err := s.prepared(ctx, queryResumeTimestamp)
	if err != nil {
		return 0
	}
	var seconds int64
	if err := stmt.QueryRowContext(ctx, path).Scan(&seconds); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Debug("read resume timestamp failed", "path", path, "error", err)
		}
		return 0
	}
	return seconds
}
