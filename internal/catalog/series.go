package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sani/internal/media"
)

const (
	queryListSeries = `
		SELECT dir_name
		FROM series
		ORDER BY last_watched DESC, dir_name DESC`

	queryProgress = `
		SELECT dir_name, current_season, current_episode, last_watched
		FROM series
		ORDER BY last_watched DESC, dir_name DESC`

	querySeries = `
		SELECT dir_name, current_season, current_episode, last_watched
		FROM series
		WHERE dir_name = ?`

	queryUpsertSeries = `
		INSERT OR IGNORE INTO series (dir_name)
		VALUES (?)`

	querySaveProgress = `
		INSERT INTO series (dir_name, current_season, current_episode, last_watched)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (dir_name) DO UPDATE SET
			current_season = excluded.current_season,
			current_episode = excluded.current_episode,
			last_watched = excluded.last_watched`

	queryTouchSeries = `
		INSERT INTO series (dir_name, last_watched)
		VALUES (?, ?)
		ON CONFLICT (dir_name) DO UPDATE SET
			last_watched = excluded.last_watched`

	queryImportProgress = `
		INSERT INTO series (dir_name, current_season, current_episode, last_watched)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (dir_name) DO UPDATE SET
			current_season = excluded.current_season,
			current_episode = excluded.current_episode,
			last_watched = excluded.last_watched
		WHERE excluded.last_watched > COALESCE(series.last_watched, 0)`
)

// Relative is the current episode of a series and the one after it.
type Relative struct {
	Current media.Identity
	Next    *media.Identity // nil when the catalog has no next episode
}

// ListSeries returns series directory names, most recently watched first,
// then by name descending. Series whose directory no longer exists under any
// library root are left out.
func (s *Store) ListSeries(ctx context.Context) ([]string, error) {
	stmt, err := s.prepared(ctx, queryListSeries)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []string
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		candidates = append(candidates, dir)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}

	series := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		if s.SeriesExists(dir) {
			series = append(series, dir)
		}
	}
	return series, nil
}

func scanProgress(scan func(dest ...any) error) (media.Progress, error) {
	var (
		p               media.Progress
		season, episode sql.NullInt64
		lastWatched     sql.NullInt64
	)
	if err := scan(&p.Series, &season, &episode, &lastWatched); err != nil {
		return media.Progress{}, err
	}
	p.Current = media.DefaultIdentity
	if season.Valid && episode.Valid {
		p.Current = media.NewNumbered(int(season.Int64), int(episode.Int64))
		p.HasCurrent = true
	}
	if lastWatched.Valid {
		p.LastWatched = time.Unix(lastWatched.Int64, 0)
	}
	return p, nil
}

// Series returns the stored progress of one series.
// Returns ErrNotFound if the series was never indexed or watched.
func (s *Store) Series(ctx context.Context, dir string) (media.Progress, error) {
	stmt, err := s.prepared(ctx, querySeries)
	if err != nil {
		return media.Progress{}, err
	}
	p, err := scanProgress(stmt.QueryRowContext(ctx, dir).Scan)
	if err != nil {
		return media.Progress{}, fmt.Errorf("get series %q: %w", dir, mapSQLiteError(err))
	}
	return p, nil
}

// Progress returns the stored progress of every series, including series
// whose directory has disappeared.
func (s *Store) Progress(ctx context.Context) ([]media.Progress, error) {
	stmt, err := s.prepared(ctx, queryProgress)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []media.Progress
	for rows.Next() {
		p, err := scanProgress(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return results, nil
}

// UpsertSeries records series directories, leaving existing rows untouched.
func (s *Store) UpsertSeries(ctx context.Context, dirs ...string) error {
	stmt, err := s.prepared(ctx, queryUpsertSeries)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if _, err := stmt.ExecContext(ctx, dir); err != nil {
			return fmt.Errorf("upsert series %q: %w", dir, mapSQLiteError(err))
		}
	}
	return nil
}

// RelativeEpisode returns the stored current episode of a series, S01E01
// when none is stored, and the episode that follows it.
func (s *Store) RelativeEpisode(ctx context.Context, dir string) (Relative, error) {
	rel := Relative{Current: media.DefaultIdentity}

	p, err := s.Series(ctx, dir)
	switch {
	case err == nil:
		rel.Current = p.Current
	case !isNotFound(err):
		return Relative{}, err
	}

	next, ok, err := s.NextEpisode(ctx, dir, rel.Current)
	if err != nil {
		return Relative{}, err
	}
	if ok {
		rel.Next = &next
	}
	return rel, nil
}

// SaveProgress stores id as the current episode of dir and stamps
// last_watched. A special only stamps last_watched: specials never move the
// numbered position.
func (s *Store) SaveProgress(ctx context.Context, dir string, id media.Identity) error {
	now := s.now().Unix()

	var err error
	if id.IsSpecial() {
		err = s.exec(ctx, queryTouchSeries, dir, now)
	} else {
		err = s.exec(ctx, querySaveProgress, dir, id.Season, id.Episode, now)
	}
	if err != nil {
		return fmt.Errorf("save progress for %q: %w", dir, mapSQLiteError(err))
	}
	return nil
}

// RecordProgress is SaveProgress dispatched on its own goroutine. The caller
// never waits on storage; a failed write is only logged.
func (s *Store) RecordProgress(dir string, id media.Identity) {
	s.dispatch("record progress", func(ctx context.Context) error {
		return s.SaveProgress(ctx, dir, id)
	}, "series", dir, "episode", id.String())
}

// ImportProgress merges progress rows, keeping whichever side was watched
// more recently. Rows without a current episode or watch time are skipped.
// Returns the number of series changed.
func (s *Store) ImportProgress(ctx context.Context, entries []media.Progress) (int, error) {
	stmt, err := s.prepared(ctx, queryImportProgress)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txStmt := tx.StmtContext(ctx, stmt)
	changed := 0
	for _, p := range entries {
		if !p.HasCurrent || p.Current.IsSpecial() || p.LastWatched.IsZero() {
			continue
		}
		res, err := txStmt.ExecContext(ctx, p.Series, p.Current.Season, p.Current.Episode, p.LastWatched.Unix())
		if err != nil {
			return 0, fmt.Errorf("import %q: %w", p.Series, mapSQLiteError(err))
		}
		if n, _ := res.RowsAffected(); n > 0 {
			changed++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return changed, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	stmt, err := s.prepared(ctx, query)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, args...)
	return err
}
