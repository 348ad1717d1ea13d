// Package session runs the interactive loop: pick a series, pick an
// episode, watch it, record progress, and pick again.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sani/internal/catalog"
	"sani/internal/media"
	"sani/internal/player"
	"sani/internal/ui"
)

// Picker rows that stand for the stored current and next episodes.
const (
	CurrentRow = "Current Episode:"
	NextRow    = "Next Episode:"
)

const (
	seriesPrompt  = "Select series"
	episodePrompt = "Select episode"
)

// ErrNoSeries is returned when the library has no series to offer.
var ErrNoSeries = errors.New("no series found in library")

// Catalog is the part of the store the session reads and writes.
type Catalog interface {
	ListSeries(ctx context.Context) ([]string, error)
	ListEpisodes(ctx context.Context, dir string) ([]media.Identity, error)
	FindPaths(ctx context.Context, dir string, id media.Identity) ([]string, error)
	NextEpisode(ctx context.Context, dir string, current media.Identity) (media.Identity, bool, error)
	RelativeEpisode(ctx context.Context, dir string) (catalog.Relative, error)
	RecordProgress(dir string, id media.Identity)
}

// Watcher plays one episode to completion.
type Watcher interface {
	Watch(ctx context.Context, ep media.Episode) (player.Result, error)
}

type state int

const (
	stateShowSelect state = iota
	stateEpisodeSelect
	stateWatching
	stateQuit
)

// Session holds the state of one interactive run.
type Session struct {
	catalog Catalog
	picker  ui.Picker
	watcher Watcher
	logger  *slog.Logger

	state   state
	watched bool // episode list reuses the in-memory current/next
	series  string
	rel     catalog.Relative
	chosen  media.Identity
	paths   []string
}

// New creates a session.
func New(cat Catalog, picker ui.Picker, watcher Watcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		catalog: cat,
		picker:  picker,
		watcher: watcher,
		logger:  logger.With("component", "session"),
	}
}

// Run drives the loop until the user cancels at the series list. When
// series is non-empty it is resolved against the library and the loop
// starts at its episode list.
func (s *Session) Run(ctx context.Context, series string) error {
	s.state = stateShowSelect
	if series != "" {
		all, err := s.catalog.ListSeries(ctx)
		if err != nil {
			return fmt.Errorf("list series: %w", err)
		}
		match, ok := ResolveSeries(series, all)
		if !ok {
			return fmt.Errorf("no series matches %q", series)
		}
		s.series = match
		s.state = stateEpisodeSelect
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch s.state {
		case stateShowSelect:
			err = s.selectShow(ctx)
		case stateEpisodeSelect:
			err = s.selectEpisode(ctx)
		case stateWatching:
			err = s.watch(ctx)
		case stateQuit:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) selectShow(ctx context.Context) error {
	all, err := s.catalog.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("list series: %w", err)
	}

	choice, err := s.picker.Pick(ctx, seriesPrompt, all)
	switch {
	case errors.Is(err, ui.ErrNoItems):
		return ErrNoSeries
	case errors.Is(err, ui.ErrCancelled):
		s.state = stateQuit
		return nil
	case err != nil:
		return err
	}

	match, ok := ResolveSeries(choice, all)
	if !ok {
		s.logger.Debug("unknown series typed", "input", choice)
		return nil
	}
	s.series = match
	s.watched = false
	s.state = stateEpisodeSelect
	return nil
}

// episodeRows lays out the episode picker: the current episode, the next
// one when it exists, then every episode of the series.
func episodeRows(rel catalog.Relative, ids []media.Identity) []string {
	rows := make([]string, 0, len(ids)+4)
	rows = append(rows, CurrentRow, rel.Current.String())
	if rel.Next != nil {
		rows = append(rows, NextRow, rel.Next.String())
	}
	for _, id := range ids {
		rows = append(rows, id.String())
	}
	return rows
}

func (s *Session) selectEpisode(ctx context.Context) error {
	if !s.watched {
		rel, err := s.catalog.RelativeEpisode(ctx, s.series)
		if err != nil {
			return fmt.Errorf("read progress of %q: %w", s.series, err)
		}
		s.rel = rel
	}

	ids, err := s.catalog.ListEpisodes(ctx, s.series)
	if err != nil {
		return fmt.Errorf("list episodes of %q: %w", s.series, err)
	}

	choice, err := s.picker.Pick(ctx, episodePrompt, episodeRows(s.rel, ids))
	if errors.Is(err, ui.ErrCancelled) {
		s.state = stateShowSelect
		return nil
	}
	if err != nil {
		return err
	}

	var id media.Identity
	switch choice {
	case CurrentRow:
		id = s.rel.Current
	case NextRow:
		if s.rel.Next == nil {
			s.watched = true
			return nil
		}
		id = *s.rel.Next
	default:
		id = media.ParseLabel(choice)
	}

	paths, err := s.catalog.FindPaths(ctx, s.series, id)
	if err != nil {
		return fmt.Errorf("find %s of %q: %w", id, s.series, err)
	}
	if len(paths) == 0 {
		s.logger.Debug("episode not in catalog", "series", s.series, "episode", id.String())
		s.watched = true
		return nil
	}

	s.chosen = id
	s.paths = paths
	s.state = stateWatching
	return nil
}

// watch tries each file of the chosen episode until one plays through.
func (s *Session) watch(ctx context.Context) error {
	s.state = stateEpisodeSelect
	s.watched = true

	for _, path := range s.paths {
		ep := media.Episode{Path: path, Series: s.series, Identity: s.chosen}
		res, err := s.watcher.Watch(ctx, ep)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("playback failed", "path", path, "error", err)
			continue
		}
		if !res.Success {
			s.logger.Debug("player exited with failure", "path", path)
			continue
		}

		s.catalog.RecordProgress(s.series, s.chosen)
		if !s.chosen.IsSpecial() {
			s.advance(ctx)
		}
		return nil
	}
	return nil
}

// advance makes the watched episode current without waiting for the
// progress write to land.
func (s *Session) advance(ctx context.Context) {
	s.rel.Current = s.chosen
	s.rel.Next = nil

	next, ok, err := s.catalog.NextEpisode(ctx, s.series, s.chosen)
	if err != nil {
		s.logger.Warn("look up next episode", "series", s.series, "error", err)
		return
	}
	if ok {
		s.rel.Next = &next
	}
}
