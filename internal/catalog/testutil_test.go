package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sani/internal/logging"
	"sani/internal/media"
)

var fixedNow = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sani.db")
	opts = append([]Option{
		WithLogger(logging.Discard()),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	store, err := Open(path, opts...)
	require.NoError(t, err, "open store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ep(dir, file string, id media.Identity) media.Episode {
	return media.Episode{
		Path:     filepath.Join("/library", dir, file),
		Series:   dir,
		Identity: id,
	}
}

func insert(t *testing.T, store *Store, episodes ...media.Episode) {
	t.Helper()
	_, err := store.InsertEpisodes(context.Background(), episodes)
	require.NoError(t, err, "insert episodes")
}
