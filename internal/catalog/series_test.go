package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sani/internal/media"
)

func TestStore_RelativeEpisode_Default(t *testing.T) {
	store := openTestStore(t)
	threeFileShow(t, store)

	rel, err := store.RelativeEpisode(context.Background(), "Show")
	require.NoError(t, err)
	assert.Equal(t, media.DefaultIdentity, rel.Current)
	require.NotNil(t, rel.Next)
	assert.Equal(t, media.NewNumbered(1, 2), *rel.Next)

	rel, err = store.RelativeEpisode(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Equal(t, media.DefaultIdentity, rel.Current)
	assert.Nil(t, rel.Next)
}

func TestStore_ProgressRoundTrip(t *testing.T) {
	store := openTestStore(t)
	threeFileShow(t, store)
	ctx := context.Background()

	for _, id := range []media.Identity{
		media.NewNumbered(1, 2),
		media.NewNumbered(2, 1),
		media.NewNumbered(7, 13),
	} {
		require.NoError(t, store.SaveProgress(ctx, "Show", id))
		rel, err := store.RelativeEpisode(ctx, "Show")
		require.NoError(t, err)
		assert.Equal(t, id, rel.Current)
	}

	p, err := store.Series(ctx, "Show")
	require.NoError(t, err)
	assert.True(t, p.HasCurrent)
	assert.True(t, p.LastWatched.Equal(fixedNow))
}

func TestStore_SaveProgress_SpecialKeepsCurrent(t *testing.T) {
	now := fixedNow
	store := openTestStore(t, WithClock(func() time.Time { return now }))
	threeFileShow(t, store)
	ctx := context.Background()

	require.NoError(t, store.SaveProgress(ctx, "Show", media.NewNumbered(1, 2)))
	now = now.Add(time.Hour)
	require.NoError(t, store.SaveProgress(ctx, "Show", media.NewSpecial("NCED1")))

	p, err := store.Series(ctx, "Show")
	require.NoError(t, err)
	assert.Equal(t, media.NewNumbered(1, 2), p.Current)
	assert.True(t, p.LastWatched.Equal(now))
}

func TestStore_RecordProgress(t *testing.T) {
	store := openTestStore(t)
	threeFileShow(t, store)

	store.RecordProgress("Show", media.NewNumbered(1, 2))
	store.Wait()

	rel, err := store.RelativeEpisode(context.Background(), "Show")
	require.NoError(t, err)
	assert.Equal(t, media.NewNumbered(1, 2), rel.Current)
	require.NotNil(t, rel.Next)
	assert.Equal(t, media.NewNumbered(2, 1), *rel.Next)
}

func TestStore_Series_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Series(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListSeries_Order(t *testing.T) {
	now := fixedNow
	store := openTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.UpsertSeries(ctx, "Alpha", "Beta", "Gamma", "Delta"))
	require.NoError(t, store.SaveProgress(ctx, "Beta", media.NewNumbered(1, 1)))
	now = now.Add(time.Minute)
	require.NoError(t, store.SaveProgress(ctx, "Delta", media.NewNumbered(1, 1)))

	series, err := store.ListSeries(ctx)
	require.NoError(t, err)
	// Watched series first, newest first; the rest by name descending.
	assert.Equal(t, []string{"Delta", "Beta", "Gamma", "Alpha"}, series)
}

func TestStore_ListSeries_FiltersMissingDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/library/Kept", 0o755))

	store := openTestStore(t, WithFs(fs), WithRoots([]string{"/library"}))
	ctx := context.Background()
	require.NoError(t, store.UpsertSeries(ctx, "Kept", "Removed"))

	series, err := store.ListSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kept"}, series)

	// Stale rows are filtered, never purged.
	all, err := store.Progress(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_UpsertSeries_KeepsProgress(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveProgress(ctx, "Show", media.NewNumbered(3, 4)))
	require.NoError(t, store.UpsertSeries(ctx, "Show"))

	p, err := store.Series(ctx, "Show")
	require.NoError(t, err)
	assert.Equal(t, media.NewNumbered(3, 4), p.Current)
}

func TestStore_ImportProgress(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveProgress(ctx, "Local", media.NewNumbered(2, 5)))

	entries := []media.Progress{
		{Series: "Local", Current: media.NewNumbered(1, 1), HasCurrent: true, LastWatched: fixedNow.Add(-time.Hour)},
		{Series: "Remote", Current: media.NewNumbered(4, 2), HasCurrent: true, LastWatched: fixedNow.Add(-time.Hour)},
		{Series: "Unwatched", Current: media.DefaultIdentity},
	}
	n, err := store.ImportProgress(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	local, err := store.Series(ctx, "Local")
	require.NoError(t, err)
	assert.Equal(t, media.NewNumbered(2, 5), local.Current, "newer local progress wins")

	remote, err := store.Series(ctx, "Remote")
	require.NoError(t, err)
	assert.Equal(t, media.NewNumbered(4, 2), remote.Current)

	_, err = store.Series(ctx, "Unwatched")
	assert.ErrorIs(t, err, ErrNotFound)

	newer := []media.Progress{
		{Series: "Local", Current: media.NewNumbered(2, 6), HasCurrent: true, LastWatched: fixedNow.Add(time.Hour)},
	}
	n, err = store.ImportProgress(ctx, newer)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	local, err = store.Series(ctx, "Local")
	require.NoError(t, err)
	assert.Equal(t, media.NewNumbered(2, 6), local.Current)
}
