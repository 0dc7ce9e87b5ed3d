package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/testutil"
)

func TestMovieCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")

	entry := models.MovieCacheEntry{SubscriptionID: sub.ID, StreamID: 42, Name: "Movie", CategoryID: "1", ContainerExtension: "mkv"}
	require.NoError(t, s.UpsertMovieCache(entry))

	entry.TMDBID = "603"
	entry.ContainerExtension = "mp4"
	require.NoError(t, s.UpsertMovieCache(entry))

	cache, err := s.MovieCacheFor(sub.ID)
	require.NoError(t, err)
	require.Len(t, cache, 1)
	assert.Equal(t, entry, cache[42])

	require.NoError(t, s.DeleteMovieCache(sub.ID, 42))
	cache, err = s.MovieCacheFor(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, cache)
}

func TestSeriesCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")
	other := newSubscription(t, s, "Other")

	require.NoError(t, s.UpsertSeriesCache(models.SeriesCacheEntry{SubscriptionID: sub.ID, SeriesID: 7, Name: "Show", CategoryID: "9"}))
	require.NoError(t, s.UpsertSeriesCache(models.SeriesCacheEntry{SubscriptionID: other.ID, SeriesID: 7, Name: "Other Show", CategoryID: "9"}))

	cache, err := s.SeriesCacheFor(sub.ID)
	require.NoError(t, err)
	require.Len(t, cache, 1)
	assert.Equal(t, "Show", cache[7].Name)
	assert.Empty(t, cache[7].TMDBID)

	require.NoError(t, s.DeleteSeriesCache(sub.ID, 7))
	cache, err = s.SeriesCacheFor(other.ID)
	require.NoError(t, err)
	assert.Len(t, cache, 1, "deleting from one subscription must not touch another")
}
