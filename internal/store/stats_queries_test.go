package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/testutil"
)

func TestDashboardStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	t.Run("Empty database", func(t *testing.T) {
		stats, err := s.DashboardStats(time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.DashboardStats{SyncStatus: models.SyncSummary{SuccessRate: 100}}, *stats)
	})

	a := newSubscription(t, s, "A")
	b := newSubscription(t, s, "B")
	inactive := false
	_, err := s.UpdateSubscription(b.ID, models.SubscriptionPatch{IsActive: &inactive})
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, s.UpsertMovieCache(models.MovieCacheEntry{SubscriptionID: a.ID, StreamID: i, Name: "m", CategoryID: "1", ContainerExtension: "mp4"}))
	}
	require.NoError(t, s.UpsertSeriesCache(models.SeriesCacheEntry{SubscriptionID: a.ID, SeriesID: 1, Name: "s", CategoryID: "2"}))

	require.NoError(t, s.MarkSyncRunning(a.ID, models.Movies, "r1", time.Now()))
	require.NoError(t, s.MarkSyncRunning(a.ID, models.Series, "r2", time.Now()))
	require.NoError(t, s.FinishSync(a.ID, models.Series, models.SyncFailed, 0, 0, "boom"))
	require.NoError(t, s.MarkSyncRunning(b.ID, models.Movies, "r3", time.Now()))
	require.NoError(t, s.FinishSync(b.ID, models.Movies, models.SyncSuccess, 1, 0, ""))

	stats, err := s.DashboardStats(time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ContentTotals{Total: 4, Movies: 3, Series: 1}, stats.TotalContent)
	assert.Equal(t, models.SourceTotals{Total: 2, Active: 1, Inactive: 1}, stats.Sources)
	assert.Equal(t, 1, stats.SyncStatus.InProgress)
	assert.Equal(t, 1, stats.SyncStatus.Errors24h)
	assert.Equal(t, 50.0, stats.SyncStatus.SuccessRate)

	t.Run("Old failures drop out of the 24h window", func(t *testing.T) {
		stats, err := s.DashboardStats(time.Now().Add(48 * time.Hour))
		require.NoError(t, err)
		assert.Zero(t, stats.SyncStatus.Errors24h)
	})
}
