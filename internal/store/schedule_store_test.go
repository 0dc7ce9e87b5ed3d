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

func TestSchedules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")

	t.Run("Defaults are created disabled and daily", func(t *testing.T) {
		schedules, err := s.ListSchedules(sub.ID)
		require.NoError(t, err)
		require.Len(t, schedules, 2)
		for _, sc := range schedules {
			assert.False(t, sc.Enabled)
			assert.Equal(t, models.Daily, sc.Frequency)
			assert.Nil(t, sc.NextRun)
		}

		_, err = s.ListSchedules(999)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Due schedules", func(t *testing.T) {
		now := time.Now().UTC()
		past := now.Add(-time.Minute)
		future := now.Add(time.Hour)

		movies, err := s.UpsertSchedule(sub.ID, models.Movies, true, models.Hourly, &past)
		require.NoError(t, err)
		assert.True(t, movies.Enabled)
		assert.Equal(t, models.Hourly, movies.Frequency)

		_, err = s.UpsertSchedule(sub.ID, models.Series, true, models.Daily, &future)
		require.NoError(t, err)

		due, err := s.DueSchedules(now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, movies.ID, due[0].ID)

		require.NoError(t, s.MarkScheduleRun(movies.ID, now, now.Add(time.Hour)))
		due, err = s.DueSchedules(now)
		require.NoError(t, err)
		assert.Empty(t, due)

		sc, err := s.GetSchedule(sub.ID, models.Movies)
		require.NoError(t, err)
		require.NotNil(t, sc.LastRun)
		assert.WithinDuration(t, now, *sc.LastRun, time.Second)
	})

	t.Run("Inactive subscriptions are never due", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := s.UpsertSchedule(sub.ID, models.Movies, true, models.Hourly, &past)
		require.NoError(t, err)

		inactive := false
		_, err = s.UpdateSubscription(sub.ID, models.SubscriptionPatch{IsActive: &inactive})
		require.NoError(t, err)

		due, err := s.DueSchedules(time.Now())
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestScheduleExecutions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")

	movies, err := s.UpsertSchedule(sub.ID, models.Movies, true, models.Daily, nil)
	require.NoError(t, err)
	series, err := s.UpsertSchedule(sub.ID, models.Series, true, models.Daily, nil)
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		ex, err := s.CreateExecution(movies.ID, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionRunning, ex.Status)
		require.NoError(t, s.FinishExecution(ex.ID, models.ExecutionSuccess, i, "", time.Now()))
	}
	failed, err := s.CreateExecution(series.ID, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, s.FinishExecution(failed.ID, models.ExecutionFailed, 0, "provider down", time.Now()))

	assert.ErrorIs(t, s.FinishExecution(999, models.ExecutionSuccess, 0, "", time.Now()), store.ErrNotFound)

	t.Run("Newest first across types", func(t *testing.T) {
		history, err := s.ListExecutions(sub.ID, "", 50, 0)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, failed.ID, history[0].ID)
		require.NotNil(t, history[0].ErrorMessage)
		assert.Equal(t, "provider down", *history[0].ErrorMessage)
		assert.NotNil(t, history[0].CompletedAt)
	})

	t.Run("Filtered by type with offset", func(t *testing.T) {
		history, err := s.ListExecutions(sub.ID, models.Movies, 2, 1)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 1, history[0].ItemsProcessed)
		assert.Equal(t, 0, history[1].ItemsProcessed)
	})
}
