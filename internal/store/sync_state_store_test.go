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

func TestSyncStateLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")

	st, err := s.EnsureSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncIdle, st.Status)
	assert.Nil(t, st.LastSync)

	_, err = s.EnsureSyncState(999, models.Movies)
	assert.ErrorIs(t, err, store.ErrNotFound)

	now := time.Now().UTC()
	require.NoError(t, s.MarkSyncRunning(sub.ID, models.Movies, "run-1", now))
	require.NoError(t, s.UpdateSyncProgress(sub.ID, models.Movies, 100, 250, "Fetching VOD details"))

	st, err = s.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncRunning, st.Status)
	require.NotNil(t, st.TaskID)
	assert.Equal(t, "run-1", *st.TaskID)
	require.NotNil(t, st.LastSync)
	assert.WithinDuration(t, now, *st.LastSync, time.Second)
	assert.Equal(t, 100, st.ProgressCurrent)
	assert.Equal(t, 250, st.ProgressTotal)
	require.NotNil(t, st.ProgressPhase)
	assert.Equal(t, "Fetching VOD details", *st.ProgressPhase)

	require.NoError(t, s.FinishSync(sub.ID, models.Movies, models.SyncSuccess, 12, 3, ""))
	st, err = s.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncSuccess, st.Status)
	assert.Equal(t, 12, st.ItemsAdded)
	assert.Equal(t, 3, st.ItemsDeleted)
	assert.Nil(t, st.TaskID)
	assert.Nil(t, st.ErrorMessage)
	assert.Zero(t, st.ProgressTotal)

	// A new run clears the counters of the previous one.
	require.NoError(t, s.MarkSyncRunning(sub.ID, models.Movies, "run-2", time.Now()))
	st, err = s.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Zero(t, st.ItemsAdded)

	require.NoError(t, s.MarkSyncStopped(sub.ID, models.Movies))
	st, err = s.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncIdle, st.Status)
	assert.Nil(t, st.TaskID)

	require.NoError(t, s.FinishSync(sub.ID, models.Movies, models.SyncFailed, 0, 0, "boom"))
	require.NoError(t, s.MarkSyncStopped(sub.ID, models.Movies))
	st, err = s.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncFailed, st.Status)

	_, err = s.GetSyncState(sub.ID, models.Series)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResetRunningSyncStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")

	require.NoError(t, s.MarkSyncRunning(sub.ID, models.Movies, "run-1", time.Now()))
	require.NoError(t, s.MarkSyncRunning(sub.ID, models.Series, "run-2", time.Now()))
	require.NoError(t, s.FinishSync(sub.ID, models.Series, models.SyncFailed, 0, 0, "boom"))

	n, err := s.ResetRunningSyncStates()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	states, err := s.ListSyncStates()
	require.NoError(t, err)
	require.Len(t, states, 2)
	byType := map[models.ContentType]*models.SyncState{}
	for _, st := range states {
		byType[st.Type] = st
	}
	assert.Equal(t, models.SyncIdle, byType[models.Movies].Status)
	require.NotNil(t, byType[models.Movies].ErrorMessage)
	assert.Equal(t, "interrupted", *byType[models.Movies].ErrorMessage)
	assert.Equal(t, models.SyncFailed, byType[models.Series].Status)
}
