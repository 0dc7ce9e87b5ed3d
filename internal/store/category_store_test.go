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

func TestCategoriesAndSelection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	sub := newSubscription(t, s, "Provider")

	cats := []models.Category{
		{CategoryID: "1", CategoryName: "FR - Action"},
		{CategoryID: "2", CategoryName: "EN - Drama"},
		{CategoryID: "3", CategoryName: "Kids"},
	}
	require.NoError(t, s.ReplaceCategories(sub.ID, models.Movies, cats, time.Now()))

	t.Run("Nothing selected initially", func(t *testing.T) {
		got, err := s.ListCategories(sub.ID, models.Movies)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for _, c := range got {
			assert.False(t, c.Selected, "category %s", c.CategoryID)
		}

		ids, err := s.SelectedCategoryIDs(sub.ID, models.Movies)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Types are kept apart", func(t *testing.T) {
		got, err := s.ListCategories(sub.ID, models.Series)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Saving a selection persists exactly that subset", func(t *testing.T) {
		require.NoError(t, s.ReplaceSelection(sub.ID, models.Movies, []models.Category{
			{CategoryID: "1", CategoryName: "FR - Action"},
			{CategoryID: "3", CategoryName: "Kids"},
		}))
		require.NoError(t, s.ReplaceSelection(sub.ID, models.Movies, []models.Category{
			{CategoryID: "2", CategoryName: "EN - Drama"},
			{CategoryID: "3", CategoryName: "Kids"},
		}))

		got, err := s.ListCategories(sub.ID, models.Movies)
		require.NoError(t, err)
		selected := map[string]bool{}
		for _, c := range got {
			selected[c.CategoryID] = c.Selected
		}
		assert.Equal(t, map[string]bool{"1": false, "2": true, "3": true}, selected)

		ids, err := s.SelectedCategoryIDs(sub.ID, models.Movies)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"2": true, "3": true}, ids)
	})

	t.Run("Refreshing categories keeps the selection", func(t *testing.T) {
		require.NoError(t, s.ReplaceCategories(sub.ID, models.Movies, []models.Category{
			{CategoryID: "2", CategoryName: "EN - Drama"},
			{CategoryID: "4", CategoryName: "Docs"},
		}, time.Now()))

		got, err := s.ListCategories(sub.ID, models.Movies)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, c := range got {
			assert.Equal(t, c.CategoryID == "2", c.Selected)
		}
	})

	t.Run("Empty selection clears it", func(t *testing.T) {
		require.NoError(t, s.ReplaceSelection(sub.ID, models.Movies, nil))
		ids, err := s.SelectedCategoryIDs(sub.ID, models.Movies)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
