package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/testutil"
)

func TestSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	settings, err := s.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "true", settings[models.SettingSeriesSeasonFolders])
	assert.Equal(t, "", settings[models.SettingPrefixRegex])

	require.NoError(t, s.SetSetting(models.SettingPrefixRegex, `^TEST - `))
	require.NoError(t, s.SetSettings(map[string]string{
		models.SettingCleanName:         "true",
		models.SettingFormatDateInTitle: "true",
	}))

	settings, err = s.GetSettings()
	require.NoError(t, err)
	assert.Len(t, settings, len(models.SettingKeys))

	out := models.ParseOutputSettings(settings)
	assert.Equal(t, `^TEST - `, out.PrefixRegex)
	assert.True(t, out.CleanName)
	assert.True(t, out.FormatDateInTitle)
	assert.True(t, out.SeriesSeasonFolders)
	assert.False(t, out.SeriesNameInFilename)
}
