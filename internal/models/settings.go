package models

// Setting keys stored in the settings table.
const (
	SettingPrefixRegex          = "PREFIX_REGEX"
	SettingFormatDateInTitle    = "FORMAT_DATE_IN_TITLE"
	SettingCleanName            = "CLEAN_NAME"
	SettingSeriesSeasonFolders  = "SERIES_USE_SEASON_FOLDERS"
	SettingSeriesNameInFilename = "SERIES_INCLUDE_NAME_IN_FILENAME"
)

// SettingKeys lists every recognised setting.
var SettingKeys = []string{
	SettingPrefixRegex,
	SettingFormatDateInTitle,
	SettingCleanName,
	SettingSeriesSeasonFolders,
	SettingSeriesNameInFilename,
}

// OutputSettings are the typed settings the sync engine needs.
type OutputSettings struct {
	PrefixRegex          string
	FormatDateInTitle    bool
	CleanName            bool
	SeriesSeasonFolders  bool
	SeriesNameInFilename bool
}

// ParseOutputSettings interprets the raw key/value map. Season folders are
// on unless explicitly "false"; the other flags are off unless "true".
func ParseOutputSettings(raw map[string]string) OutputSettings {
	return OutputSettings{
		PrefixRegex:          raw[SettingPrefixRegex],
		FormatDateInTitle:    raw[SettingFormatDateInTitle] == "true",
		CleanName:            raw[SettingCleanName] == "true",
		SeriesSeasonFolders:  raw[SettingSeriesSeasonFolders] != "false",
		SeriesNameInFilename: raw[SettingSeriesNameInFilename] == "true",
	}
}
