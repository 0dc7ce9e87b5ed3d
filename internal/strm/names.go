// Package strm lays out and writes the .strm/.nfo tree a media server scans.
package strm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

const maxNameLength = 200

var (
	invalidChars    = regexp.MustCompile(`[\\/:*?"<>|]`)
	episodeCodeSxE  = regexp.MustCompile(`(?i)^S\d{1,2}E\d{1,2}\s*[-:.]?\s*`)
	episodeCodeNxNN = regexp.MustCompile(`(?i)^\d{1,2}x\d{1,2}\s*[-:.]?\s*`)
)

// placeholderName stands in for names that are not a usable path component.
const placeholderName = "_"

// SanitizeName makes a title safe as a single path component. Reserved
// characters become "_" and the result is capped at 200 characters. Blank
// names and "." or ".." become "_" so they never resolve to a parent folder.
func SanitizeName(name string) string {
	safe := invalidChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if r := []rune(safe); len(r) > maxNameLength {
		safe = strings.TrimSpace(string(r[:maxNameLength]))
	}
	switch safe {
	case "", ".", "..":
		return placeholderName
	}
	return safe
}

// TMDBSuffix returns " {tmdb-N}" for a valid TMDB id, which is how Jellyfin
// and Plex pick up the match, and "" otherwise.
func TMDBSuffix(tmdbID string) string {
	id := models.ValidTMDBID(tmdbID)
	if id == "" {
		return ""
	}
	return fmt.Sprintf(" {tmdb-%s}", id)
}

// CleanEpisodeTitle drops a leading series name and a leading episode code
// ("S01E02 - ", "1x02 - ") from a provider episode title.
func CleanEpisodeTitle(title, seriesName string) string {
	if title == "" {
		return ""
	}
	if n := len(seriesName); n > 0 && len(title) >= n && strings.EqualFold(title[:n], seriesName) {
		title = strings.Trim(title[n:], " -:")
	}
	title = episodeCodeSxE.ReplaceAllString(title, "")
	title = episodeCodeNxNN.ReplaceAllString(title, "")
	return strings.Trim(title, " -:")
}

// EpisodeCode formats season and episode as "S01E02".
func EpisodeCode(season, episode int) string {
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

// EpisodeBaseName is the file name (without extension) of an episode:
// "S01E02 - Title", or "Show - S01E02 - Title" when the series name is
// included. The title part is dropped when empty.
func EpisodeBaseName(seriesName string, season, episode int, title string, includeSeriesName bool) string {
	parts := make([]string, 0, 3)
	if includeSeriesName {
		parts = append(parts, SanitizeName(seriesName))
	}
	parts = append(parts, EpisodeCode(season, episode))
	if clean := CleanEpisodeTitle(title, seriesName); clean != "" {
		parts = append(parts, SanitizeName(clean))
	}
	return strings.Join(parts, " - ")
}

// SeasonDirName is the zero-padded season folder name, e.g. "Season 01".
func SeasonDirName(season int) string {
	return fmt.Sprintf("Season %02d", season)
}
