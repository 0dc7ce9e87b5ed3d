// Package nfo renders Kodi style .nfo documents for movies, shows and episodes.
package nfo

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultPrefixPattern strips provider language tags such as "FR - ",
// "ARA - " or "NF_".
const DefaultPrefixPattern = `^(?:[A-Za-z0-9.-]+_|[A-Za-z]{2,}\s*-\s*)`

var (
	defaultPrefix = regexp.MustCompile(DefaultPrefixPattern)
	trailingYear  = regexp.MustCompile(`[_\s](\d{4})$`)

	prefixCache sync.Map // pattern -> *regexp.Regexp, nil when invalid
)

// TitleOptions controls how provider names are turned into display titles.
type TitleOptions struct {
	PrefixRegex string
	FormatDate  bool
	CleanName   bool
}

// CleanTitle strips the language prefix, optionally rewrites a trailing
// "_2024" as " (2024)" and optionally turns underscores into spaces.
// An invalid custom pattern falls back to the default one.
func CleanTitle(title string, opts TitleOptions) string {
	title = prefixPattern(opts.PrefixRegex).ReplaceAllString(title, "")
	if opts.FormatDate {
		title = trailingYear.ReplaceAllString(title, " ($1)")
	}
	if opts.CleanName {
		title = strings.ReplaceAll(title, "_", " ")
	}
	return title
}

func prefixPattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return defaultPrefix
	}
	if cached, ok := prefixCache.Load(pattern); ok {
		if re, _ := cached.(*regexp.Regexp); re != nil {
			return re
		}
		return defaultPrefix
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		prefixCache.Store(pattern, (*regexp.Regexp)(nil))
		return defaultPrefix
	}
	prefixCache.Store(pattern, re)
	return re
}

// ValidatePrefixRegex reports whether a custom prefix pattern compiles.
func ValidatePrefixRegex(pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := regexp.Compile(pattern)
	return err
}
