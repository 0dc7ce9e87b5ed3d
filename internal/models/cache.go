package models

// MovieCacheEntry remembers what was last written for a movie stream so the
// next sync can detect changes and removals.
type MovieCacheEntry struct {
	SubscriptionID     int64
	StreamID           int64
	Name               string
	CategoryID         string
	ContainerExtension string
	TMDBID             string // empty when unknown
}

// SeriesCacheEntry is the series counterpart of MovieCacheEntry.
type SeriesCacheEntry struct {
	SubscriptionID int64
	SeriesID       int64
	Name           string
	CategoryID     string
	TMDBID         string
}
