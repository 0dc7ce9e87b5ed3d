package store

import (
	"github.com/xtreamsync/xtreamsync/internal/models"
)

// MovieCacheFor returns the movie cache of a subscription keyed by stream id.
func (s *Store) MovieCacheFor(subID int64) (map[int64]models.MovieCacheEntry, error) {
	rows, err := s.db.Query(`
		SELECT stream_id, name, category_id, container_extension, COALESCE(tmdb_id, '')
		FROM movie_cache WHERE subscription_id = ?`, subID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cache := make(map[int64]models.MovieCacheEntry)
	for rows.Next() {
		e := models.MovieCacheEntry{SubscriptionID: subID}
		if err := rows.Scan(&e.StreamID, &e.Name, &e.CategoryID, &e.ContainerExtension, &e.TMDBID); err != nil {
			return nil, err
		}
		cache[e.StreamID] = e
	}
	return cache, rows.Err()
}

func (s *Store) UpsertMovieCache(e models.MovieCacheEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO movie_cache (subscription_id, stream_id, name, category_id, container_extension, tmdb_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id, stream_id) DO UPDATE SET
			name = excluded.name,
			category_id = excluded.category_id,
			container_extension = excluded.container_extension,
			tmdb_id = excluded.tmdb_id`,
		e.SubscriptionID, e.StreamID, e.Name, e.CategoryID, e.ContainerExtension, nullString(e.TMDBID))
	return err
}

func (s *Store) DeleteMovieCache(subID, streamID int64) error {
	_, err := s.db.Exec("DELETE FROM movie_cache WHERE subscription_id = ? AND stream_id = ?", subID, streamID)
	return err
}

// SeriesCacheFor returns the series cache of a subscription keyed by series id.
func (s *Store) SeriesCacheFor(subID int64) (map[int64]models.SeriesCacheEntry, error) {
	rows, err := s.db.Query(`
		SELECT series_id, name, category_id, COALESCE(tmdb_id, '')
		FROM series_cache WHERE subscription_id = ?`, subID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cache := make(map[int64]models.SeriesCacheEntry)
	for rows.Next() {
		e := models.SeriesCacheEntry{SubscriptionID: subID}
		if err := rows.Scan(&e.SeriesID, &e.Name, &e.CategoryID, &e.TMDBID); err != nil {
			return nil, err
		}
		cache[e.SeriesID] = e
	}
	return cache, rows.Err()
}

func (s *Store) UpsertSeriesCache(e models.SeriesCacheEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO series_cache (subscription_id, series_id, name, category_id, tmdb_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id, series_id) DO UPDATE SET
			name = excluded.name,
			category_id = excluded.category_id,
			tmdb_id = excluded.tmdb_id`,
		e.SubscriptionID, e.SeriesID, e.Name, e.CategoryID, nullString(e.TMDBID))
	return err
}

func (s *Store) DeleteSeriesCache(subID, seriesID int64) error {
	_, err := s.db.Exec("DELETE FROM series_cache WHERE subscription_id = ? AND series_id = ?", subID, seriesID)
	return err
}
