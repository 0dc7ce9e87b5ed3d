package store

import (
	"math"
	"time"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

// DashboardStats aggregates content, source and sync figures in a single
// round trip. Errors are counted over the 24 hours before now.
func (s *Store) DashboardStats(now time.Time) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM movie_cache),
			(SELECT COUNT(*) FROM series_cache),
			(SELECT COUNT(*) FROM subscriptions),
			(SELECT COUNT(*) FROM subscriptions WHERE is_active = 1),
			(SELECT COUNT(*) FROM sync_state WHERE status = 'running'),
			(SELECT COUNT(*) FROM sync_state WHERE status = 'failed' AND finished_at >= ?),
			(SELECT COUNT(*) FROM sync_state WHERE status = 'success'),
			(SELECT COUNT(*) FROM sync_state WHERE status = 'failed')`

	var stats models.DashboardStats
	var succeeded, failed int
	err := s.db.QueryRow(query, now.UTC().Add(-24*time.Hour)).Scan(
		&stats.TotalContent.Movies,
		&stats.TotalContent.Series,
		&stats.Sources.Total,
		&stats.Sources.Active,
		&stats.SyncStatus.InProgress,
		&stats.SyncStatus.Errors24h,
		&succeeded,
		&failed,
	)
	if err != nil {
		return nil, err
	}

	stats.TotalContent.Total = stats.TotalContent.Movies + stats.TotalContent.Series
	stats.Sources.Inactive = stats.Sources.Total - stats.Sources.Active
	stats.SyncStatus.SuccessRate = successRate(succeeded, failed)
	return &stats, nil
}

// successRate is a percentage rounded to one decimal; 100 when nothing finished.
func successRate(succeeded, failed int) float64 {
	finished := succeeded + failed
	if finished == 0 {
		return 100
	}
	return math.Round(float64(succeeded)/float64(finished)*1000) / 10
}
