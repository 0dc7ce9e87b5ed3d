package syncer

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/nfo"
	"github.com/xtreamsync/xtreamsync/internal/strm"
	"github.com/xtreamsync/xtreamsync/internal/util"
	"github.com/xtreamsync/xtreamsync/internal/xtream"
)

const (
	phaseProcessingSeries = "Processing series"
	seriesProgressEvery   = 10
	showNFOName           = "tvshow.nfo"
)

func (e *Engine) syncSeries(ctx context.Context, r *runner) (*models.SyncResult, error) {
	sub := r.sub
	w := strm.NewWriter(sub.SeriesDir)

	cats, err := r.client.SeriesCategories(ctx)
	if err != nil {
		return nil, providerErr(err)
	}
	names := categoryNames(cats)

	list, err := r.client.Series(ctx)
	if err != nil {
		return nil, providerErr(err)
	}

	selected, err := e.Store.SelectedCategoryIDs(sub.ID, models.Series)
	if err != nil {
		return nil, err
	}
	if len(selected) > 0 {
		kept := list[:0]
		for _, s := range list {
			if selected[string(s.CategoryID)] {
				kept = append(kept, s)
			}
		}
		list = kept
	}
	list = firstByID(list, func(s xtream.Series) int64 { return int64(s.SeriesID) })

	cache, err := e.Store.SeriesCacheFor(sub.ID)
	if err != nil {
		return nil, err
	}

	type seriesItem struct {
		series xtream.Series
		cached *models.SeriesCacheEntry
	}
	var changed []seriesItem
	current := make(map[int64]bool, len(list))
	for _, s := range list {
		id := int64(s.SeriesID)
		current[id] = true
		cached, ok := cache[id]
		if !ok {
			changed = append(changed, seriesItem{series: s})
			continue
		}
		if cached.Name != s.Name || cached.CategoryID != string(s.CategoryID) ||
			cached.TMDBID != models.ValidTMDBID(string(s.TMDB)) {
			c := cached
			changed = append(changed, seriesItem{series: s, cached: &c})
		}
	}

	deleted := 0
	for id, cached := range cache {
		if current[id] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := w.SeriesDir(categoryName(names, cached.CategoryID), cached.Name, cached.TMDBID)
		if err := w.RemoveAll(dir); err != nil {
			r.logger.Warn("removing series folder", "series_id", id, "err", err)
		}
		w.RemoveDirIfEmpty(filepath.Dir(dir))
		if err := e.Store.DeleteSeriesCache(sub.ID, id); err != nil {
			return nil, err
		}
		deleted++
	}

	written := 0
	total := len(changed)
	for idx, item := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx%seriesProgressEvery == 0 || idx == total-1 {
			r.progress(idx+1, total, phaseProcessingSeries)
		}
		ok, err := e.writeSeries(ctx, r, w, names, item.series, item.cached)
		if err != nil {
			return nil, err
		}
		if ok {
			written++
		}
	}

	created := 0
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := w.SeriesDir(categoryName(names, string(s.CategoryID)), s.Name, models.ValidTMDBID(string(s.TMDB)))
		if !w.Exists(dir) || w.Exists(filepath.Join(dir, showNFOName)) {
			continue
		}
		content, err := nfo.Show(showMetadata(s), r.titles)
		if err != nil {
			return nil, err
		}
		if err := w.WriteFile(filepath.Join(dir, showNFOName), content); err != nil {
			return nil, err
		}
		created++
	}
	if created > 0 {
		r.logger.Info("created missing tvshow.nfo files", "count", created)
	}

	return &models.SyncResult{ItemsAdded: written, ItemsDeleted: deleted}, nil
}

// writeSeries writes one series folder. It reports false when the episode
// list could not be fetched; the series is then retried on the next run.
func (e *Engine) writeSeries(ctx context.Context, r *runner, w *strm.Writer, names map[string]string, s xtream.Series, cached *models.SeriesCacheEntry) (bool, error) {
	id := int64(s.SeriesID)
	tmdbID := models.ValidTMDBID(string(s.TMDB))
	dir := w.SeriesDir(categoryName(names, string(s.CategoryID)), s.Name, tmdbID)

	info, err := r.client.SeriesInfo(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		r.logger.Warn("fetching series info", "series_id", id, "err", providerErr(err))
		return false, nil
	}

	if cached != nil {
		old := w.SeriesDir(categoryName(names, cached.CategoryID), cached.Name, cached.TMDBID)
		if old != dir {
			if err := w.RemoveAll(old); err != nil {
				r.logger.Warn("removing previous series folder", "series_id", id, "err", err)
			}
			w.RemoveDirIfEmpty(filepath.Dir(old))
		}
	}

	show, err := nfo.Show(showMetadata(s), r.titles)
	if err != nil {
		return false, err
	}
	if err := w.WriteFile(filepath.Join(dir, showNFOName), show); err != nil {
		return false, err
	}

	for _, season := range sortedSeasons(info.Episodes) {
		for _, ep := range info.Episodes[season.key] {
			if err := e.writeEpisode(r, w, dir, s.Name, season.number, ep); err != nil {
				return false, err
			}
		}
	}

	err = e.Store.UpsertSeriesCache(models.SeriesCacheEntry{
		SubscriptionID: r.sub.ID,
		SeriesID:       id,
		Name:           s.Name,
		CategoryID:     string(s.CategoryID),
		TMDBID:         tmdbID,
	})
	return err == nil, err
}

func (e *Engine) writeEpisode(r *runner, w *strm.Writer, seriesDir, seriesName string, season int, ep xtream.Episode) error {
	if ep.ID == "" {
		return nil
	}
	if ep.Season > 0 {
		season = int(ep.Season)
	}
	num := int(ep.EpisodeNum)
	dir := strm.EpisodeDir(seriesDir, season, r.settings.SeriesSeasonFolders)
	base := strm.EpisodeBaseName(seriesName, season, num, ep.Title, r.settings.SeriesNameInFilename)

	ext := ep.ContainerExtension
	if ext == "" {
		ext = "mp4"
	}
	url := r.client.StreamURL(xtream.KindSeries, string(ep.ID), ext)
	if err := w.WriteFile(filepath.Join(dir, base+".strm"), url); err != nil {
		return err
	}

	meta := episodeMetadata(ep)
	meta.Title = strm.CleanEpisodeTitle(ep.Title, seriesName)
	content, err := nfo.Episode(meta, seriesName, season, num, r.titles)
	if err != nil {
		return err
	}
	return w.WriteFile(filepath.Join(dir, base+".nfo"), content)
}

type seasonKey struct {
	key    string
	number int
}

// sortedSeasons orders the season keys naturally ("2" before "10").
// Keys that are not numbers count as season 0.
func sortedSeasons(seasons xtream.Seasons) []seasonKey {
	keys := make([]seasonKey, 0, len(seasons))
	for k := range seasons {
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			n = 0
		}
		keys = append(keys, seasonKey{key: k, number: n})
	}
	sort.Slice(keys, func(i, j int) bool {
		return util.NaturalSortLess(keys[i].key, keys[j].key)
	})
	return keys
}
