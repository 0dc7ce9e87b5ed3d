package syncer

import (
	"context"
	"strconv"
	"sync"

	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/nfo"
	"github.com/xtreamsync/xtreamsync/internal/strm"
	"github.com/xtreamsync/xtreamsync/internal/xtream"
)

const (
	phaseFetchingDetails = "Fetching VOD details"
	phaseCreatingFiles   = "Creating files"
	movieProgressEvery   = 100
)

// movieItem is a stream selected for writing together with what the
// detail lookup found.
type movieItem struct {
	stream  xtream.VODStream
	details *xtream.VODDetails
	cached  *models.MovieCacheEntry
}

func (m *movieItem) id() int64 { return int64(m.stream.StreamID) }

// tmdbID is the list value, or the detail value when the list has none.
func (m *movieItem) tmdbID() string {
	if id := models.ValidTMDBID(string(m.stream.TMDB)); id != "" {
		return id
	}
	if m.details != nil {
		return models.ValidTMDBID(string(m.details.TMDBID))
	}
	return ""
}

func (e *Engine) syncMovies(ctx context.Context, r *runner) (*models.SyncResult, error) {
	sub := r.sub
	w := strm.NewWriter(sub.MoviesDir)

	cats, err := r.client.VODCategories(ctx)
	if err != nil {
		return nil, providerErr(err)
	}
	names := categoryNames(cats)

	streams, err := r.client.VODStreams(ctx)
	if err != nil {
		return nil, providerErr(err)
	}

	selected, err := e.Store.SelectedCategoryIDs(sub.ID, models.Movies)
	if err != nil {
		return nil, err
	}
	if len(selected) > 0 {
		kept := streams[:0]
		for _, s := range streams {
			if selected[string(s.CategoryID)] {
				kept = append(kept, s)
			}
		}
		streams = kept
	}
	streams = firstByID(streams, func(s xtream.VODStream) int64 { return int64(s.StreamID) })

	cache, err := e.Store.MovieCacheFor(sub.ID)
	if err != nil {
		return nil, err
	}

	var changed []*movieItem
	current := make(map[int64]bool, len(streams))
	for _, s := range streams {
		id := int64(s.StreamID)
		current[id] = true
		cached, ok := cache[id]
		if !ok {
			changed = append(changed, &movieItem{stream: s})
			continue
		}
		listTMDB := models.ValidTMDBID(string(s.TMDB))
		if cached.Name != s.Name || cached.ContainerExtension != s.ContainerExtension ||
			cached.CategoryID != string(s.CategoryID) || (listTMDB != "" && listTMDB != cached.TMDBID) {
			c := cached
			changed = append(changed, &movieItem{stream: s, cached: &c})
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
		files := w.MovieFiles(categoryName(names, cached.CategoryID), cached.Name, cached.TMDBID)
		if err := w.RemoveMovie(files); err != nil {
			r.logger.Warn("removing movie files", "stream_id", id, "err", err)
		}
		w.RemoveDirIfEmpty(files.CategoryDir)
		if err := e.Store.DeleteMovieCache(sub.ID, id); err != nil {
			return nil, err
		}
		deleted++
	}

	if len(changed) > 0 {
		r.logger.Info("fetching movie details", "count", len(changed))
		if err := e.fetchDetails(ctx, r, changed); err != nil {
			return nil, err
		}
	}

	// tmdb ids as they are on disk after this run, for the NFO backfill.
	effective := make(map[int64]string, len(cache))
	for id, c := range cache {
		effective[id] = c.TMDBID
	}
	total := len(changed)
	for idx, item := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx%movieProgressEvery == 0 || idx == total-1 {
			r.progress(idx+1, total, phaseCreatingFiles)
		}
		if err := e.writeMovie(r, w, names, item); err != nil {
			return nil, err
		}
		effective[item.id()] = item.tmdbID()
	}

	created := 0
	for _, s := range streams {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tmdbID := effective[int64(s.StreamID)]
		files := w.MovieFiles(categoryName(names, string(s.CategoryID)), s.Name, tmdbID)
		if w.Exists(files.NFO) {
			continue
		}
		content, err := nfo.Movie(movieMetadata(s, nil, tmdbID), r.titles)
		if err != nil {
			return nil, err
		}
		if err := w.WriteFile(files.NFO, content); err != nil {
			return nil, err
		}
		created++
	}
	if created > 0 {
		r.logger.Info("created missing movie NFO files", "count", created)
	}

	return &models.SyncResult{ItemsAdded: len(changed), ItemsDeleted: deleted}, nil
}

// writeMovie writes the .strm and .nfo of one movie, clears files left at
// its previous location and records it in the cache.
func (e *Engine) writeMovie(r *runner, w *strm.Writer, names map[string]string, item *movieItem) error {
	s := item.stream
	tmdbID := item.tmdbID()
	files := w.MovieFiles(categoryName(names, string(s.CategoryID)), s.Name, tmdbID)

	if c := item.cached; c != nil {
		old := w.MovieFiles(categoryName(names, c.CategoryID), c.Name, c.TMDBID)
		if old.STRM != files.STRM {
			if err := w.RemoveMovie(old); err != nil {
				r.logger.Warn("removing previous movie files", "stream_id", item.id(), "err", err)
			}
			w.RemoveDirIfEmpty(old.CategoryDir)
		}
	}

	url := r.client.StreamURL(xtream.KindMovie, strconv.FormatInt(item.id(), 10), s.ContainerExtension)
	if err := w.WriteFile(files.STRM, url); err != nil {
		return err
	}
	content, err := nfo.Movie(movieMetadata(s, item.details, tmdbID), r.titles)
	if err != nil {
		return err
	}
	if err := w.WriteFile(files.NFO, content); err != nil {
		return err
	}

	return e.Store.UpsertMovieCache(models.MovieCacheEntry{
		SubscriptionID:     r.sub.ID,
		StreamID:           item.id(),
		Name:               s.Name,
		CategoryID:         string(s.CategoryID),
		ContainerExtension: s.ContainerExtension,
		TMDBID:             tmdbID,
	})
}

// fetchDetails looks up every item with a bounded number of workers.
// Failed lookups are logged and leave the item without details.
func (e *Engine) fetchDetails(ctx context.Context, r *runner, items []*movieItem) error {
	total := len(items)
	r.progress(0, total, phaseFetchingDetails)

	jobs := make(chan *movieItem)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i := 0; i < e.detailConcurrency(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				info, err := r.client.VODInfo(ctx, item.id())
				if err != nil {
					if ctx.Err() == nil {
						r.logger.Warn("fetching movie details", "stream_id", item.id(), "err", err)
					}
				} else {
					item.details = &info.Info
				}

				mu.Lock()
				completed++
				if completed%movieProgressEvery == 0 || completed == total {
					r.progress(completed, total, phaseFetchingDetails)
				}
				mu.Unlock()
			}
		}()
	}

	for _, item := range items {
		select {
		case jobs <- item:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	return ctx.Err()
}
