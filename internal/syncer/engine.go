// Package syncer mirrors a subscription's VOD catalogue into .strm/.nfo files.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/xtreamsync/xtreamsync/internal/config"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/nfo"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/xtream"
)

var (
	// ErrInactive is returned when the subscription is switched off.
	ErrInactive = errors.New("subscription is inactive")
	// ErrStopped is returned when a run was cancelled from outside.
	ErrStopped = errors.New("sync stopped")
	// ErrProvider wraps failures talking to the Xtream provider.
	ErrProvider = errors.New("provider request failed")
)

// ProgressFunc receives progress of the running phase.
type ProgressFunc func(current, total int, phase string)

// ClientFactory builds the provider client of a subscription.
type ClientFactory func(sub *models.Subscription) *xtream.Client

// Engine runs movie and series syncs against the store and the file system.
type Engine struct {
	Store             *store.Store
	Logger            *log.Logger
	DetailConcurrency int
	ClientFactory     ClientFactory
}

// NewEngine wires an engine with clients configured from cfg.
func NewEngine(st *store.Store, logger *log.Logger, cfg *config.Config, userAgent string) *Engine {
	return &Engine{
		Store:             st,
		Logger:            logger,
		DetailConcurrency: cfg.Sync.DetailConcurrency,
		ClientFactory:     NewClientFactory(cfg, userAgent),
	}
}

// NewClientFactory returns a factory applying the configured timeout, rate
// limit and user agent.
func NewClientFactory(cfg *config.Config, userAgent string) ClientFactory {
	if cfg.Xtream.UserAgent != "" {
		userAgent = cfg.Xtream.UserAgent
	}
	timeout := time.Duration(cfg.Xtream.Timeout) * time.Second
	return func(sub *models.Subscription) *xtream.Client {
		opts := []xtream.Option{xtream.WithRateLimit(cfg.Xtream.RateLimit), xtream.WithUserAgent(userAgent)}
		if timeout > 0 {
			opts = append(opts, xtream.WithTimeout(timeout))
		}
		return xtream.NewClient(sub.XtreamURL, sub.Username, sub.Password, opts...)
	}
}

type runIDKey struct{}

// WithRunID attaches the id under which a run is recorded.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run id attached with WithRunID, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Sync dispatches to SyncMovies or SyncSeries.
func (e *Engine) Sync(ctx context.Context, subID int64, ct models.ContentType, progress ProgressFunc) (*models.SyncResult, error) {
	if ct == models.Series {
		return e.SyncSeries(ctx, subID, progress)
	}
	return e.SyncMovies(ctx, subID, progress)
}

// SyncMovies brings the movie tree of a subscription in line with the provider.
func (e *Engine) SyncMovies(ctx context.Context, subID int64, progress ProgressFunc) (*models.SyncResult, error) {
	return e.run(ctx, subID, models.Movies, progress, e.syncMovies)
}

// SyncSeries brings the series tree of a subscription in line with the provider.
func (e *Engine) SyncSeries(ctx context.Context, subID int64, progress ProgressFunc) (*models.SyncResult, error) {
	return e.run(ctx, subID, models.Series, progress, e.syncSeries)
}

type syncFunc func(ctx context.Context, r *runner) (*models.SyncResult, error)

// runner carries the per-run state shared by the movie and series passes.
type runner struct {
	sub      *models.Subscription
	client   *xtream.Client
	settings models.OutputSettings
	titles   nfo.TitleOptions
	progress ProgressFunc
	logger   *log.Logger
}

func (e *Engine) run(ctx context.Context, subID int64, ct models.ContentType, progress ProgressFunc, fn syncFunc) (*models.SyncResult, error) {
	sub, err := e.Store.GetSubscription(subID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, ErrInactive
	}
	raw, err := e.Store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	settings := models.ParseOutputSettings(raw)

	runID := RunIDFrom(ctx)
	logger := e.logger().With("subscription_id", subID, "type", ct, "run_id", runID)
	if err := e.Store.MarkSyncRunning(subID, ct, runID, time.Now()); err != nil {
		return nil, fmt.Errorf("marking sync running: %w", err)
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	r := &runner{
		sub:      sub,
		client:   e.ClientFactory(sub),
		settings: settings,
		titles: nfo.TitleOptions{
			PrefixRegex: settings.PrefixRegex,
			FormatDate:  settings.FormatDateInTitle,
			CleanName:   settings.CleanName,
		},
		progress: progress,
		logger:   logger,
	}

	logger.Info("sync started")
	res, err := fn(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			// Whoever cancelled the run owns the final state.
			logger.Info("sync stopped")
			return nil, ErrStopped
		}
		logger.Error("sync failed", "err", err)
		if ferr := e.Store.FinishSync(subID, ct, models.SyncFailed, 0, 0, err.Error()); ferr != nil {
			logger.Error("recording failure", "err", ferr)
		}
		return nil, err
	}

	if err := e.Store.FinishSync(subID, ct, models.SyncSuccess, res.ItemsAdded, res.ItemsDeleted, ""); err != nil {
		return nil, fmt.Errorf("recording success: %w", err)
	}
	logger.Info("sync finished", "added", res.ItemsAdded, "deleted", res.ItemsDeleted)
	return res, nil
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

func (e *Engine) detailConcurrency() int {
	if e.DetailConcurrency <= 0 {
		return 10
	}
	return e.DetailConcurrency
}

// firstByID drops repeated ids, keeping the first entry. Panels list a title
// once per category it belongs to.
func firstByID[T any](items []T, id func(T) int64) []T {
	seen := make(map[int64]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := id(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

func providerErr(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}

// categoryName resolves a category id, defaulting to "Uncategorized".
func categoryName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return "Uncategorized"
}

func categoryNames(cats []xtream.Category) map[string]string {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[string(c.CategoryID)] = c.CategoryName
	}
	return names
}
