package syncer

import (
	"context"
	"time"

	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/xtream"
)

// RefreshCategories replaces the cached category list of one content type
// with what the provider currently exposes. The selection is kept.
func (e *Engine) RefreshCategories(ctx context.Context, subID int64, ct models.ContentType) (*models.CategorySyncResult, error) {
	sub, err := e.Store.GetSubscription(subID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, ErrInactive
	}

	client := e.ClientFactory(sub)
	var cats []xtream.Category
	if ct == models.Series {
		cats, err = client.SeriesCategories(ctx)
	} else {
		cats, err = client.VODCategories(ctx)
	}
	if err != nil {
		return nil, providerErr(err)
	}

	out := make([]models.Category, 0, len(cats))
	for _, c := range cats {
		if c.CategoryID == "" {
			continue
		}
		out = append(out, models.Category{CategoryID: string(c.CategoryID), CategoryName: c.CategoryName})
	}

	now := time.Now().UTC()
	if err := e.Store.ReplaceCategories(subID, ct, out, now); err != nil {
		return nil, err
	}
	e.logger().Info("categories refreshed", "subscription_id", subID, "type", ct, "count", len(out))
	return &models.CategorySyncResult{CategoriesSynced: len(out), Timestamp: now}, nil
}
