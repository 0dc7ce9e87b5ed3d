package models

import "time"

// Category is a content grouping exposed by the source, with the
// subscription's current selection state.
type Category struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Selected     bool   `json:"selected"`
}

// SelectionUpdate is the body of a selection save: only the selected subset.
type SelectionUpdate struct {
	Categories []Category `json:"categories"`
}

// CategorySyncResult reports a category list refresh from the source.
type CategorySyncResult struct {
	CategoriesSynced int       `json:"categories_synced"`
	Timestamp        time.Time `json:"timestamp"`
}
