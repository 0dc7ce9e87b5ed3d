package store

import (
	"time"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

// ListCategories returns the cached categories of one content type, each
// flagged with whether the subscription has it selected.
func (s *Store) ListCategories(subID int64, ct models.ContentType) ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.category_id, c.category_name,
			EXISTS (
				SELECT 1 FROM selected_categories sc
				WHERE sc.subscription_id = c.subscription_id
					AND sc.type = c.type AND sc.category_id = c.category_id
			)
		FROM categories c
		WHERE c.subscription_id = ? AND c.type = ?
		ORDER BY c.category_name COLLATE NOCASE ASC, c.category_id ASC`,
		subID, ct.CategoryType())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.Selected); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// ReplaceCategories swaps the cached category list of one content type for a
// freshly fetched one. Selections are kept as they are.
func (s *Store) ReplaceCategories(subID int64, ct models.ContentType, cats []models.Category, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM categories WHERE subscription_id = ? AND type = ?", subID, ct.CategoryType()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO categories (subscription_id, category_id, category_name, type, last_sync)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id, type, category_id) DO UPDATE SET category_name = excluded.category_name`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range cats {
		if _, err := stmt.Exec(subID, c.CategoryID, c.CategoryName, ct.CategoryType(), now.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceSelection stores exactly the given categories as the selection of
// one content type, discarding the previous one.
func (s *Store) ReplaceSelection(subID int64, ct models.ContentType, cats []models.Category) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM selected_categories WHERE subscription_id = ? AND type = ?", subID, ct.CategoryType()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO selected_categories (subscription_id, category_id, name, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(subscription_id, type, category_id) DO UPDATE SET name = excluded.name`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range cats {
		if _, err := stmt.Exec(subID, c.CategoryID, c.CategoryName, ct.CategoryType()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SelectedCategoryIDs returns the set of selected category ids. An empty set
// means no filtering: every category is synced.
func (s *Store) SelectedCategoryIDs(subID int64, ct models.ContentType) (map[string]bool, error) {
	rows, err := s.db.Query("SELECT category_id FROM selected_categories WHERE subscription_id = ? AND type = ?", subID, ct.CategoryType())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
