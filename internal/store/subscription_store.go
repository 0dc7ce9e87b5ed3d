package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

const subscriptionColumns = "id, name, xtream_url, username, password, movies_dir, series_dir, is_active, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.Name, &sub.XtreamURL, &sub.Username, &sub.Password,
		&sub.MoviesDir, &sub.SeriesDir, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubscriptions returns subscriptions ordered by id, paginated by skip/limit.
// A non-positive limit returns everything after skip.
func (s *Store) ListSubscriptions(skip, limit int) ([]*models.Subscription, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query("SELECT "+subscriptionColumns+" FROM subscriptions ORDER BY id ASC LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetSubscription retrieves a single subscription by its primary key.
func (s *Store) GetSubscription(id int64) (*models.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow("SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %d: %w", id, ErrNotFound)
	}
	return sub, err
}

// CreateSubscription inserts a new subscription. A duplicate name yields ErrConflict.
func (s *Store) CreateSubscription(in models.SubscriptionInput) (*models.Subscription, error) {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now().UTC()
	row := s.db.QueryRow(`
		INSERT INTO subscriptions (name, xtream_url, username, password, movies_dir, series_dir, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+subscriptionColumns,
		in.Name, in.XtreamURL, in.Username, in.Password, in.MoviesDir, in.SeriesDir, active, now, now)
	sub, err := scanSubscription(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("subscription named %q already exists: %w", in.Name, ErrConflict)
		}
		return nil, err
	}
	return sub, nil
}

// UpdateSubscription applies only the fields present in the patch.
func (s *Store) UpdateSubscription(id int64, patch models.SubscriptionPatch) (*models.Subscription, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.XtreamURL != nil {
		add("xtream_url", *patch.XtreamURL)
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Password != nil {
		add("password", *patch.Password)
	}
	if patch.MoviesDir != nil {
		add("movies_dir", *patch.MoviesDir)
	}
	if patch.SeriesDir != nil {
		add("series_dir", *patch.SeriesDir)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if len(sets) == 0 {
		return s.GetSubscription(id)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := "UPDATE subscriptions SET " + strings.Join(sets, ", ") + " WHERE id = ? RETURNING " + subscriptionColumns
	sub, err := scanSubscription(s.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription %d: %w", id, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("subscription named %q already exists: %w", *patch.Name, ErrConflict)
		}
		return nil, err
	}
	return sub, nil
}

// DeleteSubscription removes a subscription and, through the foreign keys,
// everything that belongs to it. The deleted row is returned.
func (s *Store) DeleteSubscription(id int64) (*models.Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow("DELETE FROM subscriptions WHERE id = ? RETURNING "+subscriptionColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %d: %w", id, ErrNotFound)
	}
	return sub, err
}
