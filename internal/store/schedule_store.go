package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

const scheduleColumns = "id, subscription_id, type, enabled, frequency, last_run, next_run"

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var sc models.Schedule
	var lastRun, nextRun sql.NullTime
	if err := row.Scan(&sc.ID, &sc.SubscriptionID, &sc.Type, &sc.Enabled, &sc.Frequency, &lastRun, &nextRun); err != nil {
		return nil, err
	}
	sc.LastRun = nullTimePtr(lastRun)
	sc.NextRun = nullTimePtr(nextRun)
	return &sc, nil
}

// ListSchedules returns the schedules of both content types for a
// subscription, creating disabled daily defaults for any that are missing.
func (s *Store) ListSchedules(subID int64) ([]*models.Schedule, error) {
	for _, ct := range models.ContentTypes {
		_, err := s.db.Exec(`
			INSERT INTO schedules (subscription_id, type, enabled, frequency) VALUES (?, ?, 0, ?)
			ON CONFLICT(subscription_id, type) DO NOTHING`, subID, ct, models.Daily)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("subscription %d: %w", subID, ErrNotFound)
			}
			return nil, err
		}
	}

	rows, err := s.db.Query("SELECT "+scheduleColumns+" FROM schedules WHERE subscription_id = ? ORDER BY type ASC", subID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*models.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

// GetSchedule returns the schedule of one subscription and content type.
func (s *Store) GetSchedule(subID int64, ct models.ContentType) (*models.Schedule, error) {
	sc, err := scanSchedule(s.db.QueryRow("SELECT "+scheduleColumns+" FROM schedules WHERE subscription_id = ? AND type = ?", subID, ct))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %d/%s: %w", subID, ct, ErrNotFound)
	}
	return sc, err
}

// UpsertSchedule creates or replaces the configuration of one schedule.
// A nil nextRun clears it, which is what disabling does.
func (s *Store) UpsertSchedule(subID int64, ct models.ContentType, enabled bool, freq models.Frequency, nextRun *time.Time) (*models.Schedule, error) {
	var next sql.NullTime
	if nextRun != nil {
		next = sql.NullTime{Time: nextRun.UTC(), Valid: true}
	}
	row := s.db.QueryRow(`
		INSERT INTO schedules (subscription_id, type, enabled, frequency, next_run) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id, type) DO UPDATE SET
			enabled = excluded.enabled,
			frequency = excluded.frequency,
			next_run = excluded.next_run
		RETURNING `+scheduleColumns,
		subID, ct, enabled, freq, next)
	sc, err := scanSchedule(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("subscription %d: %w", subID, ErrNotFound)
		}
		return nil, err
	}
	return sc, nil
}

// DueSchedules returns enabled schedules of active subscriptions whose
// next run is not in the future. Enabled schedules without a next run are
// due immediately.
func (s *Store) DueSchedules(now time.Time) ([]*models.Schedule, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.subscription_id, s.type, s.enabled, s.frequency, s.last_run, s.next_run
		FROM schedules s
		JOIN subscriptions sub ON sub.id = s.subscription_id
		WHERE s.enabled = 1 AND sub.is_active = 1
			AND (s.next_run IS NULL OR s.next_run <= ?)
		ORDER BY s.next_run ASC, s.id ASC`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := []*models.Schedule{}
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, sc)
	}
	return due, rows.Err()
}

func (s *Store) MarkScheduleRun(id int64, lastRun, nextRun time.Time) error {
	_, err := s.db.Exec("UPDATE schedules SET last_run = ?, next_run = ? WHERE id = ?", lastRun.UTC(), nextRun.UTC(), id)
	return err
}

const executionColumns = "e.id, e.schedule_id, e.started_at, e.completed_at, e.status, e.items_processed, e.error_message"

func scanExecution(row rowScanner) (*models.ScheduleExecution, error) {
	var ex models.ScheduleExecution
	var completed sql.NullTime
	var errMsg sql.NullString
	if err := row.Scan(&ex.ID, &ex.ScheduleID, &ex.StartedAt, &completed, &ex.Status, &ex.ItemsProcessed, &errMsg); err != nil {
		return nil, err
	}
	ex.CompletedAt = nullTimePtr(completed)
	ex.ErrorMessage = nullStringPtr(errMsg)
	return &ex, nil
}

// CreateExecution records the start of a scheduled run.
func (s *Store) CreateExecution(scheduleID int64, startedAt time.Time) (*models.ScheduleExecution, error) {
	row := s.db.QueryRow(`
		INSERT INTO schedule_executions (schedule_id, started_at, status) VALUES (?, ?, ?)
		RETURNING id, schedule_id, started_at, completed_at, status, items_processed, error_message`,
		scheduleID, startedAt.UTC(), models.ExecutionRunning)
	return scanExecution(row)
}

// FinishExecution stores the outcome of a scheduled run.
func (s *Store) FinishExecution(id int64, status models.ExecutionStatus, itemsProcessed int, errMsg string, completedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE schedule_executions SET status = ?, items_processed = ?, error_message = ?, completed_at = ?
		WHERE id = ?`,
		status, itemsProcessed, nullString(errMsg), completedAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("execution %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListExecutions returns the execution history of a subscription, newest
// first. An empty content type includes both.
func (s *Store) ListExecutions(subID int64, ct models.ContentType, limit, offset int) ([]*models.ScheduleExecution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM schedule_executions e
		JOIN schedules s ON s.id = e.schedule_id
		WHERE s.subscription_id = ?`
	args := []any{subID}
	if ct != "" {
		query += " AND s.type = ?"
		args = append(args, ct)
	}
	query += " ORDER BY e.started_at DESC, e.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []*models.ScheduleExecution{}
	for rows.Next() {
		ex, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, ex)
	}
	return history, rows.Err()
}
