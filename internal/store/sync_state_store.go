package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xtreamsync/xtreamsync/internal/models"
)

const syncStateColumns = `id, subscription_id, type, last_sync, status, items_added, items_deleted,
	error_message, task_id, progress_current, progress_total, progress_phase`

func scanSyncState(row rowScanner) (*models.SyncState, error) {
	var st models.SyncState
	var lastSync sql.NullTime
	var errMsg, taskID, phase sql.NullString
	err := row.Scan(&st.ID, &st.SubscriptionID, &st.Type, &lastSync, &st.Status, &st.ItemsAdded, &st.ItemsDeleted,
		&errMsg, &taskID, &st.ProgressCurrent, &st.ProgressTotal, &phase)
	if err != nil {
		return nil, err
	}
	st.LastSync = nullTimePtr(lastSync)
	st.ErrorMessage = nullStringPtr(errMsg)
	st.TaskID = nullStringPtr(taskID)
	st.ProgressPhase = nullStringPtr(phase)
	return &st, nil
}

// ListSyncStates returns the sync state rows of every subscription.
func (s *Store) ListSyncStates() ([]*models.SyncState, error) {
	rows, err := s.db.Query("SELECT " + syncStateColumns + " FROM sync_state ORDER BY subscription_id ASC, type ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := []*models.SyncState{}
	for rows.Next() {
		st, err := scanSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// GetSyncState returns the state of one subscription and content type.
func (s *Store) GetSyncState(subID int64, ct models.ContentType) (*models.SyncState, error) {
	st, err := scanSyncState(s.db.QueryRow("SELECT "+syncStateColumns+" FROM sync_state WHERE subscription_id = ? AND type = ?", subID, ct))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync state %d/%s: %w", subID, ct, ErrNotFound)
	}
	return st, err
}

// EnsureSyncState creates an idle state row if none exists yet and returns it.
func (s *Store) EnsureSyncState(subID int64, ct models.ContentType) (*models.SyncState, error) {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (subscription_id, type, status) VALUES (?, ?, ?)
		ON CONFLICT(subscription_id, type) DO NOTHING`, subID, ct, models.SyncIdle)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("subscription %d: %w", subID, ErrNotFound)
		}
		return nil, err
	}
	return s.GetSyncState(subID, ct)
}

// MarkSyncRunning flags the state as running under the given run id and
// clears the counters of the previous run.
func (s *Store) MarkSyncRunning(subID int64, ct models.ContentType, runID string, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (subscription_id, type, status, last_sync, task_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id, type) DO UPDATE SET
			status = excluded.status,
			last_sync = excluded.last_sync,
			task_id = excluded.task_id,
			items_added = 0,
			items_deleted = 0,
			error_message = NULL,
			progress_current = 0,
			progress_total = 0,
			progress_phase = NULL,
			finished_at = NULL`,
		subID, ct, models.SyncRunning, now.UTC(), nullString(runID))
	return err
}

// UpdateSyncProgress records how far the running job has come.
func (s *Store) UpdateSyncProgress(subID int64, ct models.ContentType, current, total int, phase string) error {
	_, err := s.db.Exec(`
		UPDATE sync_state SET progress_current = ?, progress_total = ?, progress_phase = ?
		WHERE subscription_id = ? AND type = ?`,
		current, total, nullString(phase), subID, ct)
	return err
}

// FinishSync stores the outcome of a run. Progress is reset and the run id
// is dropped.
func (s *Store) FinishSync(subID int64, ct models.ContentType, status models.SyncStatus, added, deleted int, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE sync_state SET
			status = ?, items_added = ?, items_deleted = ?, error_message = ?,
			task_id = NULL, progress_current = 0, progress_total = 0, progress_phase = NULL,
			finished_at = ?
		WHERE subscription_id = ? AND type = ?`,
		status, added, deleted, nullString(errMsg), time.Now().UTC(), subID, ct)
	return err
}

// MarkSyncStopped sets a running state back to idle after its job was
// stopped. A state that already finished is left alone.
func (s *Store) MarkSyncStopped(subID int64, ct models.ContentType) error {
	_, err := s.db.Exec(`
		UPDATE sync_state SET status = ?, task_id = NULL,
			progress_current = 0, progress_total = 0, progress_phase = NULL
		WHERE subscription_id = ? AND type = ? AND status = ?`,
		models.SyncIdle, subID, ct, models.SyncRunning)
	return err
}

// ResetRunningSyncStates turns states left running by a previous process
// into idle ones. It returns how many were reset.
func (s *Store) ResetRunningSyncStates() (int64, error) {
	res, err := s.db.Exec(`
		UPDATE sync_state SET status = ?, task_id = NULL, error_message = 'interrupted',
			progress_current = 0, progress_total = 0, progress_phase = NULL
		WHERE status = ?`,
		models.SyncIdle, models.SyncRunning)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
