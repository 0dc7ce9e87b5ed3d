package models

import "time"

// SyncStatus is the lifecycle state of a subscription's sync job.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "running"
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
)

// SyncState is the persisted status of the last or current sync job for
// one subscription and content type.
type SyncState struct {
	ID              int64       `json:"id"`
	SubscriptionID  int64       `json:"subscription_id"`
	Type            ContentType `json:"type"`
	LastSync        *time.Time  `json:"last_sync"`
	Status          SyncStatus  `json:"status"`
	ItemsAdded      int         `json:"items_added"`
	ItemsDeleted    int         `json:"items_deleted"`
	ErrorMessage    *string     `json:"error_message"`
	TaskID          *string     `json:"task_id,omitempty"`
	ProgressCurrent int         `json:"progress_current"`
	ProgressTotal   int         `json:"progress_total"`
	ProgressPhase   *string     `json:"progress_phase"`
}

// SyncResult is what a finished sync run reports.
type SyncResult struct {
	ItemsAdded   int `json:"items_added"`
	ItemsDeleted int `json:"items_deleted"`
}

// SyncTrigger is returned when a sync job is started.
type SyncTrigger struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}
