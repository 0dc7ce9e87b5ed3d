package models

// ProgressUpdate is broadcast over the websocket while a sync job runs.
type ProgressUpdate struct {
	TaskID         string      `json:"task_id"`
	SubscriptionID int64       `json:"subscription_id"`
	Type           ContentType `json:"type"`
	Status         SyncStatus  `json:"status"`
	Phase          string      `json:"phase,omitempty"`
	Current        int         `json:"current"`
	Total          int         `json:"total"`
	Message        string      `json:"message,omitempty"`
	Done           bool        `json:"done"`
}
