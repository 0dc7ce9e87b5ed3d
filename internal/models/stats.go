package models

// DashboardStats aggregates content, source and sync figures for the dashboard.
type DashboardStats struct {
	TotalContent ContentTotals `json:"total_content"`
	Sources      SourceTotals  `json:"sources"`
	SyncStatus   SyncSummary   `json:"sync_status"`
}

type ContentTotals struct {
	Total  int `json:"total"`
	Movies int `json:"movies"`
	Series int `json:"series"`
}

type SourceTotals struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// SyncSummary.SuccessRate is a percentage of finished syncs that succeeded;
// 100 when nothing has finished yet.
type SyncSummary struct {
	InProgress  int     `json:"in_progress"`
	Errors24h   int     `json:"errors_24h"`
	SuccessRate float64 `json:"success_rate"`
}
