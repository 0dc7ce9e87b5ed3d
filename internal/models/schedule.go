package models

import (
	"fmt"
	"time"
)

// Frequency controls how often a scheduled sync runs.
type Frequency string

const (
	Hourly       Frequency = "hourly"
	Every6Hours  Frequency = "every_6_hours"
	Every12Hours Frequency = "every_12_hours"
	Daily        Frequency = "daily"
	Weekly       Frequency = "weekly"
)

// Interval returns the period between two runs.
func (f Frequency) Interval() (time.Duration, error) {
	switch f {
	case Hourly:
		return time.Hour, nil
	case Every6Hours:
		return 6 * time.Hour, nil
	case Every12Hours:
		return 12 * time.Hour, nil
	case Daily:
		return 24 * time.Hour, nil
	case Weekly:
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid frequency %q", f)
}

// Schedule is the automatic sync configuration of one subscription and type.
type Schedule struct {
	ID             int64       `json:"id"`
	SubscriptionID int64       `json:"subscription_id"`
	Type           ContentType `json:"type"`
	Enabled        bool        `json:"enabled"`
	Frequency      Frequency   `json:"frequency"`
	LastRun        *time.Time  `json:"last_run"`
	NextRun        *time.Time  `json:"next_run"`
}

type ExecutionStatus string

const (
	ExecutionRunning ExecutionStatus = "running"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// ScheduleExecution records one run triggered by a schedule.
type ScheduleExecution struct {
	ID             int64           `json:"id"`
	ScheduleID     int64           `json:"schedule_id"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
	Status         ExecutionStatus `json:"status"`
	ItemsProcessed int             `json:"items_processed"`
	ErrorMessage   *string         `json:"error_message"`
}
