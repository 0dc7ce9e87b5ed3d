package jobs

import (
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
)

// NextRun is the time a schedule with the given frequency runs after from.
func NextRun(freq models.Frequency, from time.Time) (time.Time, error) {
	d, err := freq.Interval()
	if err != nil {
		return time.Time{}, err
	}
	return from.Add(d).UTC(), nil
}

// Scheduler periodically starts the syncs whose schedule is due.
type Scheduler struct {
	app     JobContext
	manager *JobManager
	cron    *gocron.Scheduler
}

func NewScheduler(app JobContext, manager *JobManager) *Scheduler {
	return &Scheduler{app: app, manager: manager}
}

// Start checks the schedules every sync.schedule_check_interval seconds.
func (s *Scheduler) Start() error {
	logger := s.app.Logger()
	interval := s.app.Config().Sync.ScheduleCheckInterval
	if interval <= 0 {
		logger.Info("Schedule check interval is 0, scheduled syncs are disabled.")
		return nil
	}

	s.cron = gocron.NewScheduler(time.UTC)
	s.cron.SingletonModeAll()

	logger.Info("Scheduling schedule checks", "every_seconds", interval)
	_, err := s.cron.Every(interval).Seconds().Do(func() {
		started, err := s.CheckSchedules(time.Now())
		if err != nil {
			logger.Error("Checking schedules", "err", err)
			return
		}
		if started > 0 {
			logger.Info("Scheduled syncs started", "count", started)
		}
	})
	if err != nil {
		return err
	}
	s.cron.StartAsync()
	return nil
}

// Stop ends the periodic checks. Running jobs are left to the manager.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// CheckSchedules starts a job for every enabled schedule due at now and
// returns how many were started. Each attempt is recorded as an execution.
func (s *Scheduler) CheckSchedules(now time.Time) (int, error) {
	st := s.app.Store()
	logger := s.app.Logger()

	due, err := st.DueSchedules(now)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, sch := range due {
		next, err := NextRun(sch.Frequency, now)
		if err != nil {
			logger.Warn("Skipping schedule", "schedule_id", sch.ID, "err", err)
			continue
		}

		exec, err := st.CreateExecution(sch.ID, now)
		if err != nil {
			return started, err
		}
		execID := exec.ID
		_, err = s.manager.StartWith(sch.SubscriptionID, sch.Type, func(out Outcome) {
			s.finishExecution(execID, out)
		})
		if err != nil {
			logger.Warn("Scheduled sync could not start", "subscription_id", sch.SubscriptionID, "type", sch.Type, "err", err)
			if ferr := st.FinishExecution(execID, models.ExecutionFailed, 0, err.Error(), time.Now()); ferr != nil {
				logger.Error("Recording execution", "execution_id", execID, "err", ferr)
			}
		} else {
			started++
		}

		if err := st.MarkScheduleRun(sch.ID, now, next); err != nil {
			return started, err
		}
	}
	return started, nil
}

func (s *Scheduler) finishExecution(id int64, out Outcome) {
	status := models.ExecutionSuccess
	items := 0
	msg := ""
	switch {
	case out.Err == nil:
		if out.Result != nil {
			items = out.Result.ItemsAdded + out.Result.ItemsDeleted
		}
	case errors.Is(out.Err, syncer.ErrStopped):
		status = models.ExecutionFailed
		msg = "stopped"
	default:
		status = models.ExecutionFailed
		msg = out.Err.Error()
	}
	if err := s.app.Store().FinishExecution(id, status, items, msg, time.Now()); err != nil {
		s.app.Logger().Error("Recording execution", "execution_id", id, "err", err)
	}
}
