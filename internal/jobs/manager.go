package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/xtreamsync/xtreamsync/internal/config"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
	"github.com/xtreamsync/xtreamsync/internal/websocket"
)

var (
	ErrAlreadyRunning = errors.New("sync already running")
	ErrNotRunning     = errors.New("no running sync")
)

// Runner performs one sync run. *syncer.Engine implements it.
type Runner interface {
	Sync(ctx context.Context, subID int64, ct models.ContentType, progress syncer.ProgressFunc) (*models.SyncResult, error)
}

// JobContext is an interface that provides the necessary dependencies for a job to run.
// The core.App struct will implement this interface.
type JobContext interface {
	Store() *store.Store
	Config() *config.Config
	WsHub() *websocket.Hub
	Logger() *log.Logger
	Syncer() Runner
}

// Key identifies a job slot: one per subscription and content type.
type Key struct {
	SubscriptionID int64
	Type           models.ContentType
}

// Outcome is passed to the completion callback of StartWith.
type Outcome struct {
	RunID  string
	Result *models.SyncResult
	Err    error
}

// RunningJob describes an active job.
type RunningJob struct {
	Key
	RunID     string
	StartedAt time.Time
}

type job struct {
	runID     string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// DefaultStopGrace is how long Stop waits for a cancelled job to return.
const DefaultStopGrace = 5 * time.Second

type JobManager struct {
	mu   sync.Mutex
	app  JobContext
	jobs map[Key]*job
	wg   sync.WaitGroup

	StopGrace time.Duration
}

func NewManager(app JobContext) *JobManager {
	return &JobManager{
		app:       app,
		jobs:      make(map[Key]*job),
		StopGrace: DefaultStopGrace,
	}
}

// Start launches a sync job in the background and returns its run id.
func (jm *JobManager) Start(subID int64, ct models.ContentType) (string, error) {
	return jm.StartWith(subID, ct, nil)
}

// StartWith is Start with a callback invoked once the job has ended.
func (jm *JobManager) StartWith(subID int64, ct models.ContentType, onDone func(Outcome)) (string, error) {
	key := Key{SubscriptionID: subID, Type: ct}

	jm.mu.Lock()
	if _, ok := jm.jobs[key]; ok {
		jm.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(syncer.WithRunID(context.Background(), runID))
	j := &job{runID: runID, startedAt: time.Now().UTC(), cancel: cancel, done: make(chan struct{})}
	jm.jobs[key] = j
	jm.wg.Add(1)
	jm.mu.Unlock()

	jm.app.Logger().Info("Starting sync job", "subscription_id", subID, "type", ct, "run_id", runID)
	go jm.run(ctx, key, j, onDone)
	return runID, nil
}

func (jm *JobManager) run(ctx context.Context, key Key, j *job, onDone func(Outcome)) {
	out := Outcome{RunID: j.runID}
	logger := jm.app.Logger().With("subscription_id", key.SubscriptionID, "type", key.Type, "run_id", j.runID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Sync job panicked", "panic", r)
			out.Result = nil
			out.Err = fmt.Errorf("sync job panicked: %v", r)
			if err := jm.app.Store().FinishSync(key.SubscriptionID, key.Type, models.SyncFailed, 0, 0, out.Err.Error()); err != nil {
				logger.Error("Recording panicked job", "err", err)
			}
		}

		jm.mu.Lock()
		delete(jm.jobs, key)
		jm.mu.Unlock()
		j.cancel()
		close(j.done)

		jm.app.WsHub().BroadcastJSON(finalUpdate(key, out))
		if onDone != nil {
			onDone(out)
		}
		jm.wg.Done()
	}()

	out.Result, out.Err = jm.app.Syncer().Sync(ctx, key.SubscriptionID, key.Type, jm.progress(key, j.runID))
}

func (jm *JobManager) progress(key Key, runID string) syncer.ProgressFunc {
	return func(current, total int, phase string) {
		if err := jm.app.Store().UpdateSyncProgress(key.SubscriptionID, key.Type, current, total, phase); err != nil {
			jm.app.Logger().Warn("Saving sync progress", "run_id", runID, "err", err)
		}
		jm.app.WsHub().BroadcastJSON(models.ProgressUpdate{
			TaskID:         runID,
			SubscriptionID: key.SubscriptionID,
			Type:           key.Type,
			Status:         models.SyncRunning,
			Phase:          phase,
			Current:        current,
			Total:          total,
		})
	}
}

func finalUpdate(key Key, out Outcome) models.ProgressUpdate {
	u := models.ProgressUpdate{
		TaskID:         out.RunID,
		SubscriptionID: key.SubscriptionID,
		Type:           key.Type,
		Done:           true,
	}
	switch {
	case out.Err == nil:
		u.Status = models.SyncSuccess
		if out.Result != nil {
			u.Message = fmt.Sprintf("%d added, %d deleted", out.Result.ItemsAdded, out.Result.ItemsDeleted)
		}
	case errors.Is(out.Err, syncer.ErrStopped):
		u.Status = models.SyncIdle
		u.Message = "stopped"
	default:
		u.Status = models.SyncFailed
		u.Message = out.Err.Error()
	}
	return u
}

// Stop cancels the job of a subscription and content type, waits up to
// StopGrace for it to return and sets its state back to idle.
func (jm *JobManager) Stop(subID int64, ct models.ContentType) error {
	key := Key{SubscriptionID: subID, Type: ct}
	jm.mu.Lock()
	j, ok := jm.jobs[key]
	jm.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}

	j.cancel()
	select {
	case <-j.done:
	case <-time.After(jm.StopGrace):
		jm.app.Logger().Warn("Sync job did not stop in time", "subscription_id", subID, "type", ct, "run_id", j.runID)
	}
	if err := jm.app.Store().MarkSyncStopped(subID, ct); err != nil {
		return err
	}
	jm.app.Logger().Info("Sync job stopped", "subscription_id", subID, "type", ct, "run_id", j.runID)
	return nil
}

// StopSubscription stops every job of a subscription.
func (jm *JobManager) StopSubscription(subID int64) error {
	var errs []error
	for _, ct := range models.ContentTypes {
		if err := jm.Stop(subID, ct); err != nil && !errors.Is(err, ErrNotRunning) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopAll cancels every job, waits for all of them to return and sets
// their states back to idle.
func (jm *JobManager) StopAll() {
	jm.mu.Lock()
	keys := make([]Key, 0, len(jm.jobs))
	for k, j := range jm.jobs {
		j.cancel()
		keys = append(keys, k)
	}
	jm.mu.Unlock()
	jm.wg.Wait()

	for _, k := range keys {
		if err := jm.app.Store().MarkSyncStopped(k.SubscriptionID, k.Type); err != nil {
			jm.app.Logger().Error("Resetting stopped sync state", "subscription_id", k.SubscriptionID, "type", k.Type, "err", err)
		}
	}
}

// IsRunning reports whether a job holds the slot.
func (jm *JobManager) IsRunning(subID int64, ct models.ContentType) bool {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	_, ok := jm.jobs[Key{SubscriptionID: subID, Type: ct}]
	return ok
}

// Running lists active jobs ordered by subscription and type.
func (jm *JobManager) Running() []RunningJob {
	jm.mu.Lock()
	out := make([]RunningJob, 0, len(jm.jobs))
	for k, j := range jm.jobs {
		out = append(out, RunningJob{Key: k, RunID: j.runID, StartedAt: j.startedAt})
	}
	jm.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].SubscriptionID != out[b].SubscriptionID {
			return out[a].SubscriptionID < out[b].SubscriptionID
		}
		return out[a].Type < out[b].Type
	})
	return out
}

// Wait blocks until no job is running.
func (jm *JobManager) Wait() {
	jm.wg.Wait()
}
