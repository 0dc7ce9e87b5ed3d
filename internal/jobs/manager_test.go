package jobs_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtreamsync/xtreamsync/internal/config"
	"github.com/xtreamsync/xtreamsync/internal/jobs"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
	"github.com/xtreamsync/xtreamsync/internal/testutil"
	"github.com/xtreamsync/xtreamsync/internal/websocket"
)

type syncFn func(ctx context.Context, subID int64, ct models.ContentType, progress syncer.ProgressFunc) (*models.SyncResult, error)

type fakeRunner struct {
	mu sync.Mutex
	fn syncFn
}

func (r *fakeRunner) set(fn syncFn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fn = fn
}

func (r *fakeRunner) Sync(ctx context.Context, subID int64, ct models.ContentType, progress syncer.ProgressFunc) (*models.SyncResult, error) {
	r.mu.Lock()
	fn := r.fn
	r.mu.Unlock()
	return fn(ctx, subID, ct, progress)
}

type fakeJobContext struct {
	st     *store.Store
	cfg    *config.Config
	ws     *websocket.Hub
	logger *log.Logger
	runner *fakeRunner
}

func (f *fakeJobContext) Store() *store.Store    { return f.st }
func (f *fakeJobContext) Config() *config.Config { return f.cfg }
func (f *fakeJobContext) WsHub() *websocket.Hub  { return f.ws }
func (f *fakeJobContext) Logger() *log.Logger    { return f.logger }
func (f *fakeJobContext) Syncer() jobs.Runner    { return f.runner }

func newJobContext(t *testing.T) *fakeJobContext {
	t.Helper()
	return &fakeJobContext{
		st:     store.New(testutil.SetupTestDB(t)),
		cfg:    config.Default(),
		ws:     websocket.NewHub(log.New(io.Discard)),
		logger: log.New(io.Discard),
		runner: &fakeRunner{},
	}
}

func createSubscription(t *testing.T, st *store.Store, name string) *models.Subscription {
	t.Helper()
	sub, err := st.CreateSubscription(models.SubscriptionInput{
		Name: name, XtreamURL: "http://example.com", Username: "u", Password: "p",
		MoviesDir: t.TempDir(), SeriesDir: t.TempDir(),
	})
	require.NoError(t, err)
	return sub
}

// blockingSync marks the run as running and waits for cancellation.
func blockingSync(st *store.Store, started chan<- struct{}) syncFn {
	return func(ctx context.Context, subID int64, ct models.ContentType, progress syncer.ProgressFunc) (*models.SyncResult, error) {
		if err := st.MarkSyncRunning(subID, ct, syncer.RunIDFrom(ctx), time.Now()); err != nil {
			return nil, err
		}
		progress(5, 10, "Creating files")
		if started != nil {
			close(started)
		}
		<-ctx.Done()
		return nil, syncer.ErrStopped
	}
}

func TestManager_StartAndComplete(t *testing.T) {
	app := newJobContext(t)
	sub := createSubscription(t, app.st, "one")
	mgr := jobs.NewManager(app)

	var gotRunID string
	app.runner.set(func(ctx context.Context, subID int64, ct models.ContentType, progress syncer.ProgressFunc) (*models.SyncResult, error) {
		gotRunID = syncer.RunIDFrom(ctx)
		assert.Equal(t, sub.ID, subID)
		assert.Equal(t, models.Movies, ct)
		return &models.SyncResult{ItemsAdded: 3, ItemsDeleted: 1}, nil
	})

	done := make(chan jobs.Outcome, 1)
	runID, err := mgr.StartWith(sub.ID, models.Movies, func(out jobs.Outcome) { done <- out })
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	select {
	case out := <-done:
		require.NoError(t, out.Err)
		assert.Equal(t, runID, out.RunID)
		assert.Equal(t, 3, out.Result.ItemsAdded)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	mgr.Wait()
	assert.Equal(t, runID, gotRunID)
	assert.False(t, mgr.IsRunning(sub.ID, models.Movies))
}

func TestManager_AlreadyRunningAndStop(t *testing.T) {
	app := newJobContext(t)
	sub := createSubscription(t, app.st, "one")
	mgr := jobs.NewManager(app)

	started := make(chan struct{})
	app.runner.set(blockingSync(app.st, started))

	runID, err := mgr.Start(sub.ID, models.Movies)
	require.NoError(t, err)
	<-started

	state, err := app.st.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncRunning, state.Status)
	require.NotNil(t, state.TaskID)
	assert.Equal(t, runID, *state.TaskID)
	assert.Equal(t, 5, state.ProgressCurrent)
	assert.Equal(t, 10, state.ProgressTotal)

	_, err = mgr.Start(sub.ID, models.Movies)
	assert.ErrorIs(t, err, jobs.ErrAlreadyRunning)

	running := mgr.Running()
	require.Len(t, running, 1)
	assert.Equal(t, runID, running[0].RunID)

	require.NoError(t, mgr.Stop(sub.ID, models.Movies))
	assert.False(t, mgr.IsRunning(sub.ID, models.Movies))

	state, err = app.st.GetSyncState(sub.ID, models.Movies)
	require.NoError(t, err)
	assert.Equal(t, models.SyncIdle, state.Status)
	assert.Zero(t, state.ProgressTotal)

	// The slot is free again.
	app.runner.set(func(context.Context, int64, models.ContentType, syncer.ProgressFunc) (*models.SyncResult, error) {
		return &models.SyncResult{}, nil
	})
	_, err = mgr.Start(sub.ID, models.Movies)
	assert.NoError(t, err)
	mgr.Wait()
}

func TestManager_StopNotRunning(t *testing.T) {
	app := newJobContext(t)
	mgr := jobs.NewManager(app)
	assert.ErrorIs(t, mgr.Stop(1, models.Series), jobs.ErrNotRunning)
}

func TestManager_StopGraceElapses(t *testing.T) {
	app := newJobContext(t)
	sub := createSubscription(t, app.st, "one")
	mgr := jobs.NewManager(app)
	mgr.StopGrace = 20 * time.Millisecond

	release := make(chan struct{})
	started := make(chan struct{})
	app.runner.set(func(ctx context.Context, subID int64, ct models.ContentType, _ syncer.ProgressFunc) (*models.SyncResult, error) {
		close(started)
		<-release
		return nil, syncer.ErrStopped
	})

	_, err := mgr.Start(sub.ID, models.Movies)
	require.NoError(t, err)
	<-started

	require.NoError(t, mgr.Stop(sub.ID, models.Movies))
	// The job still holds its slot until it returns.
	assert.True(t, mgr.IsRunning(sub.ID, models.Movies))
	close(release)
	mgr.Wait()
	assert.False(t, mgr.IsRunning(sub.ID, models.Movies))
}

func TestManager_PanicIsRecorded(t *testing.T) {
	app := newJobContext(t)
	sub := createSubscription(t, app.st, "one")
	mgr := jobs.NewManager(app)
	_, err := app.st.EnsureSyncState(sub.ID, models.Series)
	require.NoError(t, err)

	app.runner.set(func(context.Context, int64, models.ContentType, syncer.ProgressFunc) (*models.SyncResult, error) {
		panic("fail")
	})

	done := make(chan jobs.Outcome, 1)
	_, err = mgr.StartWith(sub.ID, models.Series, func(out jobs.Outcome) { done <- out })
	require.NoError(t, err)
	out := <-done
	mgr.Wait()

	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "panicked")
	state, err := app.st.GetSyncState(sub.ID, models.Series)
	require.NoError(t, err)
	assert.Equal(t, models.SyncFailed, state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Contains(t, *state.ErrorMessage, "panicked")
}

func TestManager_Concurrency(t *testing.T) {
	app := newJobContext(t)
	a := createSubscription(t, app.st, "a")
	b := createSubscription(t, app.st, "b")
	mgr := jobs.NewManager(app)

	var mu sync.Mutex
	count := map[jobs.Key]int{}
	release := make(chan struct{})
	app.runner.set(func(ctx context.Context, subID int64, ct models.ContentType, _ syncer.ProgressFunc) (*models.SyncResult, error) {
		mu.Lock()
		count[jobs.Key{SubscriptionID: subID, Type: ct}]++
		mu.Unlock()
		<-release
		return &models.SyncResult{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		for _, key := range []jobs.Key{{SubscriptionID: a.ID, Type: models.Movies}, {SubscriptionID: a.ID, Type: models.Series}, {SubscriptionID: b.ID, Type: models.Movies}} {
			wg.Add(1)
			go func(k jobs.Key) {
				defer wg.Done()
				_, _ = mgr.Start(k.SubscriptionID, k.Type)
			}(key)
		}
	}
	wg.Wait()
	assert.Len(t, mgr.Running(), 3, "one job per subscription and type")
	close(release)
	mgr.Wait()

	mu.Lock()
	defer mu.Unlock()
	for k, n := range count {
		assert.Equal(t, 1, n, "job %v should only run once", k)
	}
}

func TestManager_StopSubscription(t *testing.T) {
	app := newJobContext(t)
	sub := createSubscription(t, app.st, "one")
	other := createSubscription(t, app.st, "two")
	mgr := jobs.NewManager(app)
	app.runner.set(blockingSync(app.st, nil))

	for _, key := range []jobs.Key{{SubscriptionID: sub.ID, Type: models.Movies}, {SubscriptionID: sub.ID, Type: models.Series}, {SubscriptionID: other.ID, Type: models.Movies}} {
		_, err := mgr.Start(key.SubscriptionID, key.Type)
		require.NoError(t, err)
	}

	require.NoError(t, mgr.StopSubscription(sub.ID))
	assert.False(t, mgr.IsRunning(sub.ID, models.Movies))
	assert.False(t, mgr.IsRunning(sub.ID, models.Series))
	assert.True(t, mgr.IsRunning(other.ID, models.Movies))

	mgr.StopAll()
	assert.Empty(t, mgr.Running())
}
