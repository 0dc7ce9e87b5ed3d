package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xtreamsync/xtreamsync/internal/api"
	"github.com/xtreamsync/xtreamsync/internal/config"
	"github.com/xtreamsync/xtreamsync/internal/core"
	"github.com/xtreamsync/xtreamsync/internal/logger"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/websocket"
)

// SetupTestApp builds a core.App over an in-memory database. Running jobs
// are stopped when the test ends.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	db := SetupTestDB(t)

	cfg := config.Default()
	cfg.Xtream.RateLimit = 0
	cfg.RateLimit.SyncPerSecond = 0
	l := logger.Discard()
	hub := websocket.NewHub(l)
	go hub.Run()

	app := core.NewApp(cfg, db, hub, l, "test")
	t.Cleanup(func() {
		app.JobManager().StopAll()
		hub.Stop()
	})
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *core.App) {
	t.Helper()
	app := SetupTestApp(t)
	return api.NewServer(app), app
}

// CreateSubscription stores an active subscription pointing at xtreamURL
// with temporary output directories.
func CreateSubscription(t *testing.T, st *store.Store, name, xtreamURL string) *models.Subscription {
	t.Helper()
	sub, err := st.CreateSubscription(models.SubscriptionInput{
		Name:      name,
		XtreamURL: xtreamURL,
		Username:  FakeXtreamUser,
		Password:  FakeXtreamPass,
		MoviesDir: t.TempDir(),
		SeriesDir: t.TempDir(),
	})
	require.NoError(t, err)
	return sub
}
