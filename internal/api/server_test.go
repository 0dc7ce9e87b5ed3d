package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtreamsync/xtreamsync/internal/api"
	"github.com/xtreamsync/xtreamsync/internal/testutil"
)

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rr)["detail"]
}

func TestBasePath(t *testing.T) {
	t.Run("custom base path", func(t *testing.T) {
		server, app := testutil.SetupTestServer(t)
		app.Config().BasePath = "/v1"
		router := server.Router()

		assert.Equal(t, http.StatusOK, doRequest(t, router, "GET", "/v1/health", nil).Code)
		assert.Equal(t, http.StatusNotFound, doRequest(t, router, "GET", "/api/health", nil).Code)
	})

	t.Run("root", func(t *testing.T) {
		server, app := testutil.SetupTestServer(t)
		app.Config().BasePath = ""
		assert.Equal(t, http.StatusOK, doRequest(t, server.Router(), "GET", "/health", nil).Code)
	})
}

func TestCORS(t *testing.T) {
	t.Run("all origins by default", func(t *testing.T) {
		server, _ := testutil.SetupTestServer(t)
		req := httptest.NewRequest("OPTIONS", "/api/subscriptions/", nil)
		req.Header.Set("Origin", "http://dashboard.local")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "http://dashboard.local", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("configured origins only", func(t *testing.T) {
		server, app := testutil.SetupTestServer(t)
		app.Config().CORS.AllowedOrigins = []string{"http://allowed.local"}
		router := server.Router()

		req := httptest.NewRequest("GET", "/api/subscriptions/", nil)
		req.Header.Set("Origin", "http://other.local")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest("GET", "/api/subscriptions/", nil)
		req.Header.Set("Origin", "http://allowed.local")
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, "http://allowed.local", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSyncRateLimit(t *testing.T) {
	_, app := testutil.SetupTestServer(t)
	app.Config().RateLimit.SyncPerSecond = 0.001
	app.Config().RateLimit.Burst = 2
	server := api.NewServer(app)
	router := server.Router()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, doRequest(t, router, "POST", "/api/sync/stop/1/movies", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, doRequest(t, router, "GET", "/api/sync/status", nil).Code)
}
