package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Credentials accepted by FakeXtream.
const (
	FakeXtreamUser = "user"
	FakeXtreamPass = "pass"
)

// FakeXtream is an in-process Xtream Codes panel serving player_api.php.
// Responses are set per action; detail actions are keyed by id.
type FakeXtream struct {
	*httptest.Server

	mu      sync.Mutex
	actions map[string]any
	details map[string]map[string]any
	fail    map[string]int
	hits    map[string]int
	gates   map[string]chan struct{}
}

// NewFakeXtream starts a fake panel that is closed when the test ends.
func NewFakeXtream(t *testing.T) *FakeXtream {
	t.Helper()
	f := &FakeXtream{
		actions: map[string]any{},
		details: map[string]map[string]any{},
		fail:    map[string]int{},
		hits:    map[string]int{},
		gates:   map[string]chan struct{}{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Set fixes the JSON body returned for a list action such as "get_vod_streams".
func (f *FakeXtream) Set(action string, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions[action] = body
}

// SetDetail fixes the body of "get_vod_info" or "get_series_info" for one id.
func (f *FakeXtream) SetDetail(action string, id int64, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.details[action] == nil {
		f.details[action] = map[string]any{}
	}
	f.details[action][strconv.FormatInt(id, 10)] = body
}

// Fail makes an action answer with the given status. Zero clears it.
func (f *FakeXtream) Fail(action string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.fail, action)
		return
	}
	f.fail[action] = status
}

// Block holds requests for an action until release is called or the client
// gives up. Release is also run when the test ends.
func (f *FakeXtream) Block(t *testing.T, action string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[action] = gate
	f.mu.Unlock()

	var once sync.Once
	release = func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, action)
			f.mu.Unlock()
			close(gate)
		})
	}
	t.Cleanup(release)
	return release
}

// Hits returns how often an action was requested.
func (f *FakeXtream) Hits(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[action]
}

func (f *FakeXtream) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/player_api.php" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if q.Get("username") != FakeXtreamUser || q.Get("password") != FakeXtreamPass {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	action := q.Get("action")

	f.mu.Lock()
	f.hits[action]++
	status := f.fail[action]
	var body any
	switch action {
	case "get_vod_info":
		body = f.details[action][q.Get("vod_id")]
	case "get_series_info":
		body = f.details[action][q.Get("series_id")]
	default:
		body = f.actions[action]
	}
	gate := f.gates[action]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if body == nil {
		body = []any{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
