package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/tracker"
	"tableflip.dev/tickr/pkg/view"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testConfig struct {
	path string
}

func (c testConfig) BasePath() string { return c.path }

func newTestServer(t *testing.T, backend http.Handler) (*Server, http.Handler) {
	t.Helper()
	p, err := store.Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	tr := tracker.New(
		tracker.WithStore(store.TimerStore{P: p}),
		tracker.WithHoldDelay(0),
		tracker.WithTickInterval(time.Hour),
	)
	t.Cleanup(tr.Close)

	a := &app.Service{Persistence: p, Tracker: tr}
	if backend != nil {
		ts := httptest.NewServer(backend)
		t.Cleanup(ts.Close)
		a.Backend = api.New(ts.URL)
	}

	srv := NewServer("", a)
	srv.startTime = time.Now()
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" || body["running"] != false {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestWaitReportsServeFailure(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	srv.addr = "127.0.0.1:0"
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })

	srv.listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Wait(ctx); err == nil {
		t.Fatalf("expected serve error after listener closed")
	}
}

func TestWaitReturnsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := srv.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestTimerLifecycleOffline(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/api/timer", "")
	if got := decode[view.Timer](t, w); got.State != view.StateStopped || got.Display != "00:00:00" {
		t.Fatalf("unexpected idle timer %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/timer/start", `{"description":"focus"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	if got := decode[view.Timer](t, w); got.State != view.StateRunning || !got.Offline || got.Description != "focus" {
		t.Fatalf("unexpected started timer %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/timer/start", `{"description":"again"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("second start status = %d, want %d", w.Code, http.StatusConflict)
	}

	w = do(t, h, http.MethodPost, "/api/timer/pause", "")
	if got := decode[view.Timer](t, w); got.State != view.StatePaused {
		t.Fatalf("unexpected paused timer %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/timer/resume", "")
	if got := decode[view.Timer](t, w); got.State != view.StateRunning {
		t.Fatalf("unexpected resumed timer %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/timer/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d: %s", w.Code, w.Body.String())
	}
	if got := decode[view.Stop](t, w); !got.Offline || got.Description != "focus" {
		t.Fatalf("unexpected stop %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/timer/stop", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("stop without timer status = %d, want %d", w.Code, http.StatusConflict)
	}

	w = do(t, h, http.MethodGet, "/api/log?last=1d", "")
	body := decode[map[string]any](t, w)
	if body["count"] != float64(1) || body["window"] != "1d" {
		t.Fatalf("unexpected log %v", body)
	}
}

func TestStartRequiresDescription(t *testing.T) {
	_, h := newTestServer(t, nil)

	if w := do(t, h, http.MethodPost, "/api/timer/start", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing description status = %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/timer/start", `{"description":"   "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank description status = %d", w.Code)
	}
}

func TestSyncWithoutBackend(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodPost, "/api/timer/sync", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("sync status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestSyncAdoptsServerEntry(t *testing.T) {
	started := time.Now().Add(-90 * time.Second).UTC().Format(time.RFC3339)
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entries/active/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"id":12,"description":"standup","start_time":%q,"is_running":true}`, started)
	})
	_, h := newTestServer(t, backend)

	w := do(t, h, http.MethodPost, "/api/timer/sync", "")
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d: %s", w.Code, w.Body.String())
	}
	got := decode[view.Timer](t, w)
	if got.State != view.StateRunning || got.EntryID != 12 || got.Description != "standup" {
		t.Fatalf("unexpected synced timer %+v", got)
	}
	if got.Seconds < 89 || got.Seconds > 95 {
		t.Fatalf("expected roughly 90 seconds, got %d", got.Seconds)
	}
}

func TestEntriesEndpoint(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entries/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		entries := make([]string, 0, 3)
		for i := 1; i <= 3; i++ {
			entries = append(entries, fmt.Sprintf(`{"id":%d,"description":"e%d","duration":"0:10:00"}`, i, i))
		}
		fmt.Fprintf(w, "[%s]", strings.Join(entries, ","))
	})
	_, h := newTestServer(t, backend)

	w := do(t, h, http.MethodGet, "/api/entries?page=2&per_page=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("entries status = %d: %s", w.Code, w.Body.String())
	}
	got := decode[view.Page](t, w)
	if got.Page != 2 || got.Count != 1 || got.Total != 3 || got.Entries[0].ID != 3 {
		t.Fatalf("unexpected page %+v", got)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"description":  {err: app.ErrDescriptionRequired, want: http.StatusBadRequest},
		"running":      {err: app.ErrAlreadyRunning, want: http.StatusConflict},
		"no backend":   {err: app.ErrNoBackend, want: http.StatusServiceUnavailable},
		"unauthorized": {err: &api.Error{Status: http.StatusUnauthorized}, want: http.StatusUnauthorized},
		"rejected":     {err: &api.Error{Status: http.StatusUnprocessableEntity}, want: http.StatusUnprocessableEntity},
		"server error": {err: &api.Error{Status: http.StatusInternalServerError}, want: http.StatusInternalServerError},
		"unreachable":  {err: fmt.Errorf("api: GET x: %w", &url.Error{Op: "Get", URL: "x", Err: errors.New("refused")}), want: http.StatusBadGateway},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := statusFor(tc.err); got != tc.want {
				t.Fatalf("statusFor = %d, want %d", got, tc.want)
			}
		})
	}
}
