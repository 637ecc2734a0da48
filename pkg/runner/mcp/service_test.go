package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/tracker"
	"tableflip.dev/tickr/pkg/view"
)

type testConfig struct {
	path string
}

func (c testConfig) BasePath() string { return c.path }

// fakeAPI serves the handful of endpoints the timer tools touch.
type fakeAPI struct {
	mu      sync.Mutex
	running bool
	stops   int
	entries []api.Entry
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/entries/start/":
		var in struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.running = true
		_ = json.NewEncoder(w).Encode(api.Entry{
			ID:          7,
			Description: in.Description,
			StartedAt:   time.Now().UTC().Format(time.RFC3339),
			IsRunning:   true,
		})
	case r.Method == http.MethodPost && r.URL.Path == "/api/entries/stop/":
		f.running = false
		f.stops++
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/entries/active/":
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"No active entry"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/entries/":
		_ = json.NewEncoder(w).Encode(f.entries)
	case r.Method == http.MethodGet && r.URL.Path == "/api/projects/":
		_, _ = w.Write([]byte(`[{"id":3,"name":"Docs"}]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestApp(t *testing.T, backend *fakeAPI) *app.Service {
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

	svc := &app.Service{Persistence: p, Tracker: tr}
	if backend != nil {
		ts := httptest.NewServer(backend)
		t.Cleanup(ts.Close)
		svc.Backend = api.New(ts.URL + "/api")
	}
	return svc
}

func callTool(t *testing.T, svc *app.Service, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	srv := NewServer("tickr", "test", svc)
	tool := srv.GetTool(name)
	if tool == nil {
		t.Fatalf("tool %q not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var out T
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return out
}

func TestTimerToolsLifecycle(t *testing.T) {
	backend := &fakeAPI{}
	svc := newTestApp(t, backend)

	started := decodeResult[view.Timer](t, callTool(t, svc, "start_timer", map[string]any{
		"description": "write docs",
		"project_id":  3,
	}))
	if started.State != "running" || started.EntryID != 7 || started.Offline {
		t.Fatalf("unexpected start %+v", started)
	}
	if started.Description != "write docs" || started.Project != "Docs" {
		t.Fatalf("unexpected session details %+v", started)
	}

	paused := decodeResult[view.Timer](t, callTool(t, svc, "pause_timer", nil))
	if paused.State != "paused" || paused.LastStart != nil {
		t.Fatalf("unexpected pause %+v", paused)
	}

	resumed := decodeResult[view.Timer](t, callTool(t, svc, "resume_timer", nil))
	if resumed.State != "running" || resumed.LastStart == nil {
		t.Fatalf("unexpected resume %+v", resumed)
	}

	status := decodeResult[view.Timer](t, callTool(t, svc, "timer_status", nil))
	if status.State != "running" || len(status.Display) != len("00:00:00") {
		t.Fatalf("unexpected status %+v", status)
	}

	stopped := decodeResult[view.Stop](t, callTool(t, svc, "stop_timer", nil))
	if stopped.Offline || stopped.Description != "write docs" {
		t.Fatalf("unexpected stop %+v", stopped)
	}
	if backend.stops != 1 {
		t.Fatalf("expected one backend stop, got %d", backend.stops)
	}

	sessions, err := NewService(svc).Sessions(context.Background(), 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Description != "write docs" || sessions[0].StoppedAt == "" {
		t.Fatalf("unexpected session log %+v", sessions)
	}
}

func TestStartTimerRequiresDescription(t *testing.T) {
	svc := newTestApp(t, nil)

	res := callTool(t, svc, "start_timer", map[string]any{"description": "  "})
	if !res.IsError {
		t.Fatalf("expected tool error")
	}
	if !strings.Contains(resultText(t, res), "description") {
		t.Fatalf("unexpected error text %q", resultText(t, res))
	}
}

func TestStartTimerOfflineWithoutBackend(t *testing.T) {
	svc := newTestApp(t, nil)

	started := decodeResult[view.Timer](t, callTool(t, svc, "start_timer", map[string]any{"description": "plan"}))
	if started.State != "running" || !started.Offline || started.EntryID != 0 {
		t.Fatalf("unexpected offline start %+v", started)
	}

	again := callTool(t, svc, "start_timer", map[string]any{"description": "plan"})
	if !again.IsError {
		t.Fatalf("expected second start to fail while running")
	}

	stopped := decodeResult[view.Stop](t, callTool(t, svc, "stop_timer", nil))
	if !stopped.Offline {
		t.Fatalf("offline session should stop offline: %+v", stopped)
	}
}

func TestPauseWithoutSessionIsError(t *testing.T) {
	svc := newTestApp(t, nil)
	if res := callTool(t, svc, "pause_timer", nil); !res.IsError {
		t.Fatalf("expected error pausing a stopped timer")
	}
	if res := callTool(t, svc, "stop_timer", nil); !res.IsError {
		t.Fatalf("expected error stopping a stopped timer")
	}
}

func TestListEntriesPaginates(t *testing.T) {
	backend := &fakeAPI{}
	for i := 1; i <= 12; i++ {
		backend.entries = append(backend.entries, api.Entry{
			ID:          int64(i),
			Description: fmt.Sprintf("entry %d", i),
			Duration:    api.Flex("00:30:00"),
		})
	}
	backend.entries = append(backend.entries, api.Entry{ID: 99, Description: "running", IsRunning: true})
	svc := newTestApp(t, backend)

	first := decodeResult[view.Page](t, callTool(t, svc, "list_entries", map[string]any{"per_page": 5}))
	if first.Count != 5 || first.Pages != 3 || first.Total != 12 {
		t.Fatalf("unexpected first page %+v", first)
	}
	if first.Entries[0].Duration != "0:30:00" || first.Entries[0].Seconds != 1800 {
		t.Fatalf("unexpected entry %+v", first.Entries[0])
	}

	last := decodeResult[view.Page](t, callTool(t, svc, "list_entries", map[string]any{"page": 9, "per_page": 5}))
	if last.Page != 3 || last.Count != 2 {
		t.Fatalf("page should clamp to the last one: %+v", last)
	}
	for _, e := range last.Entries {
		if e.ID == 99 {
			t.Fatalf("running entry should not be listed")
		}
	}
}
