package info

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tableflip.dev/tickr/pkg/config"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/tracker"
)

func TestInfoDescribesStore(t *testing.T) {
	cfg := &config.Config{Path: t.TempDir(), APIURL: "http://localhost:8000/api"}
	p, err := store.Load(cfg)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if err := p.SaveTimer(tracker.State{IsRunning: true, IsPaused: true, Elapsed: 75}); err != nil {
		t.Fatalf("save timer: %v", err)
	}
	if err := p.SetToken("abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	var out bytes.Buffer
	n := &Info{Config: cfg, Persistence: p, Out: &out}
	if err := n.Do(context.Background()); err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{
		"Config.path: " + cfg.Path,
		"Timer: paused at 00:01:15",
		"Auth: token stored",
		"Log: 0 sessions",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestInfoRequiresPersistence(t *testing.T) {
	var out bytes.Buffer
	n := &Info{Config: &config.Config{}, Out: &out}
	if err := n.Do(context.Background()); err == nil {
		t.Fatalf("expected error without persistence")
	}
}
