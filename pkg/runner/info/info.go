package info

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"tableflip.dev/tickr/pkg/config"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/timeutil"
)

// Info describes where tickr keeps its state and what it holds.
type Info struct {
	Config      *config.Config
	Persistence store.Persistence
	Out         io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = os.Stdout
	}

	if override := os.Getenv(config.ConfigPathEnv); override != "" {
		fmt.Fprintln(out, config.ConfigPathEnv, "found on env, using", override)
	} else {
		fmt.Fprintln(out, config.ConfigPathEnv, "env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = config.Load()
		if err != nil {
			return err
		}
	}

	if n.Config.ConfigFile != "" {
		fmt.Fprintln(out, "Config.file:", n.Config.ConfigFile)
	} else {
		fmt.Fprintln(out, "Config.file: none, using defaults")
	}
	fmt.Fprintln(out, "Config.path:", n.Config.BasePath())
	fmt.Fprintln(out, "Config.api-url:", n.Config.APIURL)

	if n.Persistence == nil {
		return fmt.Errorf("failed to create persistence object")
	}

	st, err := n.Persistence.LoadTimer()
	if err != nil {
		return err
	}
	switch {
	case st.IsRunning && st.IsPaused:
		fmt.Fprintf(out, "Timer: paused at %s\n", timeutil.FormatClock(st.Elapsed))
	case st.IsRunning:
		fmt.Fprintln(out, "Timer: running")
	default:
		fmt.Fprintln(out, "Timer: stopped")
	}

	token, err := n.Persistence.Token()
	if err != nil {
		return err
	}
	if token != "" || n.Config.Token != "" {
		fmt.Fprintln(out, "Auth: token stored")
	} else {
		fmt.Fprintln(out, "Auth: not signed in")
	}

	sessions := n.Persistence.Log(ctx, time.Time{}, time.Time{})
	fmt.Fprintf(out, "Log: %d sessions\n", len(sessions))
	return nil
}
