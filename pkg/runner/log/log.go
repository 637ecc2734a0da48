package log

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/printers"
	"tableflip.dev/tickr/pkg/session"
	"tableflip.dev/tickr/pkg/view"
)

// Log prints the sessions recorded on this machine.
type Log struct {
	App     *app.Service
	Printer *printers.PrettyPrint
	// Structured, when set, receives the sessions instead of the printer.
	Structured func(any) error

	Day   bool
	Month bool
	// Window limits the listing to sessions started within it; zero is open.
	Window time.Duration
	On     time.Time
}

const (
	layoutUSDay   = "January 2, 2006"
	layoutUSMonth = "January, 2006"
)

func (n *Log) Do(ctx context.Context) error {
	if n.App == nil {
		return errors.New("can not log, no timer service")
	}
	pp := n.Printer
	if pp == nil {
		pp = &printers.PrettyPrint{}
	}
	on := n.On
	if on.IsZero() {
		on = time.Now()
	}

	since, until := n.bounds(on)
	sessions, err := n.App.Log(ctx, since, until)
	if err != nil {
		return err
	}
	if n.Day {
		sessions = onDay(sessions, on)
	}

	if n.Structured != nil {
		return n.Structured(view.FromSessions(sessions))
	}

	switch {
	case n.Month:
		pp.Title(on.Format(layoutUSMonth))
		pp.Calendar(on, sessions...)
		pp.NewLine()
	case n.Day:
		pp.Title(on.Format(layoutUSDay))
	}
	pp.Sessions(sessions)
	return nil
}

// bounds is the [since, until] window to read; zero values are open.
func (n *Log) bounds(on time.Time) (time.Time, time.Time) {
	local := on.Local()
	switch {
	case n.Month:
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.Local)
		return first, first.AddDate(0, 1, 0).Add(-time.Nanosecond)
	case n.Day:
		first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
		return first, first.AddDate(0, 0, 1).Add(-time.Nanosecond)
	case n.Window > 0:
		return time.Now().Add(-n.Window), time.Time{}
	}
	return time.Time{}, time.Time{}
}

func onDay(sessions []*session.Session, on time.Time) []*session.Session {
	out := make([]*session.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.StartedAt.SameDay(on) {
			out = append(out, s)
		}
	}
	return out
}
