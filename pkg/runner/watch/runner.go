package watch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/tracker"
)

// Relay forwards tracker snapshots to a running program. Pass Notify to
// tracker.WithNotify before the program exists; snapshots emitted earlier
// are dropped.
type Relay struct {
	mu sync.Mutex
	p  *tea.Program
}

// Notify sends s to the attached program, if any.
func (r *Relay) Notify(s tracker.Snapshot) {
	r.send(TickMsg(s))
}

func (r *Relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (r *Relay) attach(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

// Runner shows the live view until the user quits or ctx is done.
type Runner struct {
	App   *app.Service
	Relay *Relay

	// Live polls the backend every PollInterval and adopts its active entry.
	Live         bool
	PollInterval time.Duration

	Options []tea.ProgramOption
}

// Do runs the program alongside the store watcher and the optional poller.
func (r Runner) Do(ctx context.Context) error {
	if r.App == nil || r.App.Tracker == nil {
		return errors.New("watch: timer service is not configured")
	}
	relay := r.Relay
	if relay == nil {
		relay = &Relay{}
	}

	g, gctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(gctx)
	defer cancel()

	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.Options...)
	p := tea.NewProgram(New(ctx, r.App), opts...)
	relay.attach(p)
	defer relay.attach(nil)

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return r.follow(ctx, relay)
	})

	if r.Live && r.PollInterval > 0 {
		g.Go(func() error {
			r.poll(ctx, relay)
			return nil
		})
	}

	return g.Wait()
}

// follow reloads the tracker when another process changes the timer record.
func (r Runner) follow(ctx context.Context, relay *Relay) error {
	events, err := r.App.Watch(ctx)
	if err != nil {
		log.Printf("watch: store watch unavailable: %v", err)
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case store.EventTimerChanged, store.EventInvalidated:
				r.App.Refresh()
			case store.EventSessionChanged:
			default:
				continue
			}
			st, err := r.App.Status()
			relay.send(StatusMsg{Status: st, Err: err})
		}
	}
}

func (r Runner) poll(ctx context.Context, relay *Relay) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st, err := r.App.Sync(ctx)
			if ctx.Err() != nil {
				return
			}
			relay.send(StatusMsg{Status: st, Err: err})
		}
	}
}
