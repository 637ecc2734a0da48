// Package tracker keeps the elapsed-time count for the active time entry.
//
// A Tracker ticks once per interval while running and recomputes its display
// from wall-clock deltas at every state boundary (start, pause, resume, stop)
// and on restore, so missed or late ticks never accumulate into drift.
package tracker

import (
	"io"
	"log"
	"sync"
	"time"

	"tableflip.dev/tickr/pkg/timeutil"
)

const (
	// DefaultHoldDelay is how long a stopped total stays on display before
	// it resets to zero.
	DefaultHoldDelay = time.Second

	// DefaultTickInterval is the display cadence.
	DefaultTickInterval = time.Second
)

// Store persists a single timer State. Load returns the zero State and no
// error when nothing has been saved yet.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// Snapshot is a consistent read of the tracker.
type Snapshot struct {
	State   State
	Seconds int64
	At      time.Time
}

// Display renders the snapshot as HH:MM:SS.
func (s Snapshot) Display() string {
	return timeutil.FormatClock(s.Seconds)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithStore sets the persistence used to survive restarts.
func WithStore(s Store) Option {
	return func(t *Tracker) { t.store = s }
}

// WithHoldDelay sets how long the final total is shown after stop.
func WithHoldDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.holdDelay = d
		}
	}
}

// WithTickInterval sets the display cadence.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// WithNotify registers a callback invoked after every tick and boundary.
// It runs outside the tracker lock and may call back into the tracker.
func WithNotify(f func(Snapshot)) Option {
	return func(t *Tracker) { t.notify = f }
}

// WithLogger routes storage diagnostics. By default they are discarded.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tracker maintains elapsed seconds for one timer session.
type Tracker struct {
	mu sync.Mutex

	clock        Clock
	store        Store
	holdDelay    time.Duration
	tickInterval time.Duration
	notify       func(Snapshot)
	logger       *log.Logger

	state   State
	display int64

	ticker   Ticker
	tickDone chan struct{}

	hold    Timer
	holdGen uint64

	closed bool
}

// New builds a Tracker and restores any persisted state.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		clock:        SystemClock{},
		holdDelay:    DefaultHoldDelay,
		tickInterval: DefaultTickInterval,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.mu.Lock()
	t.restoreLocked()
	t.mu.Unlock()
	return t
}

// Reload re-reads persisted state, for example after another process changed it.
func (t *Tracker) Reload() {
	t.mu.Lock()
	t.restoreLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

func (t *Tracker) restoreLocked() {
	st := State{}
	if t.store != nil {
		loaded, err := t.store.Load()
		if err != nil {
			t.logger.Printf("tracker: load state: %v", err)
		} else if loaded.Valid() {
			st = loaded.Clone()
		}
	}

	t.cancelHoldLocked()
	t.state = st
	t.display = st.SecondsAt(t.clock.Now())

	switch {
	case st.Ticking():
		t.acquireTickerLocked()
	case !st.IsRunning && st.Elapsed > 0:
		// A stop whose reset never ran; show the total for one hold period.
		t.releaseTickerLocked()
		t.scheduleHoldLocked()
	default:
		t.releaseTickerLocked()
	}
}

// Start begins a new session. serverStartedAt may be an ISO-8601 timestamp
// or epoch milliseconds; when it is empty or unparseable the session starts
// from zero.
func (t *Tracker) Start(serverStartedAt string) {
	var baseline int64
	now := t.clock.Now()
	if started, ok := timeutil.ParseStart(serverStartedAt); ok {
		baseline = timeutil.ElapsedSeconds(started, now)
	}
	t.start(baseline, now)
}

// StartAt begins a new session from an already-parsed start instant. A zero
// instant starts from zero.
func (t *Tracker) StartAt(startedAt time.Time) {
	var baseline int64
	now := t.clock.Now()
	if !startedAt.IsZero() {
		baseline = timeutil.ElapsedSeconds(startedAt, now)
	}
	t.start(baseline, now)
}

func (t *Tracker) start(baseline int64, now time.Time) {
	t.mu.Lock()
	t.cancelHoldLocked()
	t.state = State{
		Elapsed:   baseline,
		IsRunning: true,
		LastStart: millis(now),
	}
	t.display = baseline
	t.acquireTickerLocked()
	t.persistLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// Pause suspends ticking. It is a no-op unless the timer is ticking.
func (t *Tracker) Pause() {
	t.mu.Lock()
	if !t.state.Ticking() {
		t.mu.Unlock()
		return
	}
	t.foldLocked(t.clock.Now())
	t.state.IsPaused = true
	t.display = t.state.Elapsed
	t.releaseTickerLocked()
	t.persistLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// Resume continues a paused session. It is a no-op unless the timer is paused.
func (t *Tracker) Resume() {
	t.mu.Lock()
	if !t.state.IsRunning || !t.state.IsPaused {
		t.mu.Unlock()
		return
	}
	t.state.IsPaused = false
	t.state.LastStart = millis(t.clock.Now())
	t.display = t.state.Elapsed
	t.acquireTickerLocked()
	t.persistLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// Stop ends the session and reports the final total. The total stays on
// display for the hold delay and then resets to zero; with no hold delay the
// reset happens before Stop returns. Stop returns false
// when no session was running.
func (t *Tracker) Stop() (int64, bool) {
	t.mu.Lock()
	if !t.state.IsRunning {
		t.mu.Unlock()
		return 0, false
	}
	if t.state.Ticking() {
		t.foldLocked(t.clock.Now())
	}
	t.state.IsRunning = false
	t.state.IsPaused = false
	t.state.LastStart = nil
	t.display = t.state.Elapsed
	final := t.display
	t.releaseTickerLocked()
	t.persistLocked()
	t.scheduleHoldLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
	return final, true
}

// Tick advances the display by one second while ticking. The owned ticker
// calls it every interval; callers driving time themselves may call it too.
func (t *Tracker) Tick() {
	t.tick(nil)
}

// tick ignores ticks delivered by a source that has since been released.
func (t *Tracker) tick(from chan struct{}) {
	t.mu.Lock()
	if from != nil && t.tickDone != from {
		t.mu.Unlock()
		return
	}
	if !t.state.Ticking() {
		t.mu.Unlock()
		return
	}
	t.display++
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// CurrentDisplaySeconds is the value currently on display.
func (t *Tracker) CurrentDisplaySeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.display
}

// Display renders the current value as HH:MM:SS.
func (t *Tracker) Display() string {
	return timeutil.FormatClock(t.CurrentDisplaySeconds())
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Snapshot returns state and display read under one lock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Close releases the tick source. A reset still pending from Stop is applied
// immediately so the persisted record does not keep a stale total.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.releaseTickerLocked()
	pending := t.hold != nil
	t.cancelHoldLocked()
	if pending && !t.state.IsRunning {
		t.state.Elapsed = 0
		t.display = 0
		t.persistLocked()
	}
	t.closed = true
	t.mu.Unlock()
}

func (t *Tracker) foldLocked(now time.Time) {
	if t.state.LastStart != nil {
		t.state.Elapsed += timeutil.ElapsedMillis(*t.state.LastStart, now)
	}
	t.state.LastStart = nil
}

func (t *Tracker) scheduleHoldLocked() {
	t.cancelHoldLocked()
	if t.closed {
		return
	}
	if t.holdDelay == 0 {
		t.resetLocked()
		return
	}
	gen := t.holdGen
	t.hold = t.clock.AfterFunc(t.holdDelay, func() {
		t.resetAfterHold(gen)
	})
}

func (t *Tracker) cancelHoldLocked() {
	t.holdGen++
	if t.hold != nil {
		t.hold.Stop()
		t.hold = nil
	}
}

func (t *Tracker) resetAfterHold(gen uint64) {
	t.mu.Lock()
	if gen != t.holdGen || t.state.IsRunning {
		t.mu.Unlock()
		return
	}
	t.hold = nil
	t.resetLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

func (t *Tracker) resetLocked() {
	t.state.Elapsed = 0
	t.display = 0
	t.persistLocked()
}

// acquireTickerLocked installs the single tick source, releasing any
// previous one first.
func (t *Tracker) acquireTickerLocked() {
	t.releaseTickerLocked()
	if t.closed {
		return
	}
	tk := t.clock.NewTicker(t.tickInterval)
	done := make(chan struct{})
	t.ticker = tk
	t.tickDone = done
	go t.run(tk, done)
}

func (t *Tracker) releaseTickerLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.tickDone)
	t.ticker = nil
	t.tickDone = nil
}

func (t *Tracker) run(tk Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-tk.C():
			t.tick(done)
		}
	}
}

func (t *Tracker) persistLocked() {
	if t.store == nil {
		return
	}
	if err := t.store.Save(t.state.Clone()); err != nil {
		t.logger.Printf("tracker: save state: %v", err)
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		State:   t.state.Clone(),
		Seconds: t.display,
		At:      t.clock.Now(),
	}
}

func (t *Tracker) emit(s Snapshot) {
	if t.notify != nil {
		t.notify(s)
	}
}
