package tracker

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, opts ...Option) (*Tracker, *fakeClock, *memoryStore) {
	t.Helper()
	clock := newFakeClock(epoch)
	store := &memoryStore{}
	all := append([]Option{WithClock(clock), WithStore(store)}, opts...)
	tr := New(all...)
	t.Cleanup(tr.Close)
	return tr, clock, store
}

// tickFor advances the clock one interval at a time, ticking after each.
func tickFor(tr *Tracker, clock *fakeClock, n int) {
	for i := 0; i < n; i++ {
		clock.Advance(time.Second)
		tr.Tick()
	}
}

func TestStartWithoutBaselineDisplaysZero(t *testing.T) {
	tr, _, store := newTestTracker(t)

	tr.Start("")

	if got := tr.Display(); got != "00:00:00" {
		t.Fatalf("display = %q, want 00:00:00", got)
	}
	st, _ := store.current()
	if !st.IsRunning || st.IsPaused || st.LastStart == nil || *st.LastStart != epoch.UnixMilli() {
		t.Fatalf("unexpected persisted state: %+v", st)
	}
}

func TestStartFromServerTimestamp(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	tr.Start(epoch.Add(-125 * time.Second).Format(time.RFC3339Nano))

	if got := tr.Display(); got != "00:02:05" {
		t.Fatalf("display = %q, want 00:02:05", got)
	}
}

func TestStartBaselineMatchesFloorOfDelta(t *testing.T) {
	for _, offset := range []time.Duration{0, 999 * time.Millisecond, time.Second, 61500 * time.Millisecond, 5*time.Hour + 7*time.Second} {
		tr, _, _ := newTestTracker(t)
		tr.Start(strconv.FormatInt(epoch.Add(-offset).UnixMilli(), 10))
		want := int64(offset / time.Second)
		if got := tr.CurrentDisplaySeconds(); got != want {
			t.Errorf("offset %v: display seconds = %d, want %d", offset, got, want)
		}
	}
}

func TestStartMalformedOrFutureTimestampIsZero(t *testing.T) {
	for _, in := range []string{"not-a-time", "2025-99-99", epoch.Add(time.Hour).Format(time.RFC3339)} {
		tr, _, _ := newTestTracker(t)
		tr.Start(in)
		if got := tr.CurrentDisplaySeconds(); got != 0 {
			t.Errorf("Start(%q): display seconds = %d, want 0", in, got)
		}
		if !tr.State().IsRunning {
			t.Errorf("Start(%q) should still start the session", in)
		}
	}
}

func TestStartAt(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tr.StartAt(epoch.Add(-90 * time.Second))
	if got := tr.Display(); got != "00:01:30" {
		t.Fatalf("display = %q", got)
	}
	tr.StartAt(time.Time{})
	if got := tr.Display(); got != "00:00:00" {
		t.Fatalf("zero StartAt display = %q", got)
	}
}

func TestPauseResumeExcludesPausedInterval(t *testing.T) {
	tr, clock, store := newTestTracker(t)

	tr.Start("")
	tickFor(tr, clock, 3)
	tr.Pause()

	st, _ := store.current()
	if st.Elapsed != 3 || !st.IsPaused || st.LastStart != nil {
		t.Fatalf("unexpected state after pause: %+v", st)
	}

	clock.Advance(5 * time.Second)
	tr.Tick()
	if got := tr.CurrentDisplaySeconds(); got != 3 {
		t.Fatalf("paused display moved to %d", got)
	}

	tr.Resume()
	tickFor(tr, clock, 2)

	if got := tr.Display(); got != "00:00:05" {
		t.Fatalf("display = %q, want 00:00:05", got)
	}
}

func TestPauseResumeWithoutElapsedIsNeutral(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Start(epoch.Add(-42 * time.Second).Format(time.RFC3339))
	clock.Advance(300 * time.Millisecond)

	before := tr.CurrentDisplaySeconds()
	tr.Pause()
	tr.Resume()
	if got := tr.CurrentDisplaySeconds(); got != before {
		t.Fatalf("pause/resume changed display from %d to %d", before, got)
	}
}

func TestPauseFoldsWallClockNotTicks(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Start("")

	// Two ticks were missed entirely; the fold still counts them.
	clock.Advance(4 * time.Second)
	tr.Tick()
	tr.Pause()

	if got := tr.CurrentDisplaySeconds(); got != 4 {
		t.Fatalf("display after pause = %d, want 4", got)
	}
}

func TestTransitionsAreIdempotent(t *testing.T) {
	tr, clock, store := newTestTracker(t)
	tr.Start("")
	tickFor(tr, clock, 2)

	tr.Pause()
	afterOne, savesOne := store.current()
	clock.Advance(3 * time.Second)
	tr.Pause()
	afterTwo, savesTwo := store.current()
	if afterOne.Elapsed != afterTwo.Elapsed || savesOne != savesTwo {
		t.Fatalf("second pause changed state: %+v -> %+v", afterOne, afterTwo)
	}

	tr.Resume()
	resumed, savesResumed := store.current()
	tr.Resume()
	again, savesAgain := store.current()
	if *resumed.LastStart != *again.LastStart || savesResumed != savesAgain {
		t.Fatalf("second resume changed state")
	}

	if _, ok := tr.Stop(); !ok {
		t.Fatalf("first stop should report a session")
	}
	if _, ok := tr.Stop(); ok {
		t.Fatalf("second stop should be a no-op")
	}
}

func TestTransitionsWithoutSessionAreNoops(t *testing.T) {
	tr, _, store := newTestTracker(t)

	tr.Pause()
	tr.Resume()
	if _, ok := tr.Stop(); ok {
		t.Fatalf("stop without a session should report false")
	}
	if _, saves := store.current(); saves != 0 {
		t.Fatalf("no-op transitions persisted %d times", saves)
	}
}

func TestResumeRequiresPause(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Start("")
	tickFor(tr, clock, 2)
	tr.Resume()
	if got := tr.CurrentDisplaySeconds(); got != 2 {
		t.Fatalf("resume while ticking reset display to %d", got)
	}
}

func TestStopHoldsThenResets(t *testing.T) {
	tr, clock, store := newTestTracker(t, WithHoldDelay(time.Second))
	tr.Start("")
	tickFor(tr, clock, 7)

	final, ok := tr.Stop()
	if !ok || final != 7 {
		t.Fatalf("stop = (%d, %v), want (7, true)", final, ok)
	}
	st, _ := store.current()
	if st.IsRunning || st.IsPaused || st.LastStart != nil || st.Elapsed != 7 {
		t.Fatalf("unexpected state after stop: %+v", st)
	}

	clock.Advance(999 * time.Millisecond)
	if got := tr.Display(); got != "00:00:07" {
		t.Fatalf("display during hold = %q", got)
	}

	clock.Advance(time.Millisecond)
	if got := tr.Display(); got != "00:00:00" {
		t.Fatalf("display after hold = %q", got)
	}
	st, _ = store.current()
	if st.Elapsed != 0 || st.IsRunning {
		t.Fatalf("reset not persisted: %+v", st)
	}
}

func TestStopWithoutHoldResetsBeforeReturning(t *testing.T) {
	tr, clock, store := newTestTracker(t, WithHoldDelay(0))
	tr.Start("")
	tickFor(tr, clock, 5)

	final, ok := tr.Stop()
	if !ok || final != 5 {
		t.Fatalf("stop = (%d, %v), want (5, true)", final, ok)
	}
	if got := tr.Display(); got != "00:00:00" {
		t.Fatalf("display after stop = %q", got)
	}
	st, _ := store.current()
	if st.Elapsed != 0 || st.IsRunning {
		t.Fatalf("reset not persisted: %+v", st)
	}
	if n := clock.timerCount(); n != 0 {
		t.Fatalf("expected no reset timer, got %d", n)
	}
}

func TestStopWhilePausedExcludesPause(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Start("")
	tickFor(tr, clock, 4)
	tr.Pause()
	clock.Advance(time.Minute)

	final, ok := tr.Stop()
	if !ok || final != 4 {
		t.Fatalf("stop = (%d, %v), want (4, true)", final, ok)
	}
}

func TestStartDuringHoldCancelsReset(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Start("")
	tickFor(tr, clock, 3)
	tr.Stop()

	tr.Start(epoch.Add(-10 * time.Second).Format(time.RFC3339))
	clock.Advance(2 * time.Second)

	st := tr.State()
	if !st.IsRunning {
		t.Fatalf("pending reset stopped the new session")
	}
	if st.Elapsed == 0 {
		t.Fatalf("pending reset cleared the new baseline")
	}
}

func TestRestoreRecomputesFromWallClock(t *testing.T) {
	clock := newFakeClock(epoch)
	last := epoch.Add(-65500 * time.Millisecond).UnixMilli()
	store := &memoryStore{state: State{Elapsed: 40, IsRunning: true, LastStart: &last}}

	tr := New(WithClock(clock), WithStore(store))
	defer tr.Close()

	if got := tr.CurrentDisplaySeconds(); got != 40+65 {
		t.Fatalf("restored display = %d, want 105", got)
	}
	if clock.activeTickers() != 1 {
		t.Fatalf("restored running timer should own one ticker, got %d", clock.activeTickers())
	}
}

func TestRestorePausedState(t *testing.T) {
	clock := newFakeClock(epoch)
	store := &memoryStore{state: State{Elapsed: 12, IsRunning: true, IsPaused: true}}

	tr := New(WithClock(clock), WithStore(store))
	defer tr.Close()

	if got := tr.CurrentDisplaySeconds(); got != 12 {
		t.Fatalf("restored display = %d, want 12", got)
	}
	if clock.activeTickers() != 0 {
		t.Fatalf("paused timer should not tick")
	}
}

func TestRestoreInvalidStateIsStopped(t *testing.T) {
	clock := newFakeClock(epoch)
	last := epoch.UnixMilli()
	store := &memoryStore{state: State{Elapsed: 9, IsPaused: true, LastStart: &last}}

	tr := New(WithClock(clock), WithStore(store))
	defer tr.Close()

	st := tr.State()
	if st.IsRunning || st.IsPaused || st.Elapsed != 0 || tr.CurrentDisplaySeconds() != 0 {
		t.Fatalf("invalid record should restore as stopped, got %+v", st)
	}
}

func TestRestoreStaleStopResetsAfterHold(t *testing.T) {
	clock := newFakeClock(epoch)
	store := &memoryStore{state: State{Elapsed: 30}}

	tr := New(WithClock(clock), WithStore(store))
	defer tr.Close()

	if got := tr.CurrentDisplaySeconds(); got != 30 {
		t.Fatalf("display = %d, want 30", got)
	}
	clock.Advance(DefaultHoldDelay)
	if got := tr.CurrentDisplaySeconds(); got != 0 {
		t.Fatalf("display after hold = %d, want 0", got)
	}
}

func TestReloadFollowsExternalChanges(t *testing.T) {
	tr, clock, store := newTestTracker(t)
	tr.Start("")
	tickFor(tr, clock, 2)

	// Another process paused the timer at 6 seconds.
	store.Save(State{Elapsed: 6, IsRunning: true, IsPaused: true})
	tr.Reload()

	if got := tr.CurrentDisplaySeconds(); got != 6 {
		t.Fatalf("display after reload = %d, want 6", got)
	}
	if clock.activeTickers() != 0 {
		t.Fatalf("reload into paused state should release the ticker")
	}
}

func TestStorageFailuresAreIgnored(t *testing.T) {
	clock := newFakeClock(epoch)
	store := &memoryStore{loadErr: errStorageUnavailable, saveErr: errStorageUnavailable}

	tr := New(WithClock(clock), WithStore(store))
	defer tr.Close()

	tr.Start("")
	tickFor(tr, clock, 2)
	tr.Pause()
	if got := tr.CurrentDisplaySeconds(); got != 2 {
		t.Fatalf("in-memory state should stay authoritative, display = %d", got)
	}
}

func TestExactlyOneTickSource(t *testing.T) {
	tr, clock, _ := newTestTracker(t)

	steps := []struct {
		name string
		do   func()
		want int
	}{
		{"start", func() { tr.Start("") }, 1},
		{"restart", func() { tr.Start("") }, 1},
		{"pause", tr.Pause, 0},
		{"pause again", tr.Pause, 0},
		{"resume", tr.Resume, 1},
		{"resume again", tr.Resume, 1},
		{"stop", func() { tr.Stop() }, 0},
	}
	for _, step := range steps {
		step.do()
		if got := clock.activeTickers(); got != step.want {
			t.Fatalf("after %s: %d active tickers, want %d", step.name, got, step.want)
		}
	}

	tr.Start("")
	tr.Close()
	if got := clock.activeTickers(); got != 0 {
		t.Fatalf("close left %d tickers running", got)
	}
}

func TestDisplayIsMonotonicWhileTicking(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Start(epoch.Add(-3 * time.Second).Format(time.RFC3339))

	prev := tr.CurrentDisplaySeconds()
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		tr.Tick()
		got := tr.CurrentDisplaySeconds()
		if got < prev {
			t.Fatalf("display went backwards: %d -> %d", prev, got)
		}
		prev = got
	}
}

func TestCloseFlushesPendingReset(t *testing.T) {
	tr, clock, store := newTestTracker(t)
	tr.Start("")
	tickFor(tr, clock, 5)
	tr.Stop()
	tr.Close()

	st, _ := store.current()
	if st.Elapsed != 0 || st.IsRunning {
		t.Fatalf("close should persist the reset, got %+v", st)
	}
}

func TestNotifyReceivesBoundariesAndTicks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int64
	)
	tr, clock, _ := newTestTracker(t, WithNotify(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Seconds)
		mu.Unlock()
	}))

	tr.Start("")
	tickFor(tr, clock, 2)
	tr.Stop()
	clock.Advance(DefaultHoldDelay)

	mu.Lock()
	defer mu.Unlock()
	want := []int64{0, 1, 2, 2, 0}
	if len(seen) != len(want) {
		t.Fatalf("notifications = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", seen, want)
		}
	}
}

func TestOwnedTickerAdvancesDisplay(t *testing.T) {
	tr := New(WithTickInterval(10 * time.Millisecond))
	defer tr.Close()

	tr.Start("")
	deadline := time.After(2 * time.Second)
	for tr.CurrentDisplaySeconds() < 2 {
		select {
		case <-deadline:
			t.Fatalf("ticker never advanced the display, at %d", tr.CurrentDisplaySeconds())
		case <-time.After(5 * time.Millisecond):
		}
	}

	tr.Pause()
	paused := tr.CurrentDisplaySeconds()
	time.Sleep(50 * time.Millisecond)
	if got := tr.CurrentDisplaySeconds(); got != paused {
		t.Fatalf("display moved while paused: %d -> %d", paused, got)
	}
}
