package tracker

import (
	"encoding/json"
	"time"

	"tableflip.dev/tickr/pkg/timeutil"
)

// State is the persisted shape of a timer. LastStart is the epoch-millisecond
// instant ticking last began and is nil whenever the timer is not ticking.
type State struct {
	Elapsed   int64  `json:"elapsed"`
	IsRunning bool   `json:"isRunning"`
	IsPaused  bool   `json:"isPaused"`
	LastStart *int64 `json:"lastStart"`
}

// Ticking reports whether the timer is actively accumulating time.
func (s State) Ticking() bool {
	return s.IsRunning && !s.IsPaused
}

// Valid checks the state invariants.
func (s State) Valid() bool {
	if s.Elapsed < 0 {
		return false
	}
	if s.IsPaused && !s.IsRunning {
		return false
	}
	return (s.LastStart != nil) == s.Ticking()
}

// SecondsAt is the elapsed time a display should show at now.
func (s State) SecondsAt(now time.Time) int64 {
	if !s.Ticking() || s.LastStart == nil {
		return s.Elapsed
	}
	return s.Elapsed + timeutil.ElapsedMillis(*s.LastStart, now)
}

// Clone returns a deep copy.
func (s State) Clone() State {
	if s.LastStart != nil {
		v := *s.LastStart
		s.LastStart = &v
	}
	return s
}

// Encode serializes the state in its persisted layout.
func (s State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses a persisted record. Empty, malformed or inconsistent
// records decode to the stopped zero state.
func DecodeState(b []byte) State {
	if len(b) == 0 {
		return State{}
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}
	}
	if !s.Valid() {
		return State{}
	}
	return s
}

func millis(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}
