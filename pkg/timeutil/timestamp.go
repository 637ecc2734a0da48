package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// startLayouts lists the timestamp shapes the backend has been seen to emit.
// Layouts without a zone are read in local time.
var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// dateLayouts are date-only forms, read as UTC midnight the way browsers
// parse them.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
}

// minEpochMillisDigits keeps short integers such as a bare year from being
// taken as milliseconds; 11 digits is April 1970 onward.
const minEpochMillisDigits = 11

// ParseStart reads a server-reported start instant given either as an ISO-8601
// timestamp or as integer milliseconds since the epoch.
func ParseStart(v string) (time.Time, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) >= minEpochMillisDigits && isDigits(s) {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ElapsedSeconds returns floor((now - then) / 1s), never negative.
func ElapsedSeconds(then, now time.Time) int64 {
	return ElapsedMillis(then.UnixMilli(), now)
}

// ElapsedMillis is ElapsedSeconds for an epoch-millisecond start.
func ElapsedMillis(thenMs int64, now time.Time) int64 {
	delta := now.UnixMilli() - thenMs
	if delta <= 0 {
		return 0
	}
	return delta / 1000
}
