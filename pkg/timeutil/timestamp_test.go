package timeutil

import (
	"testing"
	"time"
)

func TestParseStartEpochMillis(t *testing.T) {
	got, ok := ParseStart("1700000000123")
	if !ok {
		t.Fatalf("expected epoch millis to parse")
	}
	if got.UnixMilli() != 1700000000123 {
		t.Fatalf("unexpected instant %d", got.UnixMilli())
	}
}

func TestParseStartISO(t *testing.T) {
	want := time.Date(2025, time.March, 4, 10, 30, 15, 0, time.UTC)
	for _, in := range []string{
		"2025-03-04T10:30:15Z",
		"2025-03-04T10:30:15.000Z",
		"2025-03-04T12:30:15+02:00",
		"2025-03-04 10:30:15Z",
	} {
		got, ok := ParseStart(in)
		if !ok {
			t.Errorf("ParseStart(%q) failed", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseStart(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseStartZonelessIsLocal(t *testing.T) {
	got, ok := ParseStart("2025-03-04T10:30:15.123456")
	if !ok {
		t.Fatalf("expected zoneless timestamp to parse")
	}
	want := time.Date(2025, time.March, 4, 10, 30, 15, 123456000, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseStartDateOnlyIsUTC(t *testing.T) {
	for in, want := range map[string]time.Time{
		"2025-06-02": time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		"2025-06":    time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		"2024":       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	} {
		got, ok := ParseStart(in)
		if !ok {
			t.Errorf("ParseStart(%q) failed", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseStart(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseStartShortIntegersAreNotMillis(t *testing.T) {
	for _, in := range []string{"12", "123456", "9999999999"} {
		if got, ok := ParseStart(in); ok {
			t.Errorf("ParseStart(%q) = %v, want failure", in, got)
		}
	}
}

func TestParseStartRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2025-13-40T99:99:99Z"} {
		if _, ok := ParseStart(in); ok {
			t.Errorf("ParseStart(%q) should fail", in)
		}
	}
}

func TestElapsedSecondsFloorsAndClamps(t *testing.T) {
	now := time.UnixMilli(10_999)
	if got := ElapsedSeconds(time.UnixMilli(0), now); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := ElapsedSeconds(time.UnixMilli(20_000), now); got != 0 {
		t.Fatalf("future start should clamp to 0, got %d", got)
	}
}
