package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/tickr/pkg/api"
)

func TestReportGroupsByProject(t *testing.T) {
	f := newFixture(t)
	f.backend.entries = []api.Entry{
		{ID: 1, Project: &api.ProjectRef{ID: 1, Name: "Ops"}, StartTime: "2025-04-30T10:00:00Z", Duration: "1:00:00"},
		{ID: 2, Project: &api.ProjectRef{ID: 1, Name: "Ops"}, StartTime: "2025-04-29T10:00:00Z", Duration: "0:30:00"},
		{ID: 3, ProjectName: "Docs", StartTime: "2025-04-30T12:00:00Z", DurationStr: "45:00"},
		{ID: 4, StartTime: "2025-04-30T13:00:00Z", DurationSeconds: "600"},
		{ID: 5, Project: &api.ProjectRef{ID: 1, Name: "Ops"}, StartTime: "2025-03-01T10:00:00Z", Duration: "5:00:00"},
		{ID: 6, Duration: "9:00:00"},
	}
	f.backend.active = &api.Entry{ID: 9, StartTime: "2025-05-01T08:50:00Z", IsRunning: true}

	since := time.Date(2025, time.April, 24, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	r, err := f.svc.Report(context.Background(), until, since)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !r.Since.Equal(since) || !r.Until.Equal(until) {
		t.Fatalf("window not normalised: %v..%v", r.Since, r.Until)
	}
	if r.Entries != 4 || r.Total != 3600+1800+2700+600 {
		t.Fatalf("unexpected totals: %d entries, %d seconds", r.Entries, r.Total)
	}
	want := []ProjectTotal{
		{Project: "Ops", Seconds: 5400, Entries: 2},
		{Project: "Docs", Seconds: 2700, Entries: 1},
		{Project: api.NoProject, Seconds: 600, Entries: 1},
	}
	if len(r.Projects) != len(want) {
		t.Fatalf("projects = %+v", r.Projects)
	}
	for i := range want {
		if r.Projects[i] != want[i] {
			t.Fatalf("project %d = %+v, want %+v", i, r.Projects[i], want[i])
		}
	}
	if r.Active == nil || r.ActiveSeconds != 600 {
		t.Fatalf("active = %+v, %d", r.Active, r.ActiveSeconds)
	}
}

func TestReportOpenWindowCountsEverything(t *testing.T) {
	f := newFixture(t)
	f.backend.entries = []api.Entry{
		{ID: 1, Duration: "0:00:10"},
		{ID: 2, StartTime: "garbage", Duration: "0:00:20"},
	}
	f.backend.activeErr = errConnRefused

	r, err := f.svc.Report(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Total != 30 || r.Entries != 2 || r.Active != nil {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestReportEntriesError(t *testing.T) {
	f := newFixture(t)
	f.backend.entryErr = &api.Error{Status: 401}
	if _, err := f.svc.Report(context.Background(), time.Time{}, time.Time{}); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
