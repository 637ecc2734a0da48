package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/timeutil"
)

// ProjectTotal sums the tracked time of one project.
type ProjectTotal struct {
	Project string
	Seconds int64
	Entries int
}

// ReportResult encapsulates tracked time per project for a window.
type ReportResult struct {
	Since    time.Time
	Until    time.Time
	Projects []ProjectTotal
	Total    int64
	Entries  int

	// Active is the running server entry, if any, with its live seconds.
	Active        *api.Entry
	ActiveSeconds int64
}

// Report returns entry durations grouped by project. Zero bounds are open.
// Entries whose date cannot be parsed are only counted in an open window.
func (s *Service) Report(ctx context.Context, since, until time.Time) (ReportResult, error) {
	if s.Backend == nil {
		return ReportResult{}, ErrNoBackend
	}
	if !since.IsZero() && !until.IsZero() && since.After(until) {
		since, until = until, since
	}
	all, err := s.Backend.Entries(ctx)
	if err != nil {
		return ReportResult{}, err
	}

	windowed := !since.IsZero() || !until.IsZero()
	grouped := make(map[string]*ProjectTotal)
	result := ReportResult{Since: since, Until: until}
	for i := range all {
		e := &all[i]
		if windowed {
			day, ok := timeutil.ParseStart(e.Day())
			if !ok {
				continue
			}
			if !since.IsZero() && day.Before(since) {
				continue
			}
			if !until.IsZero() && day.After(until) {
				continue
			}
		}
		label := e.ProjectLabel()
		pt, ok := grouped[label]
		if !ok {
			pt = &ProjectTotal{Project: label}
			grouped[label] = pt
		}
		secs := e.Seconds()
		pt.Seconds += secs
		pt.Entries++
		result.Total += secs
		result.Entries++
	}

	result.Projects = make([]ProjectTotal, 0, len(grouped))
	for _, pt := range grouped {
		result.Projects = append(result.Projects, *pt)
	}
	sort.Slice(result.Projects, func(i, j int) bool {
		a, b := result.Projects[i], result.Projects[j]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return a.Project < b.Project
	})

	// The active entry is decoration; failures leave it empty.
	if active, err := s.Backend.ActiveEntry(ctx); err == nil && active != nil {
		result.Active = active
		if started, ok := timeutil.ParseStart(active.Start()); ok {
			result.ActiveSeconds = timeutil.ElapsedSeconds(started, s.now())
		}
	} else if err != nil {
		s.logf("app: report active entry: %v", err)
	}
	return result, nil
}
