// Package view holds the JSON shapes tickr exposes over its CLI, HTTP and
// MCP surfaces.
package view

import (
	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/session"
	"tableflip.dev/tickr/pkg/timeutil"
)

const (
	StateStopped = "stopped"
	StateRunning = "running"
	StatePaused  = "paused"
)

// Timer is the timer together with the entry being timed.
type Timer struct {
	Display     string `json:"display"`
	Seconds     int64  `json:"seconds"`
	State       string `json:"state"`
	Elapsed     int64  `json:"elapsed"`
	LastStart   *int64 `json:"lastStart,omitempty"`
	Description string `json:"description,omitempty"`
	Project     string `json:"project,omitempty"`
	EntryID     int64  `json:"entryId,omitempty"`
	Offline     bool   `json:"offline,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
}

// Stop describes a finished session.
type Stop struct {
	Display     string `json:"display"`
	Seconds     int64  `json:"seconds"`
	Description string `json:"description,omitempty"`
	Project     string `json:"project,omitempty"`
	Offline     bool   `json:"offline"`
}

// Entry is a recorded server entry.
type Entry struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Project     string `json:"project"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Duration    string `json:"duration"`
	Seconds     int64  `json:"seconds"`
}

// Session is a locally logged session.
type Session struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Project     string `json:"project"`
	StartedAt   string `json:"startedAt"`
	StoppedAt   string `json:"stoppedAt,omitempty"`
	Duration    string `json:"duration"`
	Seconds     int64  `json:"seconds"`
	Offline     bool   `json:"offline"`
}

// Page is one page of entries.
type Page struct {
	Entries []Entry `json:"entries"`
	Count   int     `json:"count"`
	Page    int     `json:"page"`
	Pages   int     `json:"pages"`
	Total   int     `json:"total"`
}

// ProjectTotal is the tracked time of one project in a report.
type ProjectTotal struct {
	Project  string `json:"project"`
	Duration string `json:"duration"`
	Seconds  int64  `json:"seconds"`
	Entries  int    `json:"entries"`
}

// Report is a per-project summary of a window.
type Report struct {
	Since    string         `json:"since,omitempty"`
	Until    string         `json:"until,omitempty"`
	Duration string         `json:"duration"`
	Seconds  int64          `json:"seconds"`
	Entries  int            `json:"entries"`
	Projects []ProjectTotal `json:"projects"`
	Active   *Entry         `json:"active,omitempty"`
}

func stateOf(st app.Status) string {
	switch {
	case st.Paused():
		return StatePaused
	case st.Running():
		return StateRunning
	}
	return StateStopped
}

// FromStatus projects a timer status.
func FromStatus(st app.Status) Timer {
	v := Timer{
		Display:   st.Display(),
		Seconds:   st.Snapshot.Seconds,
		State:     stateOf(st),
		Elapsed:   st.Snapshot.State.Elapsed,
		LastStart: st.Snapshot.State.LastStart,
	}
	if s := st.Session; s != nil {
		v.Description = s.Description
		v.Project = s.Project()
		v.EntryID = s.EntryID
		v.Offline = s.Offline()
		v.StartedAt = session.FormatTime(s.StartedAt.Time)
	}
	return v
}

// FromStop projects a stop result.
func FromStop(res *app.StopResult) Stop {
	v := Stop{
		Display: timeutil.FormatClock(res.Seconds),
		Seconds: res.Seconds,
		Offline: res.Offline,
	}
	if res.Session != nil {
		v.Description = res.Session.Description
		v.Project = res.Session.Project()
	}
	return v
}

// FromEntry projects a server entry.
func FromEntry(e *api.Entry) Entry {
	v := Entry{
		ID:          e.ID,
		Description: e.Description,
		Project:     e.ProjectLabel(),
		Start:       e.Start(),
		Seconds:     e.Seconds(),
	}
	if e.EndTime != nil {
		v.End = *e.EndTime
	}
	v.Duration = timeutil.FormatHMS(v.Seconds)
	return v
}

// FromPage projects a page of entries.
func FromPage(p app.EntryPage) Page {
	v := Page{
		Entries: make([]Entry, 0, len(p.Entries)),
		Page:    p.Page,
		Pages:   p.Pages,
		Total:   p.Total,
	}
	for i := range p.Entries {
		v.Entries = append(v.Entries, FromEntry(&p.Entries[i]))
	}
	v.Count = len(v.Entries)
	return v
}

// FromSession projects a logged session.
func FromSession(s *session.Session) Session {
	v := Session{
		ID:          s.ID,
		Description: s.Description,
		Project:     s.Project(),
		StartedAt:   session.FormatTime(s.StartedAt.Time),
		Duration:    timeutil.FormatHMS(s.Seconds),
		Seconds:     s.Seconds,
		Offline:     s.Offline(),
	}
	if s.Completed() {
		v.StoppedAt = session.FormatTime(s.StoppedAt.Time)
	}
	return v
}

// FromSessions projects a session log.
func FromSessions(sessions []*session.Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, FromSession(s))
	}
	return out
}

// FromReport projects a report.
func FromReport(r app.ReportResult) Report {
	v := Report{
		Duration: timeutil.FormatHMS(r.Total),
		Seconds:  r.Total,
		Entries:  r.Entries,
		Projects: make([]ProjectTotal, 0, len(r.Projects)),
	}
	if !r.Since.IsZero() {
		v.Since = session.FormatTime(r.Since)
	}
	if !r.Until.IsZero() {
		v.Until = session.FormatTime(r.Until)
	}
	for _, p := range r.Projects {
		v.Projects = append(v.Projects, ProjectTotal{
			Project:  p.Project,
			Duration: timeutil.FormatHMS(p.Seconds),
			Seconds:  p.Seconds,
			Entries:  p.Entries,
		})
	}
	if r.Active != nil {
		active := FromEntry(r.Active)
		active.Seconds = r.ActiveSeconds
		active.Duration = timeutil.FormatHMS(r.ActiveSeconds)
		v.Active = &active
	}
	return v
}
