package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/session"
	"tableflip.dev/tickr/pkg/timeutil"
)

type PrettyPrint struct {
	ShowID bool
	Out    io.Writer
}

var (
	spacing = strings.Repeat(" ", len("10423  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out != nil {
		return pp.Out
	}
	return color.Output
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintf(pp.out(), " %s\n", noun)
	default:
		_, _ = c.Fprintf(pp.out(), " %s\n", plural(noun))
	}
}

func plural(noun string) string {
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Status prints the clock and the session it belongs to.
func (pp *PrettyPrint) Status(st app.Status) {
	clock := color.New(color.Bold)
	var label *color.Color
	var state string
	switch {
	case st.Paused():
		label, state = color.New(color.FgYellow), "paused"
	case st.Running():
		label, state = color.New(color.FgGreen), "running"
	default:
		label, state = color.New(color.Faint), "stopped"
	}

	_, _ = clock.Fprint(pp.out(), st.Display())
	_, _ = label.Fprintf(pp.out(), "  %s\n", state)
	if st.Session != nil {
		pp.session(st.Session)
	}
}

func (pp *PrettyPrint) session(s *session.Session) {
	f := color.New(color.Faint)
	_, _ = fmt.Fprintf(pp.out(), "%s", s.Description)
	_, _ = f.Fprintf(pp.out(), "  %s", s.Project())
	if s.Offline() {
		_, _ = color.New(color.FgHiYellow, color.Italic).Fprint(pp.out(), "  offline")
	} else if pp.ShowID {
		_, _ = f.Fprintf(pp.out(), "  #%d", s.EntryID)
	}
	_, _ = fmt.Fprintln(pp.out(), "")
}

// Stopped prints the total of a finished session.
func (pp *PrettyPrint) Stopped(res *app.StopResult) {
	b := color.New(color.Bold)
	_, _ = fmt.Fprint(pp.out(), "Stopped at ")
	_, _ = b.Fprintln(pp.out(), timeutil.FormatClock(res.Seconds))
	if res.Session != nil && res.Session.Description != "" {
		pp.session(res.Session)
	}
	if res.Offline {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(pp.out(), "The server was not told; the session is in the local log.")
	}
}

// Entries prints one page of recorded entries.
func (pp *PrettyPrint) Entries(page app.EntryPage) {
	pp.TitleWithCount("Entries", page.Total, "entry")
	if len(page.Entries) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Description"), bold.Sprint("Project"), bold.Sprint("Start"), bold.Sprint("End"), bold.Sprint("Duration"))
	for _, e := range page.Entries {
		end := "-"
		if e.EndTime != nil && *e.EndTime != "" {
			end = clockTime(*e.EndTime)
		}
		tbl.AddRow(y.Sprint(e.ID), e.Description, e.ProjectLabel(), clockTime(e.Start()), end, timeutil.FormatHMS(e.Seconds()))
	}
	tbl.RightAlign(0)
	tbl.RightAlign(5)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = color.New(color.Faint).Fprintf(pp.out(), "page %d of %d\n", page.Page, page.Pages)
}

// clockTime shortens a server timestamp for tables.
func clockTime(v string) string {
	t, ok := timeutil.ParseStart(v)
	if !ok {
		return v
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Report prints tracked time per project.
func (pp *PrettyPrint) Report(r app.ReportResult) {
	title := "Report"
	if !r.Since.IsZero() || !r.Until.IsZero() {
		title = fmt.Sprintf("Report %s → %s", day(r.Since), day(r.Until))
	}
	pp.TitleWithCount(title, r.Entries, "entry")
	if len(r.Projects) == 0 {
		pp.none()
	} else {
		bold := color.New(color.Bold)
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.AddRow(bold.Sprint("Project"), bold.Sprint("Time"), bold.Sprint("Entries"), bold.Sprint("Share"))
		for _, p := range r.Projects {
			share := 0.0
			if r.Total > 0 {
				share = float64(p.Seconds) * 100 / float64(r.Total)
			}
			tbl.AddRow(p.Project, timeutil.FormatHMS(p.Seconds), p.Entries, fmt.Sprintf("%.0f%%", share))
		}
		tbl.AddRow(bold.Sprint("Total"), bold.Sprint(timeutil.FormatHMS(r.Total)), r.Entries, "")
		tbl.RightAlign(1)
		tbl.RightAlign(2)
		tbl.RightAlign(3)
		_, _ = fmt.Fprintln(pp.out(), tbl)
	}
	if r.Active != nil {
		g := color.New(color.FgGreen)
		_, _ = g.Fprintf(pp.out(), "\nRunning %s", timeutil.FormatClock(r.ActiveSeconds))
		_, _ = fmt.Fprintf(pp.out(), "  %s  %s\n", r.Active.Description, r.Active.ProjectLabel())
	}
}

func day(t time.Time) string {
	if t.IsZero() {
		return "…"
	}
	return t.Local().Format("2006-01-02")
}

// Projects prints the project list.
func (pp *PrettyPrint) Projects(projects []api.Project) {
	pp.TitleWithCount("Projects", len(projects), "project")
	if len(projects) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Name"), bold.Sprint("Type"), bold.Sprint("Description"))
	for _, p := range projects {
		tbl.AddRow(y.Sprint(p.ID), p.Name, p.Type, p.Description)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Sessions prints sessions from the local log.
func (pp *PrettyPrint) Sessions(sessions []*session.Session) {
	pp.TitleWithCount("Log", len(sessions), "session")
	if len(sessions) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	f := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("Started"), bold.Sprint("Duration"), bold.Sprint("Description"), bold.Sprint("Project"), "")
	var total int64
	for _, s := range sessions {
		note := ""
		if s.Offline() {
			note = f.Sprint("offline")
		}
		tbl.AddRow(s.StartedAt.Local().Format("2006-01-02 15:04"), timeutil.FormatHMS(s.Seconds), s.Description, s.Project(), note)
		total += s.Seconds
	}
	tbl.AddRow(bold.Sprint("Total"), bold.Sprint(timeutil.FormatHMS(total)), "", "", "")
	tbl.RightAlign(1)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// User prints the signed-in account.
func (pp *PrettyPrint) Teams(teams []api.Team) {
	pp.TitleWithCount("Teams", len(teams), "team")
	if len(teams) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Name"), bold.Sprint("Owner"), bold.Sprint("Members"), bold.Sprint("Description"))
	for _, t := range teams {
		owner := t.Owner.Username
		if owner == "" {
			owner = t.OwnerUsername
		}
		count := t.MemberCount
		if count < len(t.Members) {
			count = len(t.Members)
		}
		tbl.AddRow(y.Sprint(t.ID), t.Name, owner, count, t.Description)
	}
	tbl.RightAlign(0)
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func (pp *PrettyPrint) Members(team string, members []api.Member) {
	pp.TitleWithCount(team, len(members), "member")
	if len(members) == 0 {
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("User"), bold.Sprint("Username"), bold.Sprint("Email"), bold.Sprint("Role"))
	for _, m := range members {
		tbl.AddRow(y.Sprint(m.UserID), m.Username, m.Email, m.Role)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func (pp *PrettyPrint) User(u *api.User) {
	b := color.New(color.Bold)
	_, _ = fmt.Fprint(pp.out(), "Signed in as ")
	_, _ = b.Fprint(pp.out(), u.Email)
	if u.Username != "" && u.Username != u.Email {
		_, _ = color.New(color.Faint).Fprintf(pp.out(), " (%s)", u.Username)
	}
	_, _ = fmt.Fprintln(pp.out(), "")
}
