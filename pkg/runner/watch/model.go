// Package watch hosts the Bubble Tea live view of the running timer.
package watch

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/session"
	"tableflip.dev/tickr/pkg/timeutil"
	"tableflip.dev/tickr/pkg/tracker"
)

// TickMsg carries a tracker snapshot into the program.
type TickMsg tracker.Snapshot

// StatusMsg replaces the shown status, typically after a reload or sync.
type StatusMsg struct {
	Status app.Status
	Err    error
}

type stoppedMsg struct {
	result *app.StopResult
	err    error
}

var (
	clockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	frameStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2)
)

// Model is the live view state.
type Model struct {
	ctx  context.Context
	app  *app.Service
	keys KeyMap
	help help.Model

	snap    tracker.Snapshot
	session *session.Session
	message string
	err     error
	width   int
}

// New builds the view for svc, seeded with its current status.
func New(ctx context.Context, svc *app.Service) Model {
	m := Model{
		ctx:  ctx,
		app:  svc,
		keys: DefaultKeyMap(),
		help: help.New(),
	}
	if svc != nil {
		if st, err := svc.Status(); err == nil {
			m.snap = st.Snapshot
			m.session = st.Session
		} else {
			m.err = err
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case TickMsg:
		m.snap = tracker.Snapshot(msg)
		if !m.snap.State.IsRunning {
			m.session = nil
		}
	case StatusMsg:
		if msg.Err != nil {
			m.err = msg.Err
			break
		}
		m.err = nil
		m.snap = msg.Status.Snapshot
		m.session = msg.Status.Session
	case stoppedMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.err = nil
		m.session = nil
		m.message = stopMessage(msg.result)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Pause):
		m.message = ""
		return m, m.statusCmd(m.app.Pause)
	case key.Matches(msg, m.keys.Resume):
		m.message = ""
		return m, m.statusCmd(m.app.Resume)
	case key.Matches(msg, m.keys.Sync):
		m.message = ""
		return m, m.statusCmd(func() (app.Status, error) { return m.app.Sync(m.ctx) })
	case key.Matches(msg, m.keys.Stop):
		return m, m.stopCmd()
	}
	return m, nil
}

func (m Model) statusCmd(f func() (app.Status, error)) tea.Cmd {
	if m.app == nil {
		return nil
	}
	return func() tea.Msg {
		st, err := f()
		return StatusMsg{Status: st, Err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	if m.app == nil {
		return nil
	}
	ctx := m.ctx
	svc := m.app
	return func() tea.Msg {
		res, err := svc.Stop(ctx)
		return stoppedMsg{result: res, err: err}
	}
}

func stopMessage(res *app.StopResult) string {
	if res == nil {
		return ""
	}
	msg := "Stopped at " + timeutil.FormatClock(res.Seconds)
	if res.Offline {
		msg += " (saved locally)"
	}
	return msg
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	clock := m.snap.Display()
	switch {
	case m.snap.State.IsRunning && m.snap.State.IsPaused:
		b.WriteString(pausedStyle.Render(clock) + "  " + mutedStyle.Render("paused"))
	case m.snap.State.IsRunning:
		b.WriteString(clockStyle.Render(clock) + "  " + mutedStyle.Render("running"))
	default:
		b.WriteString(stoppedStyle.Render(clock) + "  " + mutedStyle.Render("stopped"))
	}
	b.WriteString("\n")

	if s := m.session; s != nil {
		b.WriteString(titleStyle.Render(m.fit(s.Description)) + "\n")
		project := s.Project()
		if s.Offline() {
			project += " · offline"
		}
		b.WriteString(mutedStyle.Render(m.fit(project)) + "\n")
	} else {
		b.WriteString(mutedStyle.Render("No active entry") + "\n")
	}

	if m.message != "" {
		b.WriteString(m.message + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(errorText(m.err)) + "\n")
	}

	return frameStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n" + m.help.View(m.keys) + "\n"
}

// fit truncates s to the frame's inner width.
func (m Model) fit(s string) string {
	if m.width <= 0 {
		return s
	}
	w := m.width - frameStyle.GetHorizontalFrameSize()
	if w < 8 {
		w = 8
	}
	return truncate.StringWithTail(s, uint(w), "…")
}

func errorText(err error) string {
	switch {
	case errors.Is(err, app.ErrNoSession):
		return "No timer is running"
	case errors.Is(err, app.ErrNoBackend):
		return "No backend configured"
	}
	return err.Error()
}
