// Package app combines the local tracker, the local store and the backend
// into the operations the CLI, the live view and the servers share.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/session"
	"tableflip.dev/tickr/pkg/store"
	"tableflip.dev/tickr/pkg/timeutil"
	"tableflip.dev/tickr/pkg/tracker"
)

var (
	ErrDescriptionRequired = errors.New("app: description is required to start a timer")
	ErrAlreadyRunning      = errors.New("app: a timer is already running")
	ErrNoSession           = errors.New("app: no timer is running")
	ErrNoBackend           = errors.New("app: no backend configured")
	ErrNameRequired        = errors.New("app: project name is required")
	ErrNothingToUpdate     = errors.New("app: nothing to update")
	ErrCredentialsRequired = errors.New("app: username, email and password are required")
	ErrTeamNotFound        = errors.New("app: team not found")
)

// Backend is the subset of the REST client the service uses.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.Tokens, error)
	SetToken(token string)
	User(ctx context.Context) (*api.User, error)
	Entries(ctx context.Context) ([]api.Entry, error)
	ActiveEntry(ctx context.Context) (*api.Entry, error)
	StartEntry(ctx context.Context, description string, projectID *int64) (*api.Entry, error)
	StopEntry(ctx context.Context, projectID *int64) (*api.Entry, error)
	UpdateEntry(ctx context.Context, id int64, description string) (*api.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	Projects(ctx context.Context) ([]api.Project, error)
	CreateProject(ctx context.Context, p api.NewProject) (*api.Project, error)
	UpdateProject(ctx context.Context, id int64, p api.ProjectUpdate) (*api.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	Signup(ctx context.Context, u api.NewUser) (*api.User, error)

	Teams(ctx context.Context) ([]api.Team, error)
	CreateTeam(ctx context.Context, t api.NewTeam) (*api.Team, error)
	DeleteTeam(ctx context.Context, id int64) error
	TeamMembers(ctx context.Context, id int64) ([]api.Member, error)
	InviteMember(ctx context.Context, id int64) (string, error)
	AcceptInvite(ctx context.Context, token string) (*api.Team, error)
	RemoveMember(ctx context.Context, id, userID int64) error
	AssignProject(ctx context.Context, id, projectID int64) error
	UnassignProject(ctx context.Context, id, projectID int64) error
}

// Service provides high-level timer operations. Backend may be nil, in which
// case timers run offline and server-only operations fail with ErrNoBackend.
// Timer transitions are serialized, so concurrent callers see one start or
// stop win and the others fail with ErrAlreadyRunning or ErrNoSession.
type Service struct {
	Persistence store.Persistence
	Backend     Backend
	Tracker     *tracker.Tracker
	Clock       tracker.Clock
	Logger      *log.Logger

	// mu is held across the backend call and the tracker change of a
	// transition.
	mu sync.Mutex
}

// Status is what the tracker shows together with the session it belongs to.
type Status struct {
	Snapshot tracker.Snapshot
	Session  *session.Session
}

// Display renders the tracked time as HH:MM:SS.
func (s Status) Display() string {
	return s.Snapshot.Display()
}

// Running reports whether a session is active, paused or not.
func (s Status) Running() bool {
	return s.Snapshot.State.IsRunning
}

// Paused reports whether the active session is paused.
func (s Status) Paused() bool {
	return s.Snapshot.State.IsRunning && s.Snapshot.State.IsPaused
}

// StopResult describes a finished session.
type StopResult struct {
	Session *session.Session
	Seconds int64
	// Offline is set when the backend could not be told about the stop.
	Offline bool
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Printf(format, args...)
}

func (s *Service) ready() error {
	if s.Persistence == nil {
		return errors.New("app: no persistence configured")
	}
	if s.Tracker == nil {
		return errors.New("app: no tracker configured")
	}
	return nil
}

func (s *Service) loadSession() *session.Session {
	sess, err := s.Persistence.LoadSession()
	if err != nil {
		s.logf("app: load session: %v", err)
		return nil
	}
	return sess
}

// Status returns the tracker snapshot and the active session, if any.
func (s *Service) Status() (Status, error) {
	if err := s.ready(); err != nil {
		return Status{}, err
	}
	st := Status{Snapshot: s.Tracker.Snapshot()}
	if st.Running() {
		st.Session = s.loadSession()
	}
	return st, nil
}

// Start begins timing a new entry. The backend is asked to start the entry
// first; when it cannot be reached the timer starts locally and the session
// is kept without a server id.
func (s *Service) Start(ctx context.Context, description string, projectID *int64) (Status, error) {
	if err := s.ready(); err != nil {
		return Status{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Status{}, ErrDescriptionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Tracker.State().IsRunning {
		return Status{}, ErrAlreadyRunning
	}

	now := s.now()
	sess := session.New(description, projectID, now)

	var entry *api.Entry
	if s.Backend != nil {
		var err error
		entry, err = s.Backend.StartEntry(ctx, description, projectID)
		if err != nil {
			if !api.Unreachable(err) {
				return Status{}, err
			}
			s.logf("app: backend unreachable, starting offline: %v", err)
			entry = nil
		}
	}

	serverStart := ""
	if entry != nil {
		sess.EntryID = entry.ID
		serverStart = entry.Start()
		if started, ok := timeutil.ParseStart(serverStart); ok {
			sess.StartedAt = session.Timestamp{Time: started}
		}
		if entry.ProjectLabel() != api.NoProject {
			sess.ProjectName = entry.ProjectLabel()
		}
		if sess.ProjectID == nil {
			sess.ProjectID = entry.ProjectID()
		}
	}
	if sess.ProjectName == "" && projectID != nil {
		sess.ProjectName = s.projectName(ctx, *projectID)
	}

	s.Tracker.Start(serverStart)
	if err := s.Persistence.SaveSession(sess); err != nil {
		s.logf("app: save session: %v", err)
	}
	return Status{Snapshot: s.Tracker.Snapshot(), Session: sess}, nil
}

// projectName resolves a project id through the cached project list.
func (s *Service) projectName(ctx context.Context, id int64) string {
	if s.Backend == nil {
		return ""
	}
	projects, err := s.Backend.Projects(ctx)
	if err != nil {
		return ""
	}
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

// Pause suspends the running timer. The backend has no notion of pauses, so
// this is local only.
func (s *Service) Pause() (Status, error) {
	if err := s.ready(); err != nil {
		return Status{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Tracker.State().IsRunning {
		return Status{}, ErrNoSession
	}
	s.Tracker.Pause()
	return s.Status()
}

// Resume continues a paused timer.
func (s *Service) Resume() (Status, error) {
	if err := s.ready(); err != nil {
		return Status{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Tracker.State().IsRunning {
		return Status{}, ErrNoSession
	}
	s.Tracker.Resume()
	return s.Status()
}

// Stop ends the running timer. When the backend rejects the stop the timer
// keeps running and the error is returned; when the backend is unreachable
// the timer stops locally and the result is flagged offline.
func (s *Service) Stop(ctx context.Context) (*StopResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Tracker.State().IsRunning {
		return nil, ErrNoSession
	}
	sess := s.loadSession()

	offline := sess == nil || sess.Offline()
	if !offline && s.Backend != nil {
		if _, err := s.Backend.StopEntry(ctx, sess.ProjectID); err != nil {
			if !api.Unreachable(err) {
				return nil, err
			}
			s.logf("app: backend unreachable, stopping offline: %v", err)
			offline = true
		}
	}

	total, ok := s.Tracker.Stop()
	if !ok {
		return nil, ErrNoSession
	}
	sess = s.finish(sess, total)
	return &StopResult{Session: sess, Seconds: total, Offline: offline}, nil
}

// finish records a stopped session in the local log and clears it.
func (s *Service) finish(sess *session.Session, total int64) *session.Session {
	now := s.now()
	if sess == nil {
		sess = session.New("", nil, now.Add(-time.Duration(total)*time.Second))
	}
	sess.Complete(now, total)
	if err := s.Persistence.AppendLog(sess); err != nil {
		s.logf("app: append log: %v", err)
	}
	if err := s.Persistence.ClearSession(); err != nil {
		s.logf("app: clear session: %v", err)
	}
	return sess
}

// Sync reconciles the local timer with the server's active entry. A running
// server entry wins over a different local one; a server-backed local
// session the server no longer reports as running is stopped.
func (s *Service) Sync(ctx context.Context) (Status, error) {
	if err := s.ready(); err != nil {
		return Status{}, err
	}
	if s.Backend == nil {
		return Status{}, ErrNoBackend
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	active, err := s.Backend.ActiveEntry(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("app: sync: %w", err)
	}

	running := s.Tracker.State().IsRunning
	sess := s.loadSession()

	switch {
	case active != nil:
		if running && sess != nil && sess.EntryID == active.ID {
			break
		}
		if running {
			if total, ok := s.Tracker.Stop(); ok {
				s.finish(sess, total)
			}
		}
		next := session.New(active.Description, active.ProjectID(), s.now())
		next.EntryID = active.ID
		if started, ok := timeutil.ParseStart(active.Start()); ok {
			next.StartedAt = session.Timestamp{Time: started}
		}
		if active.ProjectLabel() != api.NoProject {
			next.ProjectName = active.ProjectLabel()
		}
		s.Tracker.Start(active.Start())
		if err := s.Persistence.SaveSession(next); err != nil {
			s.logf("app: save session: %v", err)
		}
	case running && sess != nil && !sess.Offline():
		if total, ok := s.Tracker.Stop(); ok {
			s.finish(sess, total)
		}
	}
	return s.Status()
}

// Log lists locally recorded sessions started within [since, until].
func (s *Service) Log(ctx context.Context, since, until time.Time) ([]*session.Session, error) {
	if s.Persistence == nil {
		return nil, errors.New("app: no persistence configured")
	}
	return s.Persistence.Log(ctx, since, until), nil
}

// Watch subscribes to persistence change events.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	if s.Persistence == nil {
		return nil, errors.New("app: no persistence configured")
	}
	return s.Persistence.Watch(ctx)
}

// Refresh reloads the tracker when the persisted timer differs from what it
// holds, as happens when another process changed it. It reports whether a
// reload happened.
func (s *Service) Refresh() bool {
	if s.ready() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	persisted, err := s.Persistence.LoadTimer()
	if err != nil {
		s.logf("app: refresh: %v", err)
		return false
	}
	if sameState(persisted, s.Tracker.State()) {
		return false
	}
	s.Tracker.Reload()
	return true
}

func sameState(a, b tracker.State) bool {
	if a.Elapsed != b.Elapsed || a.IsRunning != b.IsRunning || a.IsPaused != b.IsPaused {
		return false
	}
	if a.LastStart == nil || b.LastStart == nil {
		return a.LastStart == b.LastStart
	}
	return *a.LastStart == *b.LastStart
}
