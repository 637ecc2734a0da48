package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"tableflip.dev/tickr/pkg/timeutil"
)

// NoProject labels entries without a project.
const NoProject = "No project"

// Flex holds a JSON value the backend sends either as a string or a number.
type Flex string

func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = Flex(n.String())
	return nil
}

// ProjectRef is the project summary embedded in an entry.
type ProjectRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Entry is a time entry as the backend reports it.
type Entry struct {
	ID              int64       `json:"id"`
	User            Flex        `json:"user,omitempty"`
	Description     string      `json:"description"`
	Project         *ProjectRef `json:"project"`
	ProjectName     string      `json:"project_name,omitempty"`
	StartTime       string      `json:"start_time,omitempty"`
	StartedAt       string      `json:"started_at,omitempty"`
	EndTime         *string     `json:"end_time"`
	Date            string      `json:"date,omitempty"`
	CreatedAt       string      `json:"created_at,omitempty"`
	Duration        Flex        `json:"duration,omitempty"`
	DurationStr     Flex        `json:"duration_str,omitempty"`
	DurationSeconds Flex        `json:"duration_seconds,omitempty"`
	IsRunning       bool        `json:"is_running"`
}

// Start is the server start timestamp, preferring started_at.
func (e *Entry) Start() string {
	if e.StartedAt != "" {
		return e.StartedAt
	}
	return e.StartTime
}

// Day is the best date string available for grouping.
func (e *Entry) Day() string {
	for _, s := range []string{e.StartTime, e.CreatedAt, e.Date} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ProjectLabel returns the project name or NoProject.
func (e *Entry) ProjectLabel() string {
	if e.Project != nil && strings.TrimSpace(e.Project.Name) != "" {
		return e.Project.Name
	}
	if strings.TrimSpace(e.ProjectName) != "" {
		return e.ProjectName
	}
	return NoProject
}

// ProjectID returns the id of the entry project, if any.
func (e *Entry) ProjectID() *int64 {
	if e.Project == nil {
		return nil
	}
	id := e.Project.ID
	return &id
}

// Seconds parses the first populated duration field.
func (e *Entry) Seconds() int64 {
	for _, d := range []Flex{e.Duration, e.DurationStr, e.DurationSeconds} {
		if d != "" {
			return timeutil.ParseDuration(string(d))
		}
	}
	return 0
}

// Active reports whether the entry describes a running timer.
func (e *Entry) Active() bool {
	return e != nil && (e.IsRunning || e.Start() != "")
}

// Project is a backend project.
type Project struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	TeamID      *int64      `json:"team_id"`
	Team        *ProjectRef `json:"team,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
}

// TeamRef returns the project team, read from team_id or the embedded team.
func (p *Project) TeamRef() *int64 {
	if p.TeamID != nil {
		return p.TeamID
	}
	if p.Team != nil {
		id := p.Team.ID
		return &id
	}
	return nil
}

// ProjectUpdate is the payload for editing a project. Nil fields are left
// unchanged.
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
	TeamID      *int64  `json:"team_id,omitempty"`
}

// NewUser is the signup payload.
type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewProject is the payload for creating a project.
type NewProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
	TeamID      *int64 `json:"team_id,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Tokens is the login response.
type Tokens struct {
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func entryPath(id int64) string {
	return "entries/" + strconv.FormatInt(id, 10) + "/"
}

func projectPath(id int64) string {
	return "projects/" + strconv.FormatInt(id, 10) + "/"
}
