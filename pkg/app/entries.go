package app

import (
	"context"
	"strings"

	"tableflip.dev/tickr/pkg/api"
)

// DefaultPerPage is the entries page size.
const DefaultPerPage = 10

// EntryPage is one page of completed entries.
type EntryPage struct {
	Entries []api.Entry
	Page    int
	Pages   int
	Total   int
}

// Entries lists completed entries, newest first as the server returns them,
// split into pages of perPage. Running entries are left out. Pages are
// 1-based and out-of-range pages are clamped.
func (s *Service) Entries(ctx context.Context, page, perPage int) (EntryPage, error) {
	if s.Backend == nil {
		return EntryPage{}, ErrNoBackend
	}
	all, err := s.Backend.Entries(ctx)
	if err != nil {
		return EntryPage{}, err
	}
	done := make([]api.Entry, 0, len(all))
	for _, e := range all {
		if !e.IsRunning {
			done = append(done, e)
		}
	}
	return paginate(done, page, perPage), nil
}

func paginate(entries []api.Entry, page, perPage int) EntryPage {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(entries)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	first := (page - 1) * perPage
	last := first + perPage
	if last > total {
		last = total
	}
	return EntryPage{
		Entries: entries[first:last],
		Page:    page,
		Pages:   pages,
		Total:   total,
	}
}

// Edit changes the description of a recorded entry.
func (s *Service) Edit(ctx context.Context, id int64, description string) (*api.Entry, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	return s.Backend.UpdateEntry(ctx, id, description)
}

// Delete removes a recorded entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	return s.Backend.DeleteEntry(ctx, id)
}

// Projects lists the projects available to the user.
func (s *Service) Projects(ctx context.Context) ([]api.Project, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	return s.Backend.Projects(ctx)
}

// CreateProject adds a project.
func (s *Service) CreateProject(ctx context.Context, name, description string) (*api.Project, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.Backend.CreateProject(ctx, api.NewProject{
		Name:        name,
		Description: strings.TrimSpace(description),
	})
}

// ProjectChanges are the edits UpdateProject applies. Nil fields are kept.
type ProjectChanges struct {
	Name        *string
	Description *string
	Type        *string
	TeamID      *int64
}

// UpdateProject edits a project.
func (s *Service) UpdateProject(ctx context.Context, id int64, c ProjectChanges) (*api.Project, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	if c.Name == nil && c.Description == nil && c.Type == nil && c.TeamID == nil {
		return nil, ErrNothingToUpdate
	}
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		c.Name = &name
	}
	return s.Backend.UpdateProject(ctx, id, api.ProjectUpdate{
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
		TeamID:      c.TeamID,
	})
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	return s.Backend.DeleteProject(ctx, id)
}

// Signup registers an account and logs into it.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*api.User, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if _, err := s.Backend.Signup(ctx, api.NewUser{Username: username, Email: email, Password: password}); err != nil {
		return nil, err
	}
	return s.Login(ctx, email, password)
}

// Login authenticates against the backend and stores the access token.
func (s *Service) Login(ctx context.Context, email, password string) (*api.User, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	tokens, err := s.Backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if s.Persistence != nil {
		if err := s.Persistence.SetToken(tokens.AccessToken); err != nil {
			return nil, err
		}
	}
	return s.Backend.User(ctx)
}

// Logout forgets the stored access token.
func (s *Service) Logout() error {
	if s.Backend != nil {
		s.Backend.SetToken("")
	}
	if s.Persistence == nil {
		return nil
	}
	return s.Persistence.SetToken("")
}
