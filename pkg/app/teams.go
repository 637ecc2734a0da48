package app

import (
	"context"
	"strings"

	"tableflip.dev/tickr/pkg/api"
)

// Teams lists owned and joined teams.
func (s *Service) Teams(ctx context.Context) ([]api.Team, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	return s.Backend.Teams(ctx)
}

// CreateTeam adds a team owned by the user.
func (s *Service) CreateTeam(ctx context.Context, name, description string) (*api.Team, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.Backend.CreateTeam(ctx, api.NewTeam{
		Name:        name,
		Description: strings.TrimSpace(description),
	})
}

// DeleteTeam removes a team.
func (s *Service) DeleteTeam(ctx context.Context, id int64) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	return s.Backend.DeleteTeam(ctx, id)
}

// TeamMembers lists the members of a team, owner first.
func (s *Service) TeamMembers(ctx context.Context, id int64) ([]api.Member, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	teams, err := s.Backend.Teams(ctx)
	if err != nil {
		return nil, err
	}
	var team *api.Team
	for i := range teams {
		if teams[i].ID == id {
			team = &teams[i]
			break
		}
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	members, err := s.Backend.TeamMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return team.WithOwner(members), nil
}

// InviteMember issues an invitation to a team and returns its link or code.
func (s *Service) InviteMember(ctx context.Context, id int64) (string, error) {
	if s.Backend == nil {
		return "", ErrNoBackend
	}
	return s.Backend.InviteMember(ctx, id)
}

// JoinTeam accepts an invitation. token may be the bare token or an invite
// link ending in it.
func (s *Service) JoinTeam(ctx context.Context, token string) (*api.Team, error) {
	if s.Backend == nil {
		return nil, ErrNoBackend
	}
	token = inviteToken(token)
	if token == "" {
		return nil, ErrTeamNotFound
	}
	return s.Backend.AcceptInvite(ctx, token)
}

func inviteToken(v string) string {
	v = strings.Trim(strings.TrimSpace(v), "/")
	if i := strings.LastIndex(v, "/"); i >= 0 {
		v = v[i+1:]
	}
	return v
}

// RemoveMember drops a user from a team.
func (s *Service) RemoveMember(ctx context.Context, id, userID int64) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	return s.Backend.RemoveMember(ctx, id, userID)
}

// AssignProject moves a project into a team.
func (s *Service) AssignProject(ctx context.Context, id, projectID int64) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	return s.Backend.AssignProject(ctx, id, projectID)
}

// UnassignProject takes a project out of a team.
func (s *Service) UnassignProject(ctx context.Context, id, projectID int64) error {
	if s.Backend == nil {
		return ErrNoBackend
	}
	return s.Backend.UnassignProject(ctx, id, projectID)
}
