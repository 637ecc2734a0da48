package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// Owner is the account that owns a team.
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Member is one user in a team.
type Member struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at,omitempty"`
}

// RoleOwner marks the team owner in a member list.
const RoleOwner = "owner"

// Team is a backend team.
type Team struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Owner         Owner    `json:"owner"`
	OwnerUsername string   `json:"owner_username,omitempty"`
	Members       []Member `json:"members"`
	MemberCount   int      `json:"member_count"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// WithOwner returns members with the team owner listed first when the
// backend left the owner out.
func (t *Team) WithOwner(members []Member) []Member {
	if t.Owner.ID == 0 {
		return members
	}
	for _, m := range members {
		if m.UserID == t.Owner.ID {
			return members
		}
	}
	owner := Member{
		ID:       -1,
		UserID:   t.Owner.ID,
		Username: t.Owner.Username,
		Email:    t.Owner.Email,
		Role:     RoleOwner,
		JoinedAt: t.CreatedAt,
	}
	return append([]Member{owner}, members...)
}

// NewTeam is the payload for creating a team.
type NewTeam struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Invitation is what the invite endpoint returns. The backend has used
// several field names for the link over time.
type Invitation struct {
	InviteLink     string `json:"invite_link"`
	InvitationLink string `json:"invitation_link"`
	Link           string `json:"link"`
	URL            string `json:"url"`
	InvitationCode string `json:"invitation_code"`
	Code           string `json:"code"`
}

// Value returns the first populated link or code.
func (i *Invitation) Value() string {
	for _, v := range []string{i.InviteLink, i.InvitationLink, i.Link, i.URL, i.InvitationCode, i.Code} {
		if v != "" {
			return v
		}
	}
	return ""
}

func teamPath(id int64, rest string) string {
	return "teams/" + strconv.FormatInt(id, 10) + "/" + rest
}

// Teams lists teams the user owns followed by teams they joined. The joined
// list is best effort; older backends do not serve it.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	owned := make([]Team, 0)
	if err := c.call(ctx, http.MethodGet, "teams/", nil, &owned); err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(owned))
	for i := range owned {
		owned[i].Members = owned[i].WithOwner(owned[i].Members)
		seen[owned[i].ID] = true
	}

	joined := make([]Team, 0)
	if err := c.call(ctx, http.MethodGet, "teams/joined/", nil, &joined); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return owned, nil
	}
	for _, t := range joined {
		if seen[t.ID] {
			continue
		}
		t.Members = t.WithOwner(t.Members)
		owned = append(owned, t)
	}
	return owned, nil
}

// CreateTeam creates a team owned by the user.
func (c *Client) CreateTeam(ctx context.Context, t NewTeam) (*Team, error) {
	out := &Team{}
	if err := c.call(ctx, http.MethodPost, "teams/", t, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTeam removes team id.
func (c *Client) DeleteTeam(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, teamPath(id, ""), nil, nil)
}

// TeamMembers lists the members of team id as the backend reports them.
func (c *Client) TeamMembers(ctx context.Context, id int64) ([]Member, error) {
	members := make([]Member, 0)
	if err := c.call(ctx, http.MethodGet, teamPath(id, "members/"), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// InviteMember asks the backend for an invitation to team id and returns
// the link or code it issued.
func (c *Client) InviteMember(ctx context.Context, id int64) (string, error) {
	out := &Invitation{}
	if err := c.call(ctx, http.MethodPost, teamPath(id, "invite/"), struct{}{}, out); err != nil {
		return "", err
	}
	link := out.Value()
	if link == "" {
		return "", errors.New("api: invitation created but no link returned")
	}
	return link, nil
}

// AcceptInvite joins the team behind an invitation token and returns it.
func (c *Client) AcceptInvite(ctx context.Context, token string) (*Team, error) {
	out := struct {
		Team *Team `json:"team"`
	}{}
	endpoint := "teams/invitations/" + url.PathEscape(token) + "/accept/"
	if err := c.call(ctx, http.MethodPost, endpoint, nil, &out); err != nil {
		return nil, err
	}
	if out.Team == nil {
		return &Team{}, nil
	}
	return out.Team, nil
}

// RemoveMember drops user from team id.
func (c *Client) RemoveMember(ctx context.Context, id, userID int64) error {
	in := struct {
		UserID int64 `json:"user_id"`
	}{UserID: userID}
	return c.call(ctx, http.MethodDelete, teamPath(id, "remove-member/"), in, nil)
}

// AssignProject moves a project into team id.
func (c *Client) AssignProject(ctx context.Context, id, projectID int64) error {
	return c.teamProject(ctx, teamPath(id, "assign-project/"), projectID)
}

// UnassignProject takes a project out of team id.
func (c *Client) UnassignProject(ctx context.Context, id, projectID int64) error {
	return c.teamProject(ctx, teamPath(id, "unassign-project/"), projectID)
}

func (c *Client) teamProject(ctx context.Context, endpoint string, projectID int64) error {
	in := struct {
		ProjectID int64 `json:"project_id"`
	}{ProjectID: projectID}
	if err := c.call(ctx, http.MethodPost, endpoint, in, nil); err != nil {
		return err
	}
	c.cache.Remove("projects/")
	return nil
}
