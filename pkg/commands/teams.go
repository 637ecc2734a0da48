package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/printers"
)

func addTeams(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List the teams you own or joined.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			teams, err := e.svc.Teams(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(teams)
			}
			pp := printers.PrettyPrint{}
			pp.Teams(teams)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	addTeamCreate(cmd)
	addTeamDelete(cmd)
	addTeamMembers(cmd)
	addTeamInvite(cmd)
	addTeamJoin(cmd)
	addTeamPair(cmd, "remove <team-id> <user-id>", "Remove a member from a team.",
		"Removed user #%d from team #%d\n", "user",
		func(ctx context.Context, e *env, team, other int64) error {
			return e.svc.RemoveMember(ctx, team, other)
		})
	addTeamPair(cmd, "assign <team-id> <project-id>", "Move a project into a team.",
		"Assigned project #%d to team #%d\n", "project",
		func(ctx context.Context, e *env, team, other int64) error {
			return e.svc.AssignProject(ctx, team, other)
		})
	addTeamPair(cmd, "unassign <team-id> <project-id>", "Take a project out of a team.",
		"Unassigned project #%d from team #%d\n", "project",
		func(ctx context.Context, e *env, team, other int64) error {
			return e.svc.UnassignProject(ctx, team, other)
		})
	topLevel.AddCommand(cmd)
}

func addTeamCreate(parent *cobra.Command) {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a team.",
		Example: `
tickr teams create Platform --description "infra and tooling"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			t, err := e.svc.CreateTeam(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(t)
			}
			_, _ = fmt.Fprintf(color.Output, "Created team #%d: %s\n", t.ID, t.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Team description.")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTeamDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a team.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := parseID(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			if err := e.svc.DeleteTeam(cmd.Context(), id); err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(map[string]any{"deleted": id})
			}
			_, _ = fmt.Fprintf(color.Output, "Deleted team #%d\n", id)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTeamMembers(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "members <id>",
		Short: "List the members of a team.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := parseID(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			members, err := e.svc.TeamMembers(cmd.Context(), id)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(members)
			}
			pp := printers.PrettyPrint{}
			pp.Members(fmt.Sprintf("Team #%d", id), members)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTeamInvite(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "invite <id>",
		Short: "Create an invitation to a team.",
		Long:  "Prints the invitation link or code to share. The recipient joins with `tickr teams join`.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := parseID(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			link, err := e.svc.InviteMember(cmd.Context(), id)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(map[string]any{"team": id, "invite": link})
			}
			_, _ = fmt.Fprintln(color.Output, link)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTeamJoin(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "join <invite>",
		Short: "Accept a team invitation by link or code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			t, err := e.svc.JoinTeam(cmd.Context(), args[0])
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(t)
			}
			name := t.Name
			if name == "" {
				name = "the team"
			}
			_, _ = fmt.Fprintf(color.Output, "Joined %s\n", name)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

// addTeamPair registers a subcommand taking a team id and one other id.
func addTeamPair(parent *cobra.Command, use, short, done, other string, fn func(context.Context, *env, int64, int64) error) {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			team, err := parseID(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			id, err := parseID(args[1])
			if err != nil {
				return output.HandleError(err)
			}
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			if err := fn(cmd.Context(), e, team, id); err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(map[string]any{"team": team, other: id})
			}
			_, _ = fmt.Fprintf(color.Output, done, id, team)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}
