package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/printers"
)

func addProjects(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects entries can be tracked against.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			projects, err := e.svc.Projects(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(projects)
			}
			pp := printers.PrettyPrint{}
			pp.Projects(projects)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	addProjectCreate(cmd)
	addProjectEdit(cmd)
	addProjectDelete(cmd)
	topLevel.AddCommand(cmd)
}

func addProjectCreate(parent *cobra.Command) {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project.",
		Example: `
tickr projects create Website --description "marketing site rebuild"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			p, err := e.svc.CreateProject(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(p)
			}
			_, _ = fmt.Fprintf(color.Output, "Created project #%d: %s\n", p.ID, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Project description.")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addProjectEdit(parent *cobra.Command) {
	var (
		name        string
		description string
		kind        string
		team        int64
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the name, description, type or team of a project.",
		Example: `
tickr projects edit 4 --name Operations
tickr projects edit 4 --type group --team 2
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := parseID(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			changes := app.ProjectChanges{}
			flags := cmd.Flags()
			if flags.Changed("name") {
				changes.Name = &name
			}
			if flags.Changed("description") {
				changes.Description = &description
			}
			if flags.Changed("type") {
				changes.Type = &kind
			}
			if flags.Changed("team") {
				changes.TeamID = &team
			}

			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			p, err := e.svc.UpdateProject(cmd.Context(), id, changes)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(p)
			}
			_, _ = fmt.Fprintf(color.Output, "Updated project #%d: %s\n", p.ID, p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New project name.")
	cmd.Flags().StringVar(&description, "description", "", "New project description.")
	cmd.Flags().StringVar(&kind, "type", "", "Project type, personal or group.")
	cmd.Flags().Int64Var(&team, "team", 0, "Team id for a group project.")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addProjectDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project.",
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

			if err := e.svc.DeleteProject(cmd.Context(), id); err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(map[string]any{"deleted": id})
			}
			_, _ = fmt.Fprintf(color.Output, "Deleted project #%d\n", id)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}
