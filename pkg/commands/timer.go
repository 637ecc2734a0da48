package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/printers"
	"tableflip.dev/tickr/pkg/view"
)

func addStart(topLevel *cobra.Command) {
	po := &options.ProjectOptions{}
	interactive := &options.InteractiveOptions{}

	cmd := &cobra.Command{
		Use:   "start <description>",
		Short: "Start timing a new entry.",
		Example: `
tickr start write the quarterly report
tickr start --project 3 code review
tickr start -i pairing session
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a description")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			projectID := po.ProjectID()
			if interactive.Interactive && projectID == nil {
				projectID, err = pickProject(cmd, e.svc)
				if err != nil {
					return output.HandleError(err)
				}
			}

			st, err := e.svc.Start(cmd.Context(), strings.Join(args, " "), projectID)
			if err != nil {
				return output.HandleError(err)
			}
			return printStatus(st)
		},
	}

	options.AddProjectArg(cmd, po)
	options.InteractiveArgs(cmd, interactive)
	options.AddOutputArg(cmd, output)
	_ = cmd.RegisterFlagCompletionFunc("project", func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return projectCompletions(cmd.Context()), cobra.ShellCompDirectiveNoFileComp
	})

	topLevel.AddCommand(cmd)
}

// pickProject asks for a project from the server list. nil means none.
func pickProject(cmd *cobra.Command, svc *app.Service) (*int64, error) {
	projects, err := svc.Projects(cmd.Context())
	if err != nil {
		return nil, err
	}
	items := append([]api.Project{{Name: api.NoProject}}, projects...)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "➜  {{ .Name }} {{ .Description | cyan }}",
		Inactive: "   {{ .Name }} {{ .Description | cyan }}",
		Selected: "➜  {{ .Name | cyan }}",
	}
	searcher := func(input string, index int) bool {
		name := strings.ReplaceAll(strings.ToLower(items[index].Name), " ", "")
		input = strings.ReplaceAll(strings.ToLower(input), " ", "")
		return strings.Contains(name, input)
	}

	prompt := promptui.Select{
		HideHelp:  true,
		Label:     "Project",
		Items:     items,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
		Stdin:     io.NopCloser(cmd.InOrStdin()),
		Stdout:    nopCloser{cmd.OutOrStdout()},
	}
	i, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	if items[i].ID == 0 {
		return nil, nil
	}
	id := items[i].ID
	return &id, nil
}

func printStatus(st app.Status) error {
	if output.Structured() {
		return output.Print(view.FromStatus(st))
	}
	pp := printers.PrettyPrint{}
	pp.Status(st)
	return nil
}

func addPause(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			st, err := e.svc.Pause()
			if err != nil {
				return output.HandleError(err)
			}
			return printStatus(st)
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addResume(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused timer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			st, err := e.svc.Resume()
			if err != nil {
				return output.HandleError(err)
			}
			return printStatus(st)
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addStop(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer and record the session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			res, err := e.svc.Stop(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(view.FromStop(res))
			}
			pp := printers.PrettyPrint{}
			pp.Stopped(res)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addStatus(topLevel *cobra.Command) {
	var sync bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the timer.",
		Example: `
tickr status
tickr status --sync
tickr status -o yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			var st app.Status
			if sync {
				st, err = e.svc.Sync(cmd.Context())
			} else {
				st, err = e.svc.Status()
			}
			if err != nil {
				return output.HandleError(err)
			}
			return printStatus(st)
		},
	}

	cmd.Flags().BoolVar(&sync, "sync", false, "Adopt the server's active entry first.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addSync(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the timer with the server's active entry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			st, err := e.svc.Sync(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			return printStatus(st)
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func projectCompletions(ctx context.Context) []string {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := loadEnv()
	if err != nil {
		return nil
	}
	defer e.Close()
	projects, err := e.svc.Projects(ctx)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, fmt.Sprintf("%s\t%s", strconv.FormatInt(p.ID, 10), p.Name))
	}
	return out
}
