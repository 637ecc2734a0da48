package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/printers"
	"tableflip.dev/tickr/pkg/view"
)

func addEntries(topLevel *cobra.Command) {
	var (
		page    int
		perPage int
		showID  bool
	)

	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"ls"},
		Short:   "List recorded entries, newest first.",
		Example: `
tickr entries
tickr entries --page 2 --per-page 20
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			p, err := e.svc.Entries(cmd.Context(), page, perPage)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(view.FromPage(p))
			}
			pp := printers.PrettyPrint{ShowID: showID}
			pp.Entries(p)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to show, starting at 1.")
	cmd.Flags().IntVar(&perPage, "per-page", app.DefaultPerPage, "Entries per page.")
	cmd.Flags().BoolVar(&showID, "id", false, "Indent titles to line up with entry ids.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func addEdit(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "edit <id> <description>",
		Short: "Change the description of a recorded entry.",
		Example: `
tickr edit 42 wrote the quarterly report
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("requires an entry id and a description")
			}
			return nil
		},
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

			entry, err := e.svc.Edit(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(view.FromEntry(entry))
			}
			_, _ = fmt.Fprintf(color.Output, "Updated #%d: %s\n", entry.ID, entry.Description)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a recorded entry.",
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

			if err := e.svc.Delete(cmd.Context(), id); err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(map[string]any{"deleted": id})
			}
			_, _ = fmt.Fprintf(color.Output, "Deleted #%d\n", id)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
