package commands

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/printers"
	"tableflip.dev/tickr/pkg/timeutil"
	"tableflip.dev/tickr/pkg/view"
)

func addReport(topLevel *cobra.Command) {
	var (
		last string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize tracked time per project.",
		Long: `Report totals recorded entries per project within the specified time window,
plus the running entry if there is one.

Examples:
  tickr report
  tickr report --last 3d
  tickr report --last 1w2d
  tickr report --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			var since, until time.Time
			if !all {
				window, _, err := timeutil.ParseWindow(last)
				if err != nil {
					return output.HandleError(err)
				}
				until = time.Now()
				since = until.Add(-window)
			}

			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			result, err := e.svc.Report(cmd.Context(), since, until)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(view.FromReport(result))
			}
			pp := printers.PrettyPrint{}
			pp.Report(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&last, "last", timeutil.DefaultWindow, "time window to include (for example 3d, 1w)")
	cmd.Flags().BoolVar(&all, "all", false, "include every entry regardless of date")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
