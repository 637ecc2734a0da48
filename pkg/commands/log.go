package commands

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/runner/log"
	"tableflip.dev/tickr/pkg/timeutil"
)

func addLog(topLevel *cobra.Command) {
	lo := &options.LogOptions{}
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show sessions recorded on this machine.",
		Example: `
tickr log
tickr log --day
tickr log --month --on 2025-4-1
tickr log --last 3d
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			on, err := oo.GetOn()
			if err != nil {
				return output.HandleError(err)
			}
			if on == nil {
				now := time.Now()
				on = &now
			}
			var window time.Duration
			if lo.Last != "" {
				if window, _, err = timeutil.ParseWindow(lo.Last); err != nil {
					return output.HandleError(err)
				}
			}

			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			s := log.Log{
				App:    e.svc,
				Day:    lo.Day,
				Month:  lo.Month,
				Window: window,
				On:     *on,
			}
			if output.Structured() {
				s.Structured = output.Print
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	options.AddLogArgs(cmd, lo)
	options.AddOnArgs(cmd, oo)
	options.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}
