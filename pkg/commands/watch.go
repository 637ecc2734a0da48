package commands

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/runner/watch"
	"tableflip.dev/tickr/pkg/tracker"
)

func addWatch(topLevel *cobra.Command) {
	var (
		live bool
		poll time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live, ticking view of the timer.",
		Long: `Watch shows the running clock and the entry it belongs to. Press p to pause,
r to resume, s to stop and q to quit. Changes made by other tickr commands
show up immediately. With --live the server's active entry is adopted every
poll interval.`,
		Example: `
tickr watch
tickr watch --live --poll 30s
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			relay := &watch.Relay{}
			e, err := loadEnv(tracker.WithNotify(relay.Notify))
			if err != nil {
				return err
			}
			defer e.Close()

			interval := poll
			if interval <= 0 {
				interval = e.cfg.PollInterval
			}
			r := watch.Runner{
				App:          e.svc,
				Relay:        relay,
				Live:         live,
				PollInterval: interval,
			}
			return r.Do(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "Poll the server and follow its active entry.")
	cmd.Flags().DurationVar(&poll, "poll", 0, "Polling interval for --live (defaults to poll-interval from config).")
	topLevel.AddCommand(cmd)
}
