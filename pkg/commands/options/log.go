package options

import (
	"github.com/spf13/cobra"
)

// LogOptions
type LogOptions struct {
	Day   bool
	Month bool
	Last  string
}

func AddLogArgs(cmd *cobra.Command, o *LogOptions) {
	cmd.Flags().BoolVarP(&o.Day, "day", "d", false,
		"Show the sessions of one day.")
	cmd.Flags().BoolVarP(&o.Month, "month", "m", false,
		"Show a month calendar of tracked time.")
	cmd.Flags().StringVar(&o.Last, "last", "",
		"Only sessions started within this window, for example 3d or 1w.")
}
