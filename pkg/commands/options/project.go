package options

import (
	"github.com/spf13/cobra"
)

// ProjectOptions
type ProjectOptions struct {
	ID int64
}

func AddProjectArg(cmd *cobra.Command, o *ProjectOptions) {
	cmd.Flags().Int64VarP(&o.ID, "project", "p", 0,
		"Project id to track against.")
}

// ProjectID is nil when no project was given.
func (o *ProjectOptions) ProjectID() *int64 {
	if o.ID <= 0 {
		return nil
	}
	id := o.ID
	return &id
}
