package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/tickr/pkg/commands/options"
)

var (
	output = &options.OutputOptions{}
	debug  bool
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "tickr",
		Short: base.Wrap80("Track elapsed time against a time-tracking server from the command line."),
		Long: base.Wrap80("tickr starts, pauses, resumes and stops a timer for the entry you are " +
			"working on. The timer survives restarts and follows the server's active entry; " +
			"when the server cannot be reached it keeps timing locally."),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log storage and backend diagnostics to stderr.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addStart(topLevel)
	addPause(topLevel)
	addResume(topLevel)
	addStop(topLevel)
	addStatus(topLevel)
	addWatch(topLevel)
	addSync(topLevel)
	addEntries(topLevel)
	addEdit(topLevel)
	addDelete(topLevel)
	addReport(topLevel)
	addProjects(topLevel)
	addTeams(topLevel)
	addSignup(topLevel)
	addLogin(topLevel)
	addLogout(topLevel)
	addLog(topLevel)
	addInfo(topLevel)
	addServe(topLevel)
	addMCP(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}
