package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/tickr/pkg/commands/options"
	"tableflip.dev/tickr/pkg/printers"
)

func addLogin(topLevel *cobra.Command) {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in to the time-tracking server.",
		Example: `
tickr login
tickr login me@example.com
echo "$PASSWORD" | tickr login me@example.com --password-stdin
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			var email string
			if len(args) == 1 {
				email = strings.TrimSpace(args[0])
			}
			var err error
			if email == "" {
				if email, err = promptLine(cmd, "Email", false); err != nil {
					return output.HandleError(err)
				}
			}

			var password string
			if passwordStdin {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptLine(cmd, "Password", true)
			}
			if err != nil {
				return output.HandleError(err)
			}

			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			user, err := e.svc.Login(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(user)
			}
			pp := printers.PrettyPrint{}
			pp.User(user)
			return nil
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.svc.Logout(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(color.Output, "Signed out.")
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addSignup(topLevel *cobra.Command) {
	var (
		email         string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "signup [username]",
		Short: "Create an account on the time-tracking server and sign in.",
		Example: `
tickr signup
tickr signup sam --email sam@example.com
echo "$PASSWORD" | tickr signup sam --email sam@example.com --password-stdin
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			var username string
			if len(args) == 1 {
				username = strings.TrimSpace(args[0])
			}
			var err error
			if username == "" {
				if username, err = promptLine(cmd, "Username", false); err != nil {
					return output.HandleError(err)
				}
			}
			if strings.TrimSpace(email) == "" {
				if email, err = promptLine(cmd, "Email", false); err != nil {
					return output.HandleError(err)
				}
			}

			var password string
			if passwordStdin {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptLine(cmd, "Password", true)
			}
			if err != nil {
				return output.HandleError(err)
			}

			e, err := loadEnv()
			if err != nil {
				return output.HandleError(err)
			}
			defer e.Close()

			user, err := e.svc.Signup(cmd.Context(), username, email, password)
			if err != nil {
				return output.HandleError(err)
			}
			if output.Structured() {
				return output.Print(user)
			}
			pp := printers.PrettyPrint{}
			pp.User(user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email.")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
