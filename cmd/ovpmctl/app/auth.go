package app

import (
	"errors"

	"github.com/spf13/cobra"
)

func (a *App) loginCommand() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and save the session token",
		Long: `Authenticate against the server and save the token for the current profile.

Without --username, ovpmctl asks the server who it is talking to; a local
root caller is logged in without a password. The password is read from
--password, OVPM_PASSWORD or a prompt, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			out := a.printer()
			if username == "" {
				user, isRoot, err := session.Probe(ctx)
				if err != nil {
					return err
				}
				if !isRoot {
					return errors.New("--username is required when not running as local root")
				}
				out.Message("Logged in as %s (local)", user.Username)
				return nil
			}
			if password == "" {
				password = a.v.GetString("password")
			}
			if password == "" {
				if password, err = a.readSecret("Password: "); err != nil {
					return err
				}
			}
			user, err := session.Login(ctx, username, password)
			if err != nil {
				return err
			}
			a.logger.Info().Str("username", user.Username).Str("profile", a.config.Profile).Msg("logged in")
			out.Message("Logged in as %s", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.Session(cmd.Context())
			if err != nil {
				return err
			}
			if err := session.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printer().Message("Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the saved token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			if !session.IsAuthenticated() {
				return errors.New("not logged in, run `ovpmctl login`")
			}
			user, err := session.Client().Auth.Status(ctx)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(user, Table{
				Headers: []string{"Username", "Admin", "Profile"},
				Rows:    [][]string{{user.Username, yesNo(user.IsAdmin), a.config.Profile}},
			})
		},
	}
}
