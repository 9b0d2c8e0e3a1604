package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	sdk "github.com/cad/ovpm/sdk/go"
)

func (a *App) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users", "u"},
		Short:   "Manage VPN users",
	}
	cmd.AddCommand(
		a.userListCommand(),
		a.userCreateCommand(),
		a.userUpdateCommand(),
		a.userDeleteCommand(),
		a.userGenConfigCommand(),
	)
	return cmd
}

func userTable(users []sdk.User) Table {
	t := Table{Headers: []string{"Username", "IP", "Static", "Admin", "Gateway", "Connected", "Created"}}
	for _, u := range users {
		ip, static := u.StaticIP()
		if !static {
			ip = u.IPNet
		}
		t.Rows = append(t.Rows, []string{
			u.Username,
			orDash(ip),
			yesNo(static),
			yesNo(u.IsAdmin),
			yesNo(!u.NoGW),
			yesNo(u.IsConnected),
			orDash(u.CreatedAt),
		})
	}
	return t
}

func (a *App) userListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List VPN users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			users, err := session.Client().Users.List(ctx)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(users, userTable(users))
		},
	}
}

func (a *App) userCreateCommand() *cobra.Command {
	var req sdk.UserCreateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a VPN user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			if req.Password == "" {
				if req.Password, err = a.readSecret("Password for " + req.Username + ": "); err != nil {
					return err
				}
			}
			user, err := session.Client().Users.Create(ctx, req)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(user, userTable([]sdk.User{user}))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Username, "username", "u", "", "username")
	f.StringVarP(&req.Password, "password", "p", "", "password (prompted when empty)")
	f.StringVar(&req.StaticIP, "static", "", "allocate this static IPv4 address")
	f.BoolVar(&req.NoGW, "no-gw", false, "do not push the VPN as default gateway")
	f.BoolVar(&req.IsAdmin, "admin", false, "grant administrator rights")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *App) userUpdateCommand() *cobra.Command {
	var (
		req                      sdk.UserUpdateRequest
		gw, noGW, admin, noAdmin bool
		dynamic                  bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change a user's password or preferences",
		Long: `Change a user's password or preferences. Settings that are not given are
left unchanged on the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			switch {
			case gw:
				req.GWPref = sdk.GatewayPrefPush
			case noGW:
				req.GWPref = sdk.GatewayPrefNoPush
			}
			switch {
			case admin:
				req.AdminPref = sdk.AdminPrefAdmin
			case noAdmin:
				req.AdminPref = sdk.AdminPrefNoAdmin
			}
			if dynamic {
				req.StaticPref = sdk.StaticPrefNoStatic
			}
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			user, err := session.Client().Users.Update(ctx, req)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(user, userTable([]sdk.User{user}))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Username, "username", "u", "", "username")
	f.StringVarP(&req.Password, "password", "p", "", "new password")
	f.StringVar(&req.StaticIP, "static", "", "switch to this static IPv4 address")
	f.BoolVar(&dynamic, "dynamic", false, "switch to dynamic IP allocation")
	f.BoolVar(&gw, "gw", false, "push the VPN as default gateway")
	f.BoolVar(&noGW, "no-gw", false, "stop pushing the VPN as default gateway")
	f.BoolVar(&admin, "admin", false, "grant administrator rights")
	f.BoolVar(&noAdmin, "no-admin", false, "revoke administrator rights")
	_ = cmd.MarkFlagRequired("username")
	cmd.MarkFlagsMutuallyExclusive("gw", "no-gw")
	cmd.MarkFlagsMutuallyExclusive("admin", "no-admin")
	cmd.MarkFlagsMutuallyExclusive("static", "dynamic")
	return cmd
}

func (a *App) userDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <username>...",
		Aliases: []string{"rm"},
		Short:   "Delete VPN users",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			for _, username := range args {
				if err := session.Client().Users.Delete(ctx, username); err != nil {
					return a.observe(ctx, session, fmt.Errorf("delete %s: %w", username, err))
				}
				a.printer().Message("Deleted %s", username)
			}
			return nil
		},
	}
}

func (a *App) userGenConfigCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "genconfig <username>",
		Short: "Download a user's OpenVPN client profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			username := strings.TrimSpace(args[0])
			profile, err := session.Client().Users.GenConfig(ctx, username)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			if out == "" {
				_, err = fmt.Fprint(a.stdout, profile)
				return err
			}
			if out == "." {
				out = username + ".ovpn"
			}
			// The profile embeds the user's private key.
			if err := os.WriteFile(out, []byte(profile), 0o600); err != nil {
				return fmt.Errorf("write profile: %w", err)
			}
			a.logger.Info().Str("username", username).Str("file", out).Msg("profile written")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", `write to this file instead of stdout ("." for <username>.ovpn)`)
	return cmd
}
