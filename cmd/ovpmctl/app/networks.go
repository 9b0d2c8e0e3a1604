package app

import (
	"strings"

	"github.com/spf13/cobra"

	sdk "github.com/cad/ovpm/sdk/go"
)

func (a *App) netCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "net",
		Aliases: []string{"network", "networks"},
		Short:   "Manage networks reachable through the VPN",
	}
	cmd.AddCommand(
		a.netListCommand(),
		a.netDefineCommand(),
		a.netUndefineCommand(),
		a.netMembershipCommand("associate", "Grant a user access to a network", true),
		a.netMembershipCommand("dissociate", "Revoke a user's access to a network", false),
	)
	return cmd
}

func networkTable(nets []sdk.Network) Table {
	t := Table{Headers: []string{"Name", "CIDR", "Type", "Via", "Users"}}
	for _, n := range nets {
		t.Rows = append(t.Rows, []string{
			n.Name,
			n.CIDR,
			string(n.Type),
			orDash(n.Via),
			orDash(strings.Join(n.AssociatedUsernames, ", ")),
		})
	}
	return t
}

func (a *App) netListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List networks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			nets, err := session.Client().Networks.List(ctx)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(nets, networkTable(nets))
		},
	}
}

func (a *App) netDefineCommand() *cobra.Command {
	var (
		req     sdk.NetworkDefineRequest
		netType string
	)
	cmd := &cobra.Command{
		Use:   "define",
		Short: "Define a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			req.Type = sdk.NetworkType(strings.ToUpper(strings.TrimSpace(netType)))
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			network, err := session.Client().Networks.Define(ctx, req)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(network, networkTable([]sdk.Network{network}))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Name, "name", "n", "", "network name")
	f.StringVar(&req.CIDR, "cidr", "", "network in CIDR notation")
	f.StringVarP(&netType, "type", "t", string(sdk.NetworkServerNet), "SERVERNET or ROUTE")
	f.StringVar(&req.Via, "via", "", "gateway address for ROUTE networks")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("cidr")
	return cmd
}

func (a *App) netUndefineCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "undefine <name>",
		Aliases: []string{"rm"},
		Short:   "Undefine a network",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			if err := session.Client().Networks.Undefine(ctx, args[0]); err != nil {
				return a.observe(ctx, session, err)
			}
			a.printer().Message("Undefined %s", args[0])
			return nil
		},
	}
}

func (a *App) netMembershipCommand(use, short string, associate bool) *cobra.Command {
	var network, username string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			networks := session.Client().Networks
			if associate {
				err = networks.Associate(ctx, network, username)
			} else {
				err = networks.Dissociate(ctx, network, username)
			}
			if err != nil {
				return a.observe(ctx, session, err)
			}
			a.printer().Message("%s: %s %sd", network, username, use)
			return nil
		},
	}
	cmd.Flags().StringVarP(&network, "net", "n", "", "network name")
	cmd.Flags().StringVarP(&username, "user", "u", "", "username")
	_ = cmd.MarkFlagRequired("net")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
