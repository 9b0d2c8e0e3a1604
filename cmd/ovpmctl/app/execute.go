package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Execute runs ovpmctl with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "ovpmctl",
		Short:   "Administer an OVPM VPN server over its REST API",
		Version: a.version,
		Long: `ovpmctl manages the users, networks and OpenVPN server of an OVPM
daemon through its REST API.

Run "ovpmctl login" first. The session token is saved per profile and reused
until the server rejects it.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default is $HOME/.ovpmctl.yaml)")
	f.String("url", defaultURL, "OVPM REST API base URL")
	f.String("profile", defaultProfile, "session profile, one per server")
	f.String("session-file", "", "session database (default is $HOME/.ovpmctl.db)")
	f.String("endpoints-file", "", "YAML endpoint table overriding the built-in catalog")
	f.Duration("timeout", defaultTimeout, "per-request timeout")
	f.String("log-level", "", "log level: trace, debug, info, warn, error")
	f.String("log-format", "", "log format: auto, console, json")
	f.StringP("output", "o", "", "output format: table, json, yaml")

	root.SetVersionTemplate("ovpmctl {{.Version}}\n")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.userCommand(),
		a.netCommand(),
		a.vpnCommand(),
		a.endpointsCommand(),
		a.callCommand(),
	)
	return root
}

// setup resolves configuration once flags are parsed.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := LoadConfig(a.v)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cfg, a.stderr)
	if err != nil {
		return err
	}
	a.config = cfg
	a.logger = logger
	a.logger.Debug().
		Str("config_file", cfg.ConfigFile).
		Str("url", cfg.URL).
		Str("profile", cfg.Profile).
		Msg("configuration loaded")
	return nil
}

func (a *App) printer() Printer {
	format, err := ParseFormat(a.config.Output)
	if err != nil {
		format = FormatTable
	}
	return Printer{Format: format, Out: a.stdout}
}

// readSecret prompts on stderr and reads one line from stdin.
func (a *App) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.stderr, prompt)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("empty input")
	}
	return secret, nil
}
