package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	sdk "github.com/cad/ovpm/sdk/go"
)

func (a *App) vpnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpn",
		Short: "Inspect and control the OpenVPN server",
	}
	cmd.AddCommand(a.vpnStatusCommand(), a.vpnRestartCommand(), a.vpnWatchCommand())
	return cmd
}

func (a *App) vpnStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show VPN server settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			status, err := session.Client().VPN.Status(ctx)
			if err != nil {
				return a.observe(ctx, session, err)
			}
			return a.printer().Print(status, Table{
				Headers: []string{"Field", "Value"},
				Rows: [][]string{
					{"Name", status.Name},
					{"Hostname", status.Hostname},
					{"Port", status.Port},
					{"Proto", status.Proto},
					{"Network", status.Net},
					{"Netmask", status.Mask},
					{"DNS", orDash(status.DNS)},
					{"Created", orDash(status.CreatedAt)},
				},
			})
		},
	}
}

func (a *App) vpnRestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the OpenVPN process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			if err := session.Client().VPN.Restart(ctx); err != nil {
				return a.observe(ctx, session, err)
			}
			a.printer().Message("VPN restarted")
			return nil
		},
	}
}

// vpnGauges are the server-side figures exported by `vpn watch`.
type vpnGauges struct {
	up        prometheus.Gauge
	users     prometheus.Gauge
	connected prometheus.Gauge
	networks  prometheus.Gauge
}

func newVPNGauges(reg prometheus.Registerer) (*vpnGauges, error) {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ovpm", Subsystem: "vpn", Name: name, Help: help})
	}
	g := &vpnGauges{
		up:        gauge("up", "1 when the last poll of the VPN server succeeded."),
		users:     gauge("users", "Number of VPN users."),
		connected: gauge("users_connected", "Number of VPN users currently connected."),
		networks:  gauge("networks", "Number of defined networks."),
	}
	for _, c := range []prometheus.Collector{g.up, g.users, g.connected, g.networks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// snapshot is one poll of the server.
type snapshot struct {
	Server    string `json:"server"`
	Users     int    `json:"users"`
	Connected int    `json:"connected"`
	Networks  int    `json:"networks"`
}

func poll(ctx context.Context, client *sdk.Client) (snapshot, error) {
	status, err := client.VPN.Status(ctx)
	if err != nil {
		return snapshot{}, err
	}
	users, err := client.Users.List(ctx)
	if err != nil {
		return snapshot{}, err
	}
	nets, err := client.Networks.List(ctx)
	if err != nil {
		return snapshot{}, err
	}
	snap := snapshot{Server: status.Name, Users: len(users), Networks: len(nets)}
	for _, u := range users {
		if u.IsConnected {
			snap.Connected++
		}
	}
	return snap, nil
}

func (g *vpnGauges) record(snap snapshot, err error) {
	if err != nil {
		g.up.Set(0)
		return
	}
	g.up.Set(1)
	g.users.Set(float64(snap.Users))
	g.connected.Set(float64(snap.Connected))
	g.networks.Set(float64(snap.Networks))
}

func (a *App) vpnWatchCommand() *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the server and export its state as Prometheus metrics",
		Long: `Poll the VPN status, users and networks on an interval. Gauges and the
client's own request metrics are served on --metrics-addr under /metrics.
An empty --metrics-addr disables the exporter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			ctx := cmd.Context()
			session, err := a.Session(ctx)
			if err != nil {
				return err
			}
			gauges, err := newVPNGauges(a.registry)
			if err != nil {
				return err
			}
			if addr := a.config.MetricsAddr; addr != "" {
				stop, err := a.serveMetrics(addr)
				if err != nil {
					return err
				}
				defer stop()
			}
			return a.watch(ctx, session, gauges, interval, count)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "poll interval")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many polls (0 runs until interrupted)")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "listen address for the /metrics endpoint")
	return cmd
}

func (a *App) watch(ctx context.Context, session *sdk.Session, gauges *vpnGauges, interval time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	out := a.printer()
	for polls := 1; ; polls++ {
		snap, err := poll(ctx, session.Client())
		gauges.record(snap, err)
		switch {
		case err != nil && sdk.IsUnauthorized(err):
			return a.observe(ctx, session, err)
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			a.logger.Warn().Err(err).Msg("poll failed")
		default:
			a.logger.Debug().Int("users", snap.Users).Int("connected", snap.Connected).Int("networks", snap.Networks).Msg("poll")
			if out.Format == FormatTable {
				out.Message("%s  %s  users=%d connected=%d networks=%d",
					time.Now().Format(time.TimeOnly), snap.Server, snap.Users, snap.Connected, snap.Networks)
			} else if err := out.Print(snap, Table{}); err != nil {
				return err
			}
		}
		if count > 0 && polls >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// serveMetrics starts the exporter and returns a function that stops it.
func (a *App) serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server")
		}
	}()
	a.logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
