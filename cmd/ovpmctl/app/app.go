// Package app wires configuration, logging, the SDK session and the cobra
// command tree of ovpmctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	sdk "github.com/cad/ovpm/sdk/go"
	"github.com/cad/ovpm/sdk/go/telemetry"
	"github.com/cad/ovpm/sdk/go/tokenstore"
)

// App holds the CLI's dependencies. The session is built lazily on first use
// so commands such as `endpoints` never touch the network or the session file.
type App struct {
	version string

	v      *viper.Viper
	config *Config
	logger zerolog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	httpClient *http.Client
	registry   *prometheus.Registry
	metrics    *telemetry.Metrics

	mu      sync.Mutex
	store   tokenstore.Store
	closer  io.Closer
	session *sdk.Session
}

// Option customizes an App.
type Option func(*App) error

// WithIO replaces the standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *App) error {
		a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
		return nil
	}
}

// WithTokenStore bypasses the session file.
func WithTokenStore(store tokenstore.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithHTTPClient sets the transport used for API calls. The configured
// timeout still applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) error {
		a.httpClient = hc
		return nil
	}
}

// New creates an App. Configuration is resolved once flags are parsed.
func New(version string, opts ...Option) (*App, error) {
	a := &App{
		version:  version,
		v:        newViper(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logger:   zerolog.Nop(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	metrics, err := telemetry.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = metrics
	return a, nil
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return &a.logger }

// Config returns the resolved configuration, nil before a command runs.
func (a *App) Config() *Config { return a.config }

// Registry returns the Prometheus registry SDK metrics are recorded in.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Session returns the SDK session, creating the client and restoring any
// saved token on first use.
func (a *App) Session(ctx context.Context) (*sdk.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		return a.session, nil
	}
	if a.config == nil {
		return nil, errors.New("configuration not loaded")
	}
	client, err := a.newClient()
	if err != nil {
		return nil, err
	}
	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}
	session, err := sdk.NewSession(client, sdk.WithTokenStore(store))
	if err != nil {
		return nil, err
	}
	user, err := session.Restore(ctx)
	switch {
	case errors.Is(err, sdk.ErrNoAuthToken):
		a.logger.Debug().Str("profile", a.config.Profile).Msg("no saved session")
	case err != nil:
		return nil, err
	default:
		a.logger.Debug().Str("profile", a.config.Profile).Str("username", user.Username).Msg("session restored")
	}
	a.session = session
	return session, nil
}

func (a *App) newClient() (*sdk.Client, error) {
	table := sdk.DefaultEndpoints()
	if a.config.EndpointsFile != "" {
		loaded, err := sdk.LoadEndpointsFile(a.config.EndpointsFile)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	hc := &http.Client{Timeout: a.config.Timeout}
	if a.httpClient != nil {
		custom := *a.httpClient
		custom.Timeout = a.config.Timeout
		hc = &custom
	}
	hooks := sdk.CombineTelemetry(telemetry.ZerologHooks(a.logger), a.metrics.Hooks())
	return sdk.New(a.config.URL, table,
		sdk.WithHTTPClient(hc),
		sdk.WithTelemetry(hooks),
		sdk.WithUserAgent("ovpmctl/"+a.version),
	)
}

func (a *App) tokenStore() (tokenstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.config.SessionFile == "" {
		a.store = tokenstore.NewMemoryStore()
		return a.store, nil
	}
	bolt, err := tokenstore.OpenBolt(a.config.SessionFile, a.config.Profile)
	if err != nil {
		return nil, err
	}
	a.store, a.closer = bolt, bolt
	return bolt, nil
}

// Shutdown releases the session file.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// observe lets the session react to err and adds a hint when the server
// rejected the stored credentials.
func (a *App) observe(ctx context.Context, session *sdk.Session, err error) error {
	if err == nil {
		return nil
	}
	err = session.Observe(ctx, err)
	if sdk.IsUnauthorized(err) {
		return fmt.Errorf("%w (session cleared, run `ovpmctl login`)", err)
	}
	return err
}
