package sdk

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultUserAgent = "ovpm-sdk-go/" + Version

// Config wires the base URL, endpoint table, credentials and telemetry for the
// API client.
type Config struct {
	BaseURL    string
	Endpoints  EndpointTable
	AuthToken  string
	HTTPClient *http.Client
	Telemetry  TelemetryHooks
	UserAgent  string
}

// Option mutates a Config before validation.
type Option func(*Config)

// WithBaseURL sets the URL every resolved endpoint path is appended to.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) { c.BaseURL = baseURL }
}

// WithEndpoints sets the endpoint table.
func WithEndpoints(table EndpointTable) Option {
	return func(c *Config) { c.Endpoints = table }
}

// WithAuthToken sets the initial bearer token.
func WithAuthToken(token string) Option {
	return func(c *Config) { c.AuthToken = token }
}

// WithHTTPClient overrides the transport. Defaults to http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithTelemetry installs observability hooks.
func WithTelemetry(hooks TelemetryHooks) Option {
	return func(c *Config) { c.Telemetry = hooks }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

// Client invokes named endpoints of an OVPM REST API.
type Client struct {
	baseURL    string
	endpoints  EndpointTable
	compiled   map[string]compiledEndpoint
	httpClient *http.Client
	token      tokenHolder
	telemetry  TelemetryHooks
	userAgent  string

	// Grouped service clients.
	Auth     *AuthClient
	Users    *UsersClient
	Networks *NetworksClient
	VPN      *VPNClient
}

var _ Caller = (*Client)(nil)

// New builds a client from a base URL and endpoint table.
func New(baseURL string, endpoints EndpointTable, opts ...Option) (*Client, error) {
	return NewClient(Config{BaseURL: baseURL, Endpoints: endpoints}, opts...)
}

// NewClient validates the configuration and returns a ready-to-use Client.
// Validation is eager: a malformed endpoint table, base URL or token fails
// here, before any request can be made.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	normalized, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	compiled, err := compileEndpoints(cfg.Endpoints)
	if err != nil {
		return nil, err
	}
	token := ""
	if cfg.AuthToken != "" {
		token = normalizeToken(cfg.AuthToken)
		if token == "" {
			return nil, ConfigError{Reason: "auth token must not be blank"}
		}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	client := &Client{
		baseURL:    normalized,
		endpoints:  cfg.Endpoints,
		compiled:   compiled,
		httpClient: httpClient,
		telemetry:  cfg.Telemetry,
		userAgent:  ua,
	}
	client.token.set(token)
	bindServices(client, client)
	return client, nil
}

func bindServices(c *Client, caller Caller) {
	c.Auth = &AuthClient{caller: caller}
	c.Users = &UsersClient{caller: caller}
	c.Networks = &NetworksClient{caller: caller}
	c.VPN = &VPNClient{caller: caller}
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ConfigError{Reason: "base URL required"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ConfigError{Reason: fmt.Sprintf("invalid base URL: %v", err)}
	}
	if u.Scheme == "" {
		return "", ConfigError{Reason: "base URL missing scheme (http/https)"}
	}
	if u.Host == "" {
		return "", ConfigError{Reason: "base URL missing host"}
	}
	if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return "", ConfigError{Reason: "base URL must not carry a query or fragment"}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Endpoints returns the table the client was built with. It is shared, not copied.
func (c *Client) Endpoints() EndpointTable { return c.endpoints }

// SetAuthToken replaces the bearer token used by subsequent authenticated
// calls. Calls already in flight keep the token they started with.
func (c *Client) SetAuthToken(token string) error {
	normalized := normalizeToken(token)
	if normalized == "" {
		return ConfigError{Reason: "auth token must not be blank"}
	}
	c.token.set(normalized)
	return nil
}

// ClearAuthToken forgets the stored token.
func (c *Client) ClearAuthToken() {
	c.token.set("")
}

// AuthToken returns the stored token and whether one is set.
func (c *Client) AuthToken() (string, bool) {
	return c.token.get()
}

func (c *Client) lookup(name string) (compiledEndpoint, error) {
	if c == nil {
		return compiledEndpoint{}, errors.New("sdk: client is nil")
	}
	ep, ok := c.compiled[name]
	if !ok {
		return compiledEndpoint{}, UnknownEndpointError{Name: name, Known: c.endpoints.Names()}
	}
	return ep, nil
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
