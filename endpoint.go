package sdk

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Method is the HTTP verb an endpoint is invoked with.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

// AllMethods lists the verbs an Endpoint may declare.
func AllMethods() []Method {
	return []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions}
}

// ParseMethod normalizes a verb name. Unknown verbs are rejected.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported HTTP method %q", raw)
	}
	return m, nil
}

// Valid reports whether m is one of AllMethods.
func (m Method) Valid() bool {
	for _, known := range AllMethods() {
		if m == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (m Method) String() string { return string(m) }

// bodyless reports whether an empty payload should be sent without a request body.
func (m Method) bodyless() bool {
	return m == MethodGet || m == MethodHead || m == MethodDelete
}

// Endpoint is a named remote operation: a path template plus an HTTP verb.
type Endpoint struct {
	Path   string `json:"path" yaml:"path"`
	Method Method `json:"method" yaml:"method"`
}

// Validate checks that the endpoint has a well-formed path template and a supported verb.
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("path is required")
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("path %q must start with '/'", e.Path)
	}
	if strings.TrimSpace(string(e.Method)) == "" {
		return fmt.Errorf("method is required")
	}
	if !e.Method.Valid() {
		return fmt.Errorf("unsupported HTTP method %q", e.Method)
	}
	if _, err := parsePathTemplate(e.Path); err != nil {
		return err
	}
	return nil
}

// EndpointTable maps endpoint names to their descriptors. A table may be shared
// by several clients; clients never modify it.
type EndpointTable map[string]Endpoint

// Validate checks every entry, reporting the first offending endpoint by name.
// Names are visited in sorted order so the reported entry is stable.
func (t EndpointTable) Validate() error {
	if t == nil {
		return ConfigError{Reason: "endpoint table is required"}
	}
	if len(t) == 0 {
		return ConfigError{Reason: "endpoint table is empty"}
	}
	for _, name := range t.Names() {
		if strings.TrimSpace(name) == "" {
			return ConfigError{Reason: "endpoint name must not be empty"}
		}
		if err := t[name].Validate(); err != nil {
			return ConfigError{Reason: fmt.Sprintf("endpoint %q: %v", name, err)}
		}
	}
	return nil
}

// Names returns the endpoint names in sorted order.
func (t EndpointTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the endpoint registered under name.
func (t EndpointTable) Lookup(name string) (Endpoint, bool) {
	ep, ok := t[name]
	return ep, ok
}

// Clone returns a shallow copy of the table.
func (t EndpointTable) Clone() EndpointTable {
	if t == nil {
		return nil
	}
	out := make(EndpointTable, len(t))
	for name, ep := range t {
		out[name] = ep
	}
	return out
}

// compiledEndpoint is an endpoint whose path template has been parsed once at
// client construction.
type compiledEndpoint struct {
	name     string
	endpoint Endpoint
	template pathTemplate
}

func compileEndpoints(t EndpointTable) (map[string]compiledEndpoint, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]compiledEndpoint, len(t))
	for name, ep := range t {
		tmpl, err := parsePathTemplate(ep.Path)
		if err != nil {
			return nil, ConfigError{Reason: fmt.Sprintf("endpoint %q: %v", name, err)}
		}
		out[name] = compiledEndpoint{name: name, endpoint: ep, template: tmpl}
	}
	return out, nil
}
