package sdk

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadEndpoints parses a YAML document mapping endpoint names to
// {path, method} entries and validates the result:
//
//	userList:
//	  path: /user/list
//	  method: GET
func LoadEndpoints(r io.Reader) (EndpointTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("sdk: read endpoints: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ConfigError{Reason: "endpoint table is empty"}
	}
	var raw map[string]struct {
		Path   string `yaml:"path"`
		Method string `yaml:"method"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ConfigError{Reason: fmt.Sprintf("parse endpoints: %v", err)}
	}
	table := make(EndpointTable, len(raw))
	for name, entry := range raw {
		method, err := ParseMethod(entry.Method)
		if err != nil && entry.Method != "" {
			return nil, ConfigError{Reason: fmt.Sprintf("endpoint %q: %v", name, err)}
		}
		table[name] = Endpoint{Path: entry.Path, Method: method}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadEndpointsFile reads an endpoint table from a YAML file.
func LoadEndpointsFile(path string) (EndpointTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sdk: open endpoints: %w", err)
	}
	defer f.Close()
	return LoadEndpoints(f)
}

// MarshalEndpoints renders a table as YAML, the inverse of LoadEndpoints.
func MarshalEndpoints(table EndpointTable) ([]byte, error) {
	out := make(map[string]Endpoint, len(table))
	for name, ep := range table {
		out[name] = ep
	}
	return yaml.Marshal(out)
}
