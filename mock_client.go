package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// MockClient provides an in-memory Caller for unit tests without hitting the
// API. Responses are queued per endpoint and consumed in order; the typed
// service clients are wired to it exactly as on Client.
type MockClient struct {
	Auth     *AuthClient
	Users    *UsersClient
	Networks *NetworksClient
	VPN      *VPNClient

	mu        sync.Mutex
	endpoints EndpointTable
	queues    map[string][]mockResult
	calls     []MockCall
}

// MockClientError is returned when a mock client is used without configuration.
type MockClientError struct {
	Reason string
}

func (e MockClientError) Error() string { return "mock client: " + e.Reason }

// MockCall records one invocation.
type MockCall struct {
	Endpoint    string
	Data        any
	PerformAuth bool
}

type mockResult struct {
	resp *Response
	err  error
}

var _ Caller = (*MockClient)(nil)

// NewMockClient creates an empty mock client that accepts the default OVPM
// endpoint names.
func NewMockClient() *MockClient {
	m := &MockClient{
		endpoints: DefaultEndpoints(),
		queues:    map[string][]mockResult{},
	}
	m.Auth = &AuthClient{caller: m}
	m.Users = &UsersClient{caller: m}
	m.Networks = &NetworksClient{caller: m}
	m.VPN = &VPNClient{caller: m}
	return m
}

// WithResponse enqueues a reply for the next call to endpoint. body is
// JSON-encoded unless it is already a []byte. Non-2xx statuses are delivered
// as APIError.
func (m *MockClient) WithResponse(endpoint string, status int, body any) *MockClient {
	var raw []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		raw = b
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return m.WithError(endpoint, fmt.Errorf("mock client: encode body: %w", err))
		}
		raw = encoded
	}
	if status < 200 || status >= 300 {
		return m.enqueue(endpoint, mockResult{err: decodeAPIError(status, fmt.Sprintf("%d %s", status, http.StatusText(status)), raw, endpoint, "")})
	}
	return m.enqueue(endpoint, mockResult{resp: &Response{
		Endpoint:   endpoint,
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       raw,
	}})
}

// WithError enqueues an error for the next call to endpoint.
func (m *MockClient) WithError(endpoint string, err error) *MockClient {
	return m.enqueue(endpoint, mockResult{err: err})
}

func (m *MockClient) enqueue(endpoint string, res mockResult) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[endpoint] = append(m.queues[endpoint], res)
	return m
}

// Call returns the next queued result for endpoint.
func (m *MockClient) Call(_ context.Context, endpoint string, data any, performAuth bool) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.endpoints[endpoint]; !ok {
		return nil, UnknownEndpointError{Name: endpoint, Known: m.endpoints.Names()}
	}
	m.calls = append(m.calls, MockCall{Endpoint: endpoint, Data: data, PerformAuth: performAuth})
	queue := m.queues[endpoint]
	if len(queue) == 0 {
		return nil, MockClientError{Reason: fmt.Sprintf("no responses configured for %q", endpoint)}
	}
	res := queue[0]
	m.queues[endpoint] = queue[1:]
	if res.err != nil {
		return nil, res.err
	}
	respCopy := *res.resp
	return &respCopy, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
