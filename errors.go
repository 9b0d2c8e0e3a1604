package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrNoAuthToken is returned by session operations that need a stored token.
var ErrNoAuthToken = errors.New("sdk: no auth token")

// ConfigError reports an invalid client configuration. It is returned before
// any network activity takes place.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string { return "sdk: invalid config: " + e.Reason }

// UnknownEndpointError is returned when a call names an endpoint missing from
// the client's table.
type UnknownEndpointError struct {
	Name  string
	Known []string
}

func (e UnknownEndpointError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("sdk: unknown endpoint %q", e.Name)
	}
	return fmt.Sprintf("sdk: unknown endpoint %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// MissingPathParamError is returned when a path placeholder has no matching
// payload field.
type MissingPathParamError struct {
	Endpoint string
	Param    string
}

func (e MissingPathParamError) Error() string {
	return fmt.Sprintf("sdk: endpoint %q: payload has no value for path placeholder {%s}", e.Endpoint, e.Param)
}

// APIError captures a non-2xx response from the OVPM REST gateway.
type APIError struct {
	Status    int
	Code      int
	Message   string
	Endpoint  string
	RequestID string
	Body      []byte
}

// Error implements the error interface.
func (e APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Endpoint != "" {
		return fmt.Sprintf("sdk: %s: http %d: %s", e.Endpoint, e.Status, msg)
	}
	return fmt.Sprintf("sdk: http %d: %s", e.Status, msg)
}

// IsUnauthorized reports whether the server rejected the credentials.
func (e APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

// TransportErrorKind classifies failures where no complete response arrived.
type TransportErrorKind string

const (
	TransportErrorTimeout  TransportErrorKind = "timeout"
	TransportErrorCanceled TransportErrorKind = "canceled"
	TransportErrorConnect  TransportErrorKind = "connect"
	TransportErrorOther    TransportErrorKind = "other"
)

// TransportError wraps a failure of the underlying HTTP transport.
type TransportError struct {
	Kind     TransportErrorKind
	Endpoint string
	Message  string
	Cause    error
}

func (e TransportError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if e.Endpoint != "" {
		return fmt.Sprintf("sdk: %s: transport %s: %s", e.Endpoint, e.Kind, msg)
	}
	return fmt.Sprintf("sdk: transport %s: %s", e.Kind, msg)
}

func (e TransportError) Unwrap() error { return e.Cause }

func classifyTransportErrorKind(err error) TransportErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return TransportErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return TransportErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportErrorTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return TransportErrorConnect
	}
	return TransportErrorOther
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a response.
func StatusCode(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func decodeAPIError(status int, statusText string, data []byte, endpoint, requestID string) error {
	apiErr := APIError{
		Status:    status,
		Endpoint:  endpoint,
		RequestID: requestID,
		Body:      data,
	}
	if len(data) == 0 {
		apiErr.Message = statusText
		return apiErr
	}
	// grpc-gateway renders {"error": "...", "message": "...", "code": N}.
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Code = payload.Code
	apiErr.Message = payload.Message
	if apiErr.Message == "" {
		apiErr.Message = payload.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = statusText
	}
	return apiErr
}
