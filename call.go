package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cad/ovpm/sdk/go/headers"
)

// Payload is the key-value data sent with a call. Keys referenced by the
// endpoint's path template are substituted into the path and also remain in
// the body.
type Payload map[string]any

// Caller invokes named endpoints. *Client and *MockClient implement it.
type Caller interface {
	Call(ctx context.Context, endpoint string, data any, performAuth bool) (*Response, error)
}

// Result is the outcome of an asynchronous call: exactly one of Response and
// Err is set.
type Result struct {
	Response *Response
	Err      error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// preparedCall is a fully built request waiting for dispatch.
type preparedCall struct {
	endpoint  compiledEndpoint
	req       *http.Request
	requestID string
}

// Call invokes the named endpoint and blocks until it completes.
//
// data may be nil, a Payload/map[string]any, or any value that encodes to a
// JSON object. When performAuth is set the current bearer token is attached.
// Unknown endpoints and unresolved path placeholders fail before any request
// is sent; transport failures come back as TransportError and non-2xx
// responses as APIError.
func (c *Client) Call(ctx context.Context, endpoint string, data any, performAuth bool) (*Response, error) {
	call, err := c.prepare(ctx, endpoint, data, performAuth)
	if err != nil {
		return nil, err
	}
	return c.dispatch(call)
}

// Go starts the call in its own goroutine and returns a channel that receives
// exactly one Result before being closed. Usage errors are returned directly
// and no goroutine is started.
func (c *Client) Go(ctx context.Context, endpoint string, data any, performAuth bool) (<-chan Result, error) {
	call, err := c.prepare(ctx, endpoint, data, performAuth)
	if err != nil {
		return nil, err
	}
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		resp, err := c.dispatch(call)
		out <- Result{Response: resp, Err: err}
	}()
	return out, nil
}

// CallAsync is the callback form of Go. Usage errors are returned
// synchronously and neither callback runs; otherwise exactly one of onSuccess
// or onFailure is invoked from another goroutine. Calls cannot be canceled.
func (c *Client) CallAsync(endpoint string, data any, performAuth bool, onSuccess func(*Response), onFailure func(error)) error {
	results, err := c.Go(context.Background(), endpoint, data, performAuth)
	if err != nil {
		return err
	}
	go func() {
		res := <-results
		if res.Err != nil {
			if onFailure != nil {
				onFailure(res.Err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(res.Response)
		}
	}()
	return nil
}

func (c *Client) prepare(ctx context.Context, name string, data any, performAuth bool) (preparedCall, error) {
	ep, err := c.lookup(name)
	if err != nil {
		return preparedCall{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	fields, body, err := encodePayload(data, ep.template.hasPlaceholders())
	if err != nil {
		return preparedCall{}, fmt.Errorf("sdk: endpoint %q: %w", name, err)
	}
	path, err := ep.template.Resolve(name, fields)
	if err != nil {
		return preparedCall{}, err
	}
	if body == nil && !ep.endpoint.Method.bodyless() {
		body = []byte("{}")
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, ep.endpoint.Method.String(), c.buildURL(path), reader)
	if err != nil {
		return preparedCall{}, fmt.Errorf("sdk: endpoint %q: %w", name, err)
	}
	if body != nil {
		req.Header.Set(headers.ContentType, "application/json")
	}
	req.Header.Set(headers.Accept, "application/json")
	if c.userAgent != "" {
		req.Header.Set(headers.UserAgent, c.userAgent)
	}
	requestID := uuid.NewString()
	req.Header.Set(headers.RequestID, requestID)
	injectTraceparent(ctx, req)
	if performAuth {
		c.token.strategy().Apply(req)
	}
	return preparedCall{endpoint: ep, req: req, requestID: requestID}, nil
}

func (c *Client) dispatch(call preparedCall) (*Response, error) {
	req := call.req
	ctx := req.Context()
	name := call.endpoint.name
	if c.telemetry.OnHTTPRequest != nil {
		c.telemetry.OnHTTPRequest(ctx, req)
	}
	c.telemetry.log(ctx, LogLevelInfo, "http_request", map[string]any{
		"endpoint":   name,
		"method":     req.Method,
		"url":        req.URL.String(),
		"request_id": call.requestID,
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.telemetry.OnHTTPResponse != nil {
		c.telemetry.OnHTTPResponse(ctx, req, resp, err, time.Since(start))
	}
	msg := "request failed"
	var data []byte
	if err == nil {
		//nolint:errcheck // best-effort cleanup on return
		defer func() { _ = resp.Body.Close() }()
		if data, err = io.ReadAll(resp.Body); err != nil {
			msg = "read response body"
		}
	}
	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	c.telemetry.metric(ctx, MetricRequestLatency, float64(time.Since(start))/float64(time.Millisecond), map[string]string{
		"endpoint": name,
		"method":   req.Method,
		"status":   strconv.Itoa(status),
	})
	if err != nil {
		terr := TransportError{
			Kind:     classifyTransportErrorKind(err),
			Endpoint: name,
			Message:  msg,
			Cause:    err,
		}
		c.telemetry.log(ctx, LogLevelError, "http_transport_error", map[string]any{
			"endpoint":   name,
			"kind":       string(terr.Kind),
			"error":      err.Error(),
			"request_id": call.requestID,
		})
		return nil, terr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, resp.Status, data, name, call.requestID)
		c.telemetry.log(ctx, LogLevelError, "http_error", map[string]any{
			"endpoint":   name,
			"status":     resp.StatusCode,
			"error":      apiErr.Error(),
			"request_id": call.requestID,
		})
		return nil, apiErr
	}
	return &Response{
		Endpoint:   name,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       data,
		RequestID:  call.requestID,
	}, nil
}

// encodePayload returns the JSON body for data and, when the path needs
// them, the top-level fields placeholders are resolved from.
func encodePayload(data any, needFields bool) (map[string]any, []byte, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil, nil
	case Payload:
		return encodeMap(map[string]any(v))
	case map[string]any:
		return encodeMap(v)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return encodeMap(m)
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("encode payload: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil, fmt.Errorf("payload must encode to a JSON object, got %T", data)
	}
	if bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil, nil
	}
	if !needFields {
		return nil, body, nil
	}
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, nil, fmt.Errorf("decode payload fields: %w", err)
	}
	return fields, body, nil
}

func encodeMap(m map[string]any) (map[string]any, []byte, error) {
	if len(m) == 0 {
		return nil, nil, nil
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("encode payload: %w", err)
	}
	return m, body, nil
}
