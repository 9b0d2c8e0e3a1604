package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/goleak"

	"github.com/cad/ovpm/sdk/go/headers"
	"github.com/cad/ovpm/sdk/go/testutil"
)

func TestNewClientValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "missing base url", cfg: Config{Endpoints: DefaultEndpoints()}, want: "base URL required"},
		{name: "missing scheme", cfg: Config{BaseURL: "h/api/v1", Endpoints: DefaultEndpoints()}, want: "missing scheme"},
		{name: "missing host", cfg: Config{BaseURL: "http:///api", Endpoints: DefaultEndpoints()}, want: "missing host"},
		{name: "query string", cfg: Config{BaseURL: "http://h/api?x=1", Endpoints: DefaultEndpoints()}, want: "must not carry a query or fragment"},
		{name: "fragment", cfg: Config{BaseURL: "http://h/api#top", Endpoints: DefaultEndpoints()}, want: "must not carry a query or fragment"},
		{name: "missing table", cfg: Config{BaseURL: "http://h/api/v1"}, want: "endpoint table is required"},
		{name: "entry without method", cfg: Config{BaseURL: "http://h", Endpoints: EndpointTable{"x": {Path: "/x"}}}, want: "method is required"},
		{name: "entry without path", cfg: Config{BaseURL: "http://h", Endpoints: EndpointTable{"x": {Method: MethodGet}}}, want: "path is required"},
		{name: "blank token", cfg: Config{BaseURL: "http://h", Endpoints: DefaultEndpoints(), AuthToken: "   "}, want: "auth token must not be blank"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(tc.cfg)
			require.Error(t, err)
			assert.Nil(t, client)
			var cfgErr ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	client, err := New("http://h/api/v1/", DefaultEndpoints())
	require.NoError(t, err)
	assert.Equal(t, "http://h/api/v1", client.BaseURL())
	_, ok := client.AuthToken()
	assert.False(t, ok)
}

func TestClientsShareEndpointTable(t *testing.T) {
	table := DefaultEndpoints()
	a, err := New("http://a", table)
	require.NoError(t, err)
	b, err := New("http://b", table)
	require.NoError(t, err)
	a.Endpoints()[EndpointUserList] = Endpoint{Path: "/changed", Method: MethodGet}
	assert.Equal(t, "/changed", b.Endpoints()[EndpointUserList].Path)
}

func TestCallUserListUnauthorizedScenario(t *testing.T) {
	srv := newRecordingServer(t)
	srv.Reply("/api/v1/user/list", testutil.Reply{
		Status: http.StatusUnauthorized,
		Body:   map[string]any{"error": "unauthorized", "message": "unauthorized", "code": 16},
	})
	client := newTestClient(t, srv)
	require.NoError(t, client.SetAuthToken("T"))

	resp, err := client.Call(context.Background(), EndpointUserList, Payload{}, true)
	require.Error(t, err)
	assert.Nil(t, resp)

	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, 16, apiErr.Code)
	assert.Equal(t, EndpointUserList, apiErr.Endpoint)
	assert.True(t, apiErr.IsUnauthorized())
	assert.True(t, IsUnauthorized(err))

	req := lastRequest(t, srv)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/user/list", req.Path)
	assert.Equal(t, "Bearer T", req.Header.Get(headers.Authorization))
	assert.Empty(t, req.Body, "empty GET payload must not send a body")
	assert.Empty(t, req.Header.Get(headers.ContentType))
}

func TestCallUserCreateSendsPayload(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv, WithAuthToken("T"))

	resp, err := client.Call(context.Background(), EndpointUserCreate, Payload{"username": "bob", "password": "x"}, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, EndpointUserCreate, resp.Endpoint)

	req := lastRequest(t, srv)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/user/create", req.Path)
	assert.Equal(t, "application/json", req.Header.Get(headers.ContentType))
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"username": "bob", "password": "x"}, body)
}

func TestCallWithoutAuthOmitsHeader(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv, WithAuthToken("secret"))

	_, err := client.Call(context.Background(), EndpointAuthStatus, nil, false)
	require.NoError(t, err)
	assert.Empty(t, lastRequest(t, srv).Header.Get(headers.Authorization))
}

func TestCallWithAuthButNoTokenOmitsHeader(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv)

	_, err := client.Call(context.Background(), EndpointUserList, nil, true)
	require.NoError(t, err)
	assert.Empty(t, lastRequest(t, srv).Header.Get(headers.Authorization))
}

func TestSetAuthToken(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv)

	require.NoError(t, client.SetAuthToken("T"))
	require.NoError(t, client.SetAuthToken("T"))
	_, err := client.Call(context.Background(), EndpointUserList, nil, true)
	require.NoError(t, err)
	req := lastRequest(t, srv)
	assert.Equal(t, []string{"Bearer T"}, req.Header.Values(headers.Authorization))

	require.NoError(t, client.SetAuthToken("Bearer  U "))
	tok, ok := client.AuthToken()
	assert.True(t, ok)
	assert.Equal(t, "U", tok)

	err = client.SetAuthToken(" ")
	var cfgErr ConfigError
	require.True(t, errors.As(err, &cfgErr))
	tok, _ = client.AuthToken()
	assert.Equal(t, "U", tok, "rejected token must not replace the stored one")

	client.ClearAuthToken()
	_, ok = client.AuthToken()
	assert.False(t, ok)
}

func TestTokenIsCapturedWhenCallStarts(t *testing.T) {
	srv := newRecordingServer(t)
	srv.Reply("/api/v1/user/list", testutil.Reply{Delay: 50 * time.Millisecond, Body: map[string]any{}})
	client := newTestClient(t, srv, WithAuthToken("old"))

	results, err := client.Go(context.Background(), EndpointUserList, nil, true)
	require.NoError(t, err)
	require.NoError(t, client.SetAuthToken("new"))
	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, "Bearer old", lastRequest(t, srv).Header.Get(headers.Authorization))

	_, err = client.Call(context.Background(), EndpointUserList, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Bearer new", lastRequest(t, srv).Header.Get(headers.Authorization))
}

func TestUnknownEndpointFailsBeforeDispatch(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv)

	_, err := client.Call(context.Background(), "userPurge", nil, true)
	var unknown UnknownEndpointError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "userPurge", unknown.Name)
	assert.Contains(t, err.Error(), "userPurge")

	results, err := client.Go(context.Background(), "userPurge", nil, true)
	assert.Nil(t, results)
	assert.True(t, errors.As(err, &unknown))

	called := make(chan struct{}, 2)
	err = client.CallAsync("userPurge", nil, true,
		func(*Response) { called <- struct{}{} },
		func(error) { called <- struct{}{} },
	)
	assert.True(t, errors.As(err, &unknown))
	select {
	case <-called:
		t.Fatal("no callback may run for an unknown endpoint")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Empty(t, srv.Requests())
}

func TestPathTemplateSubstitutionKeepsBody(t *testing.T) {
	srv := newRecordingServer(t)
	table := EndpointTable{
		"rename": {Path: "/user/{username}/rename", Method: MethodPost},
	}
	client, err := New(srv.URL+"/api/v1", table, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "rename", Payload{"username": "alice", "to": "bob"}, false)
	require.NoError(t, err)
	req := lastRequest(t, srv)
	assert.Equal(t, "/api/v1/user/alice/rename", req.Path)
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"username": "alice", "to": "bob"}, body)

	type renameReq struct {
		Username string `json:"username"`
		To       string `json:"to"`
	}
	_, err = client.Call(context.Background(), "rename", renameReq{Username: "carol", To: "dave"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/user/carol/rename", lastRequest(t, srv).Path)

	_, err = client.Call(context.Background(), "rename", Payload{"to": "bob"}, false)
	var missing MissingPathParamError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "username", missing.Param)
	assert.Len(t, srv.Requests(), 2, "unresolved placeholder must not be dispatched")
}

func TestCallRejectsNonObjectPayload(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv)
	_, err := client.Call(context.Background(), EndpointUserCreate, []string{"bob"}, true)
	assert.ErrorContains(t, err, "JSON object")
	assert.Empty(t, srv.Requests())
}

func TestEmptyPostPayloadSendsEmptyObject(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv)
	_, err := client.Call(context.Background(), EndpointVPNRestart, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(lastRequest(t, srv).Body))
}

func TestCallSetsRequestIDAndTraceparent(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv)

	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	}))

	resp, err := client.Call(ctx, EndpointVPNStatus, nil, true)
	require.NoError(t, err)
	req := lastRequest(t, srv)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", req.Header.Get(headers.Traceparent))

	id := req.Header.Get(headers.RequestID)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, resp.RequestID)
	assert.Contains(t, req.Header.Get(headers.UserAgent), "ovpm-sdk-go/")

	_, err = client.Call(context.Background(), EndpointVPNStatus, nil, true)
	require.NoError(t, err)
	assert.Empty(t, lastRequest(t, srv).Header.Get(headers.Traceparent))
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := newRecordingServer(t)
	srv.Reply("/api/v1/user/delete", testutil.Reply{
		Status: http.StatusNotFound,
		Body:   map[string]any{"error": "user not found", "code": 5},
	})
	srv.Reply("/api/v1/vpn/restart", testutil.Reply{Status: http.StatusInternalServerError, Body: "boom"})
	client := newTestClient(t, srv)

	_, err := client.Call(context.Background(), EndpointUserDelete, Payload{"username": "ghost"}, true)
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "user not found", apiErr.Message)
	assert.Equal(t, 5, apiErr.Code)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))

	_, err = client.Call(context.Background(), EndpointVPNRestart, nil, true)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Equal(t, "boom", apiErr.Message)
}

func TestTransportErrors(t *testing.T) {
	srv := testutil.NewRecordingServer()
	url := srv.URL
	hc := srv.Client()
	srv.Close()

	client, err := NewDefault(url+"/api/v1", WithHTTPClient(hc))
	require.NoError(t, err)
	_, err = client.Call(context.Background(), EndpointUserList, nil, true)
	var terr TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, TransportErrorConnect, terr.Kind)
	assert.Equal(t, EndpointUserList, terr.Endpoint)
	assert.Zero(t, StatusCode(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Call(ctx, EndpointUserList, nil, true)
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, TransportErrorCanceled, terr.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncatedBodyIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 100\r\n\r\n{\"name\":")
		_ = buf.Flush()
	}))
	defer srv.Close()

	var mu sync.Mutex
	var entries []LogEntry
	var metrics []Metric
	hooks := TelemetryHooks{
		OnLogEntry: func(_ context.Context, e LogEntry) {
			mu.Lock()
			defer mu.Unlock()
			entries = append(entries, e)
		},
		OnMetric: func(_ context.Context, m Metric) {
			mu.Lock()
			defer mu.Unlock()
			metrics = append(metrics, m)
		},
	}
	client, err := NewDefault(srv.URL+"/api/v1", WithHTTPClient(srv.Client()), WithTelemetry(hooks))
	require.NoError(t, err)

	_, err = client.Call(context.Background(), EndpointVPNStatus, nil, true)
	var terr TransportError
	require.True(t, errors.As(err, &terr), "expected TransportError, got %T", err)
	assert.Equal(t, "read response body", terr.Message)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, metrics, 1)
	assert.Equal(t, "0", metrics[0].Labels["status"])
	var logged []string
	for _, e := range entries {
		if e.Level == LogLevelError {
			logged = append(logged, e.Message)
		}
	}
	assert.Equal(t, []string{"http_transport_error"}, logged)
}

func TestGoDeliversExactlyOneResult(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	srv := testutil.NewRecordingServer()
	defer srv.Close()
	srv.Reply("/api/v1/vpn/status", testutil.Reply{Body: map[string]any{"name": "vpn"}})
	srv.Reply("/api/v1/user/list", testutil.Reply{Status: http.StatusUnauthorized})
	client, err := NewDefault(srv.URL+"/api/v1", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	ok, err := client.Go(context.Background(), EndpointVPNStatus, nil, true)
	require.NoError(t, err)
	res, open := <-ok
	require.True(t, open)
	assert.True(t, res.OK())
	var status VPNStatus
	require.NoError(t, res.Response.Decode(&status))
	assert.Equal(t, "vpn", status.Name)
	_, open = <-ok
	assert.False(t, open, "channel must close after the single result")

	fail, err := client.Go(context.Background(), EndpointUserList, nil, true)
	require.NoError(t, err)
	res = <-fail
	assert.False(t, res.OK())
	assert.Nil(t, res.Response)
	assert.True(t, IsUnauthorized(res.Err))
}

func TestCallAsyncInvokesOneCallback(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	srv := testutil.NewRecordingServer()
	defer srv.Close()
	srv.Reply("/api/v1/user/list", testutil.Reply{Status: http.StatusUnauthorized})
	client, err := NewDefault(srv.URL+"/api/v1", WithHTTPClient(srv.Client()), WithAuthToken("T"))
	require.NoError(t, err)

	type outcome struct {
		resp *Response
		err  error
	}
	run := func(endpoint string) []outcome {
		out := make(chan outcome, 2)
		err := client.CallAsync(endpoint, nil, true,
			func(r *Response) { out <- outcome{resp: r} },
			func(e error) { out <- outcome{err: e} },
		)
		require.NoError(t, err)
		var got []outcome
		got = append(got, <-out)
		select {
		case extra := <-out:
			got = append(got, extra)
		case <-time.After(30 * time.Millisecond):
		}
		return got
	}

	got := run(EndpointVPNStatus)
	require.Len(t, got, 1)
	assert.NoError(t, got[0].err)
	assert.Equal(t, http.StatusOK, got[0].resp.StatusCode)

	got = run(EndpointUserList)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].resp)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(got[0].err))
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv, WithAuthToken("T"))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			endpoint := EndpointUserList
			if i%2 == 0 {
				endpoint = EndpointNetworkList
			}
			_, err := client.Call(context.Background(), endpoint, nil, true)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, srv.Requests(), n)
}

func TestTelemetryHooksObserveCalls(t *testing.T) {
	srv := newRecordingServer(t)
	srv.Reply("/api/v1/user/list", testutil.Reply{Status: http.StatusForbidden})

	var mu sync.Mutex
	var entries []LogEntry
	var metrics []Metric
	var responses int
	hooks := CombineTelemetry(
		TelemetryHooks{OnLogEntry: func(_ context.Context, e LogEntry) {
			mu.Lock()
			defer mu.Unlock()
			entries = append(entries, e)
		}},
		TelemetryHooks{
			OnMetric: func(_ context.Context, m Metric) {
				mu.Lock()
				defer mu.Unlock()
				metrics = append(metrics, m)
			},
			OnHTTPResponse: func(context.Context, *http.Request, *http.Response, error, time.Duration) {
				mu.Lock()
				defer mu.Unlock()
				responses++
			},
		},
	)
	client := newTestClient(t, srv, WithTelemetry(hooks))

	_, err := client.Call(context.Background(), EndpointVPNStatus, nil, true)
	require.NoError(t, err)
	_, err = client.Call(context.Background(), EndpointUserList, nil, true)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, responses)
	require.Len(t, metrics, 2)
	assert.Equal(t, MetricRequestLatency, metrics[0].Name)
	assert.Equal(t, map[string]string{"endpoint": EndpointVPNStatus, "method": "GET", "status": "200"}, metrics[0].Labels)
	assert.Equal(t, "403", metrics[1].Labels["status"])
	assert.Greater(t, metrics[0].Value, 0.0, "sub-millisecond latency must not round to zero")

	var errorsLogged int
	for _, e := range entries {
		if e.Level == LogLevelError {
			errorsLogged++
			assert.Equal(t, "http_error", e.Message)
			assert.Equal(t, EndpointUserList, e.Fields["endpoint"])
		}
	}
	assert.Equal(t, 1, errorsLogged)
}
