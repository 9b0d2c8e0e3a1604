package sdk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cad/ovpm/sdk/go/routes"
	"github.com/cad/ovpm/sdk/go/testutil"
)

func newRecordingServer(t *testing.T) *testutil.RecordingServer {
	t.Helper()
	srv := testutil.NewRecordingServer()
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *testutil.RecordingServer, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithHTTPClient(srv.Client())}
	client, err := NewDefault(srv.URL+routes.DefaultBasePath, append(base, opts...)...)
	require.NoError(t, err, "new test client")
	return client
}

func lastRequest(t *testing.T, srv *testutil.RecordingServer) testutil.RecordedRequest {
	t.Helper()
	req, ok := srv.Last()
	require.True(t, ok, "server received no request")
	return req
}
