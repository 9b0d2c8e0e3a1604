package sdk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cad/ovpm/sdk/go/testutil"
)

func TestVPNStatusAndRestart(t *testing.T) {
	srv := newRecordingServer(t)
	srv.Reply("/api/v1/vpn/status", testutil.Reply{Body: map[string]any{
		"name":     "ovpm",
		"hostname": "vpn.example.com",
		"port":     "1197",
		"proto":    "udp",
		"net":      "10.9.0.0",
		"mask":     "255.255.255.0",
		"dns":      "8.8.8.8",
	}})
	client := newTestClient(t, srv, WithAuthToken("T"))

	status, err := client.VPN.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "vpn.example.com", status.Hostname)
	assert.Equal(t, "1197", status.Port)
	assert.Equal(t, "udp", status.Proto)
	assert.Equal(t, "255.255.255.0", status.Mask)

	require.NoError(t, client.VPN.Restart(context.Background()))
	req := lastRequest(t, srv)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/vpn/restart", req.Path)
}

func TestVPNStatusUnauthorized(t *testing.T) {
	mock := NewMockClient().WithResponse(EndpointVPNStatus, http.StatusUnauthorized, nil)
	_, err := mock.VPN.Status(context.Background())
	assert.True(t, IsUnauthorized(err))
}
