package sdk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cad/ovpm/sdk/go/testutil"
)

func TestNetworkDefineRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  NetworkDefineRequest
		want string
	}{
		{name: "missing name", req: NetworkDefineRequest{CIDR: "10.0.0.0/24"}, want: "network name required"},
		{name: "bad cidr", req: NetworkDefineRequest{Name: "lan", CIDR: "10.0.0.0"}, want: "invalid cidr"},
		{name: "via on servernet", req: NetworkDefineRequest{Name: "lan", CIDR: "10.0.0.0/24", Via: "10.0.0.1"}, want: "via is only valid"},
		{name: "bad via", req: NetworkDefineRequest{Name: "lan", CIDR: "10.0.0.0/24", Type: NetworkRoute, Via: "gw"}, want: "invalid via address"},
		{name: "unknown type", req: NetworkDefineRequest{Name: "lan", CIDR: "10.0.0.0/24", Type: "BRIDGE"}, want: "unknown network type"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorContains(t, tc.req.Validate(), tc.want)
		})
	}

	req := NetworkDefineRequest{Name: " lan ", CIDR: "192.168.1.0/24"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "lan", req.Name)
	assert.Equal(t, NetworkServerNet, req.Type)
}

func TestNetworksList(t *testing.T) {
	srv := newRecordingServer(t)
	srv.Reply("/api/v1/network/list", testutil.Reply{Body: map[string]any{
		"networks": []map[string]any{{
			"name":                 "office",
			"cidr":                 "192.168.10.0/24",
			"type":                 "ROUTE",
			"via":                  "10.9.0.1",
			"associated_usernames": []string{"alice"},
		}},
	}})
	client := newTestClient(t, srv, WithAuthToken("T"))

	nets, err := client.Networks.List(context.Background())
	require.NoError(t, err)
	require.Len(t, nets, 1)
	assert.Equal(t, NetworkRoute, nets[0].Type)
	assert.Equal(t, []string{"alice"}, nets[0].AssociatedUsernames)
}

func TestNetworksDefine(t *testing.T) {
	srv := newRecordingServer(t)
	client := newTestClient(t, srv, WithAuthToken("T"))

	net, err := client.Networks.Define(context.Background(), NetworkDefineRequest{
		Name: "office", CIDR: "192.168.10.0/24", Type: NetworkRoute, Via: "10.9.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, "office", net.Name, "falls back to the request when the server echoes nothing")

	req := lastRequest(t, srv)
	assert.Equal(t, "/api/v1/network/create", req.Path)
	assert.JSONEq(t, `{"name":"office","cidr":"192.168.10.0/24","type":"ROUTE","via":"10.9.0.1"}`, string(req.Body))

	srv.Reply("/api/v1/network/create", testutil.Reply{Body: map[string]any{
		"network": map[string]any{"name": "lab", "cidr": "10.1.0.0/16", "type": "SERVERNET", "created_at": "now"},
	}})
	net, err = client.Networks.Define(context.Background(), NetworkDefineRequest{Name: "lab", CIDR: "10.1.0.0/16"})
	require.NoError(t, err)
	assert.Equal(t, "now", net.CreatedAt)
}

func TestNetworksMembership(t *testing.T) {
	mock := NewMockClient().
		WithResponse(EndpointNetAssociate, http.StatusOK, nil).
		WithResponse(EndpointNetDissociate, http.StatusNotFound, map[string]any{"error": "no such network"}).
		WithResponse(EndpointNetUndefine, http.StatusOK, nil)

	require.NoError(t, mock.Networks.Associate(context.Background(), "office", "alice"))
	err := mock.Networks.Dissociate(context.Background(), "office", "alice")
	assert.True(t, IsNotFound(err))
	assert.ErrorContains(t, err, "no such network")
	require.NoError(t, mock.Networks.Undefine(context.Background(), "office"))

	calls := mock.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, networkUserRef{Name: "office", Username: "alice"}, calls[0].Data)
	assert.Equal(t, EndpointNetDissociate, calls[1].Endpoint)
	assert.Equal(t, networkUserRef{Name: "office"}, calls[2].Data)

	assert.ErrorContains(t, mock.Networks.Associate(context.Background(), "office", ""), "username required")
	assert.ErrorContains(t, mock.Networks.Undefine(context.Background(), ""), "network name required")
}
