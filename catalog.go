package sdk

import "github.com/cad/ovpm/sdk/go/routes"

// Endpoint names of the OVPM REST API.
const (
	EndpointAuthenticate  = "authenticate"
	EndpointAuthStatus    = "authStatus"
	EndpointGenConfig     = "genConfig"
	EndpointUserList      = "userList"
	EndpointUserCreate    = "userCreate"
	EndpointUserDelete    = "userDelete"
	EndpointUserUpdate    = "userUpdate"
	EndpointNetworkList   = "networkList"
	EndpointVPNStatus     = "vpnStatus"
	EndpointVPNRestart    = "vpnRestart"
	EndpointNetDefine     = "netDefine"
	EndpointNetUndefine   = "netUndefine"
	EndpointNetAssociate  = "netAssociate"
	EndpointNetDissociate = "netDissociate"
)

// DefaultEndpoints returns a fresh copy of the OVPM endpoint catalog.
func DefaultEndpoints() EndpointTable {
	return EndpointTable{
		EndpointAuthenticate:  {Path: routes.AuthAuthenticate, Method: MethodPost},
		EndpointAuthStatus:    {Path: routes.AuthStatus, Method: MethodGet},
		EndpointGenConfig:     {Path: routes.UserGenConfig, Method: MethodPost},
		EndpointUserList:      {Path: routes.UserList, Method: MethodGet},
		EndpointUserCreate:    {Path: routes.UserCreate, Method: MethodPost},
		EndpointUserDelete:    {Path: routes.UserDelete, Method: MethodPost},
		EndpointUserUpdate:    {Path: routes.UserUpdate, Method: MethodPost},
		EndpointNetworkList:   {Path: routes.NetworkList, Method: MethodGet},
		EndpointVPNStatus:     {Path: routes.VPNStatus, Method: MethodGet},
		EndpointVPNRestart:    {Path: routes.VPNRestart, Method: MethodPost},
		EndpointNetDefine:     {Path: routes.NetworkCreate, Method: MethodPost},
		EndpointNetUndefine:   {Path: routes.NetworkDelete, Method: MethodPost},
		EndpointNetAssociate:  {Path: routes.NetworkAssociate, Method: MethodPost},
		EndpointNetDissociate: {Path: routes.NetworkDissociate, Method: MethodPost},
	}
}

// NewDefault builds a client for the standard OVPM catalog.
func NewDefault(baseURL string, opts ...Option) (*Client, error) {
	return New(baseURL, DefaultEndpoints(), opts...)
}
