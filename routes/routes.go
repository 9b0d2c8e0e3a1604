// Package routes provides the OVPM REST API route constants shared by the SDK,
// the admin CLI and tests so that endpoint paths cannot drift apart.
package routes

// API route paths, relative to the /api/v1 base URL.
const (
	// AuthAuthenticate exchanges a username/password pair for a bearer token.
	AuthAuthenticate = "/auth/authenticate"

	// AuthStatus returns the user bound to the presented token.
	AuthStatus = "/auth/status"

	// UserGenConfig renders the OpenVPN client profile of a user.
	UserGenConfig = "/user/genconfig"

	// UserList returns every VPN user.
	UserList = "/user/list"

	// UserCreate creates a VPN user.
	UserCreate = "/user/create"

	// UserDelete removes a VPN user.
	UserDelete = "/user/delete"

	// UserUpdate changes the password or preferences of a VPN user.
	UserUpdate = "/user/update"

	// NetworkList returns every network definition.
	NetworkList = "/network/list"

	// NetworkCreate defines a new network.
	NetworkCreate = "/network/create"

	// NetworkDelete undefines a network.
	NetworkDelete = "/network/delete"

	// NetworkAssociate grants a user access to a network.
	NetworkAssociate = "/network/associate"

	// NetworkDissociate revokes a user's access to a network.
	NetworkDissociate = "/network/dissociate"

	// VPNStatus returns the VPN server settings.
	VPNStatus = "/vpn/status"

	// VPNRestart restarts the OpenVPN process.
	VPNRestart = "/vpn/restart"
)

// DefaultBasePath is the prefix the OVPM daemon mounts its REST gateway under.
const DefaultBasePath = "/api/v1"
