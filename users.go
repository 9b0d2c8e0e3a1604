package sdk

import (
	"context"
	"fmt"
	"strings"
)

// GatewayPref controls whether the VPN pushes a default gateway to the user.
type GatewayPref string

const (
	GatewayPrefNone   GatewayPref = "NOPREF"
	GatewayPrefPush   GatewayPref = "GW"
	GatewayPrefNoPush GatewayPref = "NOGW"
)

// AdminPref grants or revokes administrator rights.
type AdminPref string

const (
	AdminPrefNone    AdminPref = "NOPREFADMIN"
	AdminPrefAdmin   AdminPref = "ADMIN"
	AdminPrefNoAdmin AdminPref = "NOADMIN"
)

// StaticPref selects static or dynamic IP allocation.
type StaticPref string

const (
	StaticPrefNone     StaticPref = "NOPREFSTATIC"
	StaticPrefStatic   StaticPref = "STATIC"
	StaticPrefNoStatic StaticPref = "NOSTATIC"
)

// User is a VPN user as reported by the server.
type User struct {
	Username           string `json:"username"`
	ServerSerialNumber string `json:"server_serial_number,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	IPNet              string `json:"ip_net,omitempty"`
	NoGW               bool   `json:"no_gw"`
	HostID             uint32 `json:"host_id"`
	IsAdmin            bool   `json:"is_admin"`
	IsConnected        bool   `json:"is_connected,omitempty"`
	ConnectedSince     string `json:"connected_since,omitempty"`
	ExpiresAt          string `json:"expires_at,omitempty"`
}

// StaticIP returns the dotted-decimal address of a statically allocated user.
func (u User) StaticIP() (string, bool) {
	if u.HostID == 0 {
		return "", false
	}
	return IPFromHostID(u.HostID), true
}

// UserCreateRequest mirrors POST /user/create. StaticIP, when set, is
// converted to HostID before sending.
type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	NoGW     bool   `json:"no_gw"`
	HostID   uint32 `json:"host_id"`
	IsAdmin  bool   `json:"is_admin"`
	StaticIP string `json:"-"`
}

func (r *UserCreateRequest) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("sdk: username required")
	}
	if r.Password == "" {
		return fmt.Errorf("sdk: password required")
	}
	if r.StaticIP != "" {
		id, err := HostIDFromIP(r.StaticIP)
		if err != nil {
			return err
		}
		r.HostID = id
	}
	return nil
}

// UserUpdateRequest mirrors POST /user/update. Zero-valued preferences are
// sent as "no preference" so the server leaves them unchanged; an empty
// password is left unchanged as well.
type UserUpdateRequest struct {
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	GWPref     GatewayPref `json:"gwpref"`
	AdminPref  AdminPref   `json:"admin_pref"`
	StaticPref StaticPref  `json:"static_pref"`
	HostID     uint32      `json:"host_id"`
	StaticIP   string      `json:"-"`
}

func (r *UserUpdateRequest) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("sdk: username required")
	}
	if r.GWPref == "" {
		r.GWPref = GatewayPrefNone
	}
	if r.AdminPref == "" {
		r.AdminPref = AdminPrefNone
	}
	if r.StaticPref == "" {
		r.StaticPref = StaticPrefNone
	}
	switch r.GWPref {
	case GatewayPrefNone, GatewayPrefPush, GatewayPrefNoPush:
	default:
		return fmt.Errorf("sdk: unknown gateway preference %q", r.GWPref)
	}
	switch r.AdminPref {
	case AdminPrefNone, AdminPrefAdmin, AdminPrefNoAdmin:
	default:
		return fmt.Errorf("sdk: unknown admin preference %q", r.AdminPref)
	}
	switch r.StaticPref {
	case StaticPrefNone, StaticPrefStatic, StaticPrefNoStatic:
	default:
		return fmt.Errorf("sdk: unknown static preference %q", r.StaticPref)
	}
	if r.StaticIP != "" {
		id, err := HostIDFromIP(r.StaticIP)
		if err != nil {
			return err
		}
		r.HostID = id
		r.StaticPref = StaticPrefStatic
	}
	if r.StaticPref == StaticPrefStatic && r.HostID == 0 {
		return fmt.Errorf("sdk: static allocation requires a host id or static IP")
	}
	return nil
}

type userRef struct {
	Username string `json:"username"`
}

type usersEnvelope struct {
	Users []User `json:"users"`
}

// UsersClient wraps the /user endpoints.
type UsersClient struct {
	caller Caller
}

// List returns every VPN user.
func (u *UsersClient) List(ctx context.Context) ([]User, error) {
	if u == nil || u.caller == nil {
		return nil, fmt.Errorf("sdk: users client not initialized")
	}
	resp, err := u.caller.Call(ctx, EndpointUserList, nil, true)
	if err != nil {
		return nil, err
	}
	var payload usersEnvelope
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// Create adds a VPN user and returns it as stored by the server.
func (u *UsersClient) Create(ctx context.Context, req UserCreateRequest) (User, error) {
	if u == nil || u.caller == nil {
		return User{}, fmt.Errorf("sdk: users client not initialized")
	}
	if err := req.normalize(); err != nil {
		return User{}, err
	}
	resp, err := u.caller.Call(ctx, EndpointUserCreate, req, true)
	if err != nil {
		return User{}, err
	}
	return firstUser(resp, req.Username)
}

// Update changes a user's password or preferences.
func (u *UsersClient) Update(ctx context.Context, req UserUpdateRequest) (User, error) {
	if u == nil || u.caller == nil {
		return User{}, fmt.Errorf("sdk: users client not initialized")
	}
	if err := req.normalize(); err != nil {
		return User{}, err
	}
	resp, err := u.caller.Call(ctx, EndpointUserUpdate, req, true)
	if err != nil {
		return User{}, err
	}
	return firstUser(resp, req.Username)
}

// Delete removes a user.
func (u *UsersClient) Delete(ctx context.Context, username string) error {
	if u == nil || u.caller == nil {
		return fmt.Errorf("sdk: users client not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("sdk: username required")
	}
	_, err := u.caller.Call(ctx, EndpointUserDelete, userRef{Username: username}, true)
	return err
}

// GenConfig returns the OpenVPN client profile (.ovpn contents) of a user.
func (u *UsersClient) GenConfig(ctx context.Context, username string) (string, error) {
	if u == nil || u.caller == nil {
		return "", fmt.Errorf("sdk: users client not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("sdk: username required")
	}
	resp, err := u.caller.Call(ctx, EndpointGenConfig, userRef{Username: username}, true)
	if err != nil {
		return "", err
	}
	var payload struct {
		ClientConfig string `json:"client_config"`
	}
	if err := resp.Decode(&payload); err != nil {
		return "", err
	}
	return payload.ClientConfig, nil
}

func firstUser(resp *Response, username string) (User, error) {
	var payload usersEnvelope
	if err := resp.Decode(&payload); err != nil {
		return User{}, err
	}
	for _, user := range payload.Users {
		if user.Username == username {
			return user, nil
		}
	}
	if len(payload.Users) > 0 {
		return payload.Users[0], nil
	}
	return User{Username: username}, nil
}
