package sdk

import (
	"context"
	"fmt"
)

// VPNStatus describes the VPN server.
type VPNStatus struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number,omitempty"`
	Hostname     string `json:"hostname"`
	Port         string `json:"port"`
	Proto        string `json:"proto"`
	Cert         string `json:"cert,omitempty"`
	CACert       string `json:"ca_cert,omitempty"`
	Net          string `json:"net"`
	Mask         string `json:"mask"`
	DNS          string `json:"dns,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// VPNClient wraps the /vpn endpoints.
type VPNClient struct {
	caller Caller
}

// Status returns the VPN server settings.
func (v *VPNClient) Status(ctx context.Context) (VPNStatus, error) {
	if v == nil || v.caller == nil {
		return VPNStatus{}, fmt.Errorf("sdk: vpn client not initialized")
	}
	resp, err := v.caller.Call(ctx, EndpointVPNStatus, nil, true)
	if err != nil {
		return VPNStatus{}, err
	}
	var status VPNStatus
	if err := resp.Decode(&status); err != nil {
		return VPNStatus{}, err
	}
	return status, nil
}

// Restart restarts the OpenVPN process on the server.
func (v *VPNClient) Restart(ctx context.Context) error {
	if v == nil || v.caller == nil {
		return fmt.Errorf("sdk: vpn client not initialized")
	}
	_, err := v.caller.Call(ctx, EndpointVPNRestart, nil, true)
	return err
}
