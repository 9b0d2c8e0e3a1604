package sdk

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// NetworkType distinguishes server-side networks from routed ones.
type NetworkType string

const (
	// NetworkServerNet is a network directly reachable from the VPN server.
	NetworkServerNet NetworkType = "SERVERNET"
	// NetworkRoute is routed through a gateway (Via).
	NetworkRoute NetworkType = "ROUTE"
)

// Network is a network definition as reported by the server.
type Network struct {
	Name                string      `json:"name"`
	CIDR                string      `json:"cidr"`
	Type                NetworkType `json:"type"`
	Via                 string      `json:"via,omitempty"`
	CreatedAt           string      `json:"created_at,omitempty"`
	AssociatedUsernames []string    `json:"associated_usernames,omitempty"`
}

// NetworkDefineRequest mirrors POST /network/create.
type NetworkDefineRequest struct {
	Name string      `json:"name"`
	CIDR string      `json:"cidr"`
	Type NetworkType `json:"type"`
	Via  string      `json:"via,omitempty"`
}

// Validate checks the definition before it is sent.
func (r *NetworkDefineRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("sdk: network name required")
	}
	if _, err := netip.ParsePrefix(strings.TrimSpace(r.CIDR)); err != nil {
		return fmt.Errorf("sdk: invalid cidr %q: %w", r.CIDR, err)
	}
	if r.Type == "" {
		r.Type = NetworkServerNet
	}
	switch r.Type {
	case NetworkServerNet:
		if r.Via != "" {
			return fmt.Errorf("sdk: via is only valid for %s networks", NetworkRoute)
		}
	case NetworkRoute:
		if r.Via != "" {
			if _, err := netip.ParseAddr(strings.TrimSpace(r.Via)); err != nil {
				return fmt.Errorf("sdk: invalid via address %q: %w", r.Via, err)
			}
		}
	default:
		return fmt.Errorf("sdk: unknown network type %q", r.Type)
	}
	return nil
}

type networkUserRef struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// NetworksClient wraps the /network endpoints.
type NetworksClient struct {
	caller Caller
}

// List returns every defined network.
func (n *NetworksClient) List(ctx context.Context) ([]Network, error) {
	if n == nil || n.caller == nil {
		return nil, fmt.Errorf("sdk: networks client not initialized")
	}
	resp, err := n.caller.Call(ctx, EndpointNetworkList, nil, true)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Networks []Network `json:"networks"`
	}
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Networks, nil
}

// Define creates a network.
func (n *NetworksClient) Define(ctx context.Context, req NetworkDefineRequest) (Network, error) {
	if n == nil || n.caller == nil {
		return Network{}, fmt.Errorf("sdk: networks client not initialized")
	}
	if err := req.Validate(); err != nil {
		return Network{}, err
	}
	resp, err := n.caller.Call(ctx, EndpointNetDefine, req, true)
	if err != nil {
		return Network{}, err
	}
	var payload struct {
		Network *Network `json:"network"`
	}
	if err := resp.Decode(&payload); err != nil {
		return Network{}, err
	}
	if payload.Network == nil {
		return Network{Name: req.Name, CIDR: req.CIDR, Type: req.Type, Via: req.Via}, nil
	}
	return *payload.Network, nil
}

// Undefine deletes a network.
func (n *NetworksClient) Undefine(ctx context.Context, name string) error {
	if n == nil || n.caller == nil {
		return fmt.Errorf("sdk: networks client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sdk: network name required")
	}
	_, err := n.caller.Call(ctx, EndpointNetUndefine, networkUserRef{Name: name}, true)
	return err
}

// Associate grants username access to the network.
func (n *NetworksClient) Associate(ctx context.Context, name, username string) error {
	return n.membership(ctx, EndpointNetAssociate, name, username)
}

// Dissociate revokes username's access to the network.
func (n *NetworksClient) Dissociate(ctx context.Context, name, username string) error {
	return n.membership(ctx, EndpointNetDissociate, name, username)
}

func (n *NetworksClient) membership(ctx context.Context, endpoint, name, username string) error {
	if n == nil || n.caller == nil {
		return fmt.Errorf("sdk: networks client not initialized")
	}
	ref := networkUserRef{Name: strings.TrimSpace(name), Username: strings.TrimSpace(username)}
	if ref.Name == "" {
		return fmt.Errorf("sdk: network name required")
	}
	if ref.Username == "" {
		return fmt.Errorf("sdk: username required")
	}
	_, err := n.caller.Call(ctx, endpoint, ref, true)
	return err
}
