package sdk

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"
)

// HostIDFromIP converts a dotted-decimal IPv4 address into the integer host id
// the server uses for static allocations.
func HostIDFromIP(ip string) (uint32, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return 0, fmt.Errorf("sdk: invalid IPv4 address %q: %w", ip, err)
	}
	if !addr.Is4() {
		return 0, fmt.Errorf("sdk: %q is not an IPv4 address", ip)
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// IPFromHostID is the inverse of HostIDFromIP.
func IPFromHostID(id uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return netip.AddrFrom4(b).String()
}
