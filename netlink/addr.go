package netlink

import (
	"errors"
	"net/netip"
)

// addr is the optional IPv4 address requested from DHCP, set via linker
// flags. It becomes a static address when DHCP does not complete.
var addr string

// parseRequested parses a requested DHCP address. Empty means none and
// yields the unspecified address.
func parseRequested(s string) (netip.Addr, error) {
	if s == "" {
		return netip.AddrFrom4([4]byte{}), nil
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, errors.New("parse requested address:" + err.Error())
	}
	if !ip.Is4() {
		return netip.Addr{}, errors.New("only dhcpv4 supported")
	}
	return ip, nil
}

// staticFallback reports whether requested can be assigned statically
// after DHCP fails.
func staticFallback(requested netip.Addr) bool {
	return requested.IsValid() && !requested.IsUnspecified()
}
