package utils

import (
	"net"
	"net/url"
	"strings"
)

// IsAllowedOrigin reports whether an Origin header should be trusted with the
// release API. The UI is meant to be reached over the local network, so
// localhost, RFC1918 and link-local addresses, mDNS .local names, and bare
// LAN hostnames are accepted. Anything that resolves to the public internet
// is not.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	hostname := parsed.Hostname()

	if hostname == "localhost" || strings.HasSuffix(hostname, ".local") {
		return true
	}
	// Checked before the dot heuristic: IPv6 literals carry no dots.
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
	}
	// A name without dots can only be a LAN hostname.
	return !strings.Contains(hostname, ".")
}
