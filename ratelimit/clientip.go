package ratelimit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP determines the address a request should be limited on.
//
// Forwarding headers are only honored when the direct peer is one of
// the configured trusted proxies; otherwise any client could spoof
// X-Forwarded-For and spread its requests over arbitrary buckets. Even
// from a trusted proxy, a forwarded address must parse as a public IP;
// private, loopback and link-local addresses are ignored and the
// lookup falls through to the next candidate, ending at the socket
// address.
func ClientIP(r *http.Request, trustedProxies []string) string {
	peer := remoteIP(r)

	if !isTrustedProxy(peer, trustedProxies) {
		return peer
	}

	// Left-most X-Forwarded-For entry is the originating client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip, ok := publicIP(first); ok {
			return ip
		}
	}

	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if ip, ok := publicIP(real); ok {
			return ip
		}
	}

	return peer
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isTrustedProxy(peer string, trustedProxies []string) bool {
	for _, proxy := range trustedProxies {
		if peer == proxy {
			return true
		}
	}
	return false
}

// publicIP parses candidate and reports whether it is a routable public
// address worth using as a limit key.
func publicIP(candidate string) (string, bool) {
	addr, err := netip.ParseAddr(candidate)
	if err != nil {
		return "", false
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsUnspecified() {
		return "", false
	}
	return addr.String(), true
}
