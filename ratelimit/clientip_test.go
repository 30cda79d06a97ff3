package ratelimit_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xquti/mdb-backend/ratelimit"
)

func TestClientIPUsesSocketAddressByDefault(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/forum/threads", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	// Peer is not a trusted proxy, so the header is ignored.
	require.Equal(t, "203.0.113.7", ratelimit.ClientIP(r, nil))
	require.Equal(t, "203.0.113.7", ratelimit.ClientIP(r, []string{"10.0.0.1"}))
}

func TestClientIPHonorsForwardedForFromTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/forum/threads", nil)
	r.RemoteAddr = "10.0.0.1:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.2")

	require.Equal(t, "198.51.100.9", ratelimit.ClientIP(r, []string{"10.0.0.1"}))
}

func TestClientIPRejectsPrivateForwardedAddresses(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
	}{
		{"private", "192.168.1.5"},
		{"loopback", "127.0.0.1"},
		{"link-local", "169.254.0.10"},
		{"unspecified", "0.0.0.0"},
		{"garbage", "not-an-ip"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/forum/threads", nil)
			r.RemoteAddr = "10.0.0.1:443"
			r.Header.Set("X-Forwarded-For", test.forwarded)

			// Falls back to the socket address.
			require.Equal(t, "10.0.0.1", ratelimit.ClientIP(r, []string{"10.0.0.1"}))
		})
	}
}

func TestClientIPFallsBackToRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/forum/threads", nil)
	r.RemoteAddr = "10.0.0.1:443"
	r.Header.Set("X-Forwarded-For", "192.168.1.5")
	r.Header.Set("X-Real-IP", "198.51.100.9")

	require.Equal(t, "198.51.100.9", ratelimit.ClientIP(r, []string{"10.0.0.1"}))
}
