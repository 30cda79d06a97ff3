package config

import (
	"strings"
	"time"
)

const (
	signingSecretVar  = "JWT_SECRET"
	accessTTLVar      = "ACCESS_TOKEN_TTL"
	refreshTTLVar     = "REFRESH_TOKEN_TTL"
	issuerVar         = "JWT_ISSUER"
	audienceVar       = "JWT_AUDIENCE"
	trustedProxiesVar = "TRUSTED_PROXIES"
	redirectURIsVar   = "AUTHORIZED_REDIRECT_URIS"

	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSigningSecret() string {
	return GetEnv(signingSecretVar, "")
}

func (Security) GetAccessTokenTTL() time.Duration {
	return durationEnv(accessTTLVar, defaultAccessTokenTTL)
}

func (Security) GetRefreshTokenTTL() time.Duration {
	return durationEnv(refreshTTLVar, defaultRefreshTokenTTL)
}

func (Security) GetIssuer() string {
	return GetEnv(issuerVar, "mdb-platform")
}

func (Security) GetAudience() string {
	return GetEnv(audienceVar, "mdb-users")
}

// GetTrustedProxies returns the proxy addresses whose forwarded-for
// headers may be believed when deriving a client identity. Empty means
// no proxy is trusted and the socket address is always used.
func (Security) GetTrustedProxies() []string {
	return splitList(GetEnv(trustedProxiesVar, ""))
}

func (Security) GetAuthorizedRedirectURIs() []string {
	return splitList(GetEnv(redirectURIsVar, "http://localhost:4200/auth/callback"))
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	v := GetEnv(envVar, "")
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
