package config

import "time"

type Config interface {
	EnvConfig
	SecurityConfig
	CorsConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	IsHTTPSOnly() bool
}

type SecurityConfig interface {
	GetSigningSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() string
	GetTrustedProxies() []string
	GetAuthorizedRedirectURIs() []string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type StoreConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetDatabaseURL() string
	GetSearchIndexPath() string
	GetOIDCIssuerURL() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
}

type mainConfig struct {
	EnvVars
	Security
	Cors
	Store
}

func New() Config {
	return mainConfig{}
}
