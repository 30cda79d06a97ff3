package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	baseURLVar     = "BASE_URL"
	httpsOnlyVar   = "HTTPS_ONLY"
	environmentVar = "ENV"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "MDB Platform")
}

// GetBaseURL returns the externally visible base URL for the backend
// (e.g. "https://mdb.example.com"). Used for OAuth2 redirect URIs.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(environmentVar)
	if env == "" {
		return "DEV"
	}
	return env
}

// IsHTTPSOnly reports whether auth cookies must carry the Secure flag
// regardless of the inbound scheme. Defaults on outside DEV.
func (e EnvVars) IsHTTPSOnly() bool {
	v := GetEnv(httpsOnlyVar, "")
	if v != "" {
		return v == "true" || v == "1"
	}
	return e.GetEnv() != "DEV"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
