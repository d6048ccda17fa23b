package config

import (
	"fmt"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	baseURLVar     = "BASE_URL"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct{ *source }

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Auth Proxy")
}

func (e EnvVars) GetEnv() string {
	return e.get(envVar, "DEV")
}

// GetBaseURL returns the externally visible base URL of this server (e.g., "https://meals.example.com").
// It is used as the issuer and to build every advertised endpoint, including the upstream callback.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.get(baseURLVar, "http://localhost:8080"), "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelEnvVar, "info")
}
