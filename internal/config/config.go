package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	UpstreamConfig
	StoreConfig
	ResourceConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Upstream
	Store
	Resource
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newMainConfig(&source{})
}

// NewFromFile returns a Config that reads a flat YAML file of KEY: value pairs.
// Environment variables always take precedence over the file.
func NewFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config NewFromFile] read %s: %w", path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[config NewFromFile] parse %s: %w", path, err)
	}
	return newMainConfig(&source{file: values}), nil
}

// NewFromValues builds a Config from an explicit set of values, still overridable by the environment.
func NewFromValues(values map[string]string) Config {
	return newMainConfig(&source{file: values})
}

func newMainConfig(src *source) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{src},
		Cors:     Cors{src},
		OAuth:    OAuth{src},
		Security: Security{src},
		Upstream: Upstream{src},
		Store:    Store{src},
		Resource: Resource{src},
	}
}
