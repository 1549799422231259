// Package config loads and validates the oictl configuration file.
//
// Configuration is read from a TOML file (preferred) or a JSON file kept
// compatible with the legacy tooling. A config describes the target OIC
// deployment (base URL, region), the API paths for the inventory and import
// endpoints, and one or more named environments with their bearer tokens.
//
// Example config.toml:
//
//	base_url = "https://design.integration.eu-frankfurt-1.ocp.oraclecloud.com"
//	region = "eu-frankfurt-1"
//	export_directory = "./export"
//
//	[api_uris]
//	retrieve_connections = "/ic/api/integration/v1/connections"
//	retrieve_integrations = "/ic/api/integration/v1/integrations"
//	import_integration = "/ic/api/integration/v1/integrations/archive"
//
//	[environments.dev]
//	instance = "acme-dev"
//	[environments.dev.authorization]
//	bearer_token = "..."
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/oictools/oictl/pkg/errors"
)

// Config is the root configuration for all oictl commands.
type Config struct {
	BaseURL         string                 `toml:"base_url" json:"base_url"`
	Region          string                 `toml:"region" json:"region"`
	ExportDirectory string                 `toml:"export_directory" json:"export_directory"`
	APIs            APIPaths               `toml:"api_uris" json:"api_uris"`
	Environments    map[string]Environment `toml:"environments" json:"environments"`
}

// APIPaths maps logical API names to URI paths on the OIC hosts.
type APIPaths struct {
	RetrieveConnections  string `toml:"retrieve_connections" json:"retrieve_connections"`
	RetrieveIntegrations string `toml:"retrieve_integrations" json:"retrieve_integrations"`
	ImportIntegration    string `toml:"import_integration" json:"import_integration"`
}

// Environment holds per-environment settings (dev, test, prod, ...).
type Environment struct {
	Instance      string        `toml:"instance" json:"instance"`
	Authorization Authorization `toml:"authorization" json:"authorization"`
}

// Authorization carries the credentials for an environment.
type Authorization struct {
	BearerToken string `toml:"bearer_token" json:"bearer_token"`
}

// Load reads and validates a configuration file.
// The format is chosen by extension: .toml is decoded with BurntSushi/toml,
// anything else is treated as JSON for compatibility with legacy config.json
// files. Validation runs before the config is returned, so a non-nil result
// is always usable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all fields required to reach the platform are present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "base_url is required")
	}
	if c.Region == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "region is required")
	}
	if c.APIs.RetrieveConnections == "" || c.APIs.RetrieveIntegrations == "" || c.APIs.ImportIntegration == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "api_uris must define retrieve_connections, retrieve_integrations and import_integration")
	}
	if len(c.Environments) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one environment is required")
	}
	for name, env := range c.Environments {
		if env.Instance == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "environment %q: instance is required", name)
		}
		if env.Authorization.BearerToken == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "environment %q: authorization.bearer_token is required", name)
		}
	}
	return nil
}

// Env returns the named environment.
func (c *Config) Env(name string) (Environment, error) {
	env, ok := c.Environments[name]
	if !ok {
		names := make([]string, 0, len(c.Environments))
		for n := range c.Environments {
			names = append(names, n)
		}
		return Environment{}, errors.New(errors.ErrCodeEnvNotFound,
			"environment %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	return env, nil
}

// InstanceHost returns the per-instance API host for an environment.
// This is the "legacy" host variant that addresses the instance directly.
func (c *Config) InstanceHost(env Environment) string {
	return fmt.Sprintf("https://%s.integration.%s.ocp.oraclecloud.com", env.Instance, c.Region)
}

// DesignHost returns the shared design-time API host.
// Requests against this host carry an integrationInstance query parameter
// to select the instance.
func (c *Config) DesignHost() string {
	return EnsureHTTPS(c.BaseURL)
}

// EnsureHTTPS normalizes a URL to use the https scheme.
// Plain host names and http URLs are rewritten; https URLs pass through.
func EnsureHTTPS(rawURL string) string {
	if strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return "https://" + strings.TrimPrefix(rawURL, "http://")
}
