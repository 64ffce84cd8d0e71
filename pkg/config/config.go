// Package config loads and validates server configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables carrying the Strava application credentials.
// Credentials never live in config files.
const (
	EnvClientID     = "STRAVA_CLIENT_ID"
	EnvClientSecret = "STRAVA_CLIENT_SECRET"
)

// Token store backends.
const (
	TokensBackendMemory   = "memory"
	TokensBackendFile     = "file"
	TokensBackendPostgres = "postgres"
)

// Config holds the complete server configuration.
type Config struct {
	Server Server `yaml:"server"`
	OAuth  OAuth  `yaml:"oauth"`
	Tokens Tokens `yaml:"tokens"`
}

// Server configures the MCP server.
type Server struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`   // http transport only
}

// OAuth configures the loopback callback endpoint.
type OAuth struct {
	CallbackHost string `yaml:"callback_host"`
	CallbackPort int    `yaml:"callback_port"`
	CallbackPath string `yaml:"callback_path"`
}

// Tokens configures credential storage.
type Tokens struct {
	Backend string `yaml:"backend"` // "memory", "file", "postgres"

	// File backend.
	Path          string `yaml:"path"`
	PassphraseEnv string `yaml:"passphrase_env"`

	// Postgres backend.
	DSN string `yaml:"dsn"`
}

// Credentials holds the Strava application credentials read from the
// environment.
type Credentials struct {
	ClientID     int
	ClientSecret string
}

// Load reads configuration from a file. ${VAR} patterns expand from the
// environment. An empty path yields a default configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		// #nosec G304 -- path is from CLI args, controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = []byte(expandEnvVars(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mcp-strava"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.OAuth.CallbackHost == "" {
		cfg.OAuth.CallbackHost = "127.0.0.1"
	}
	if cfg.OAuth.CallbackPort == 0 {
		cfg.OAuth.CallbackPort = 5050
	}
	if cfg.OAuth.CallbackPath == "" {
		cfg.OAuth.CallbackPath = "/strava-oauth"
	}
	if cfg.Tokens.Backend == "" {
		cfg.Tokens.Backend = TokensBackendMemory
	}
	if cfg.Tokens.PassphraseEnv == "" {
		cfg.Tokens.PassphraseEnv = "STRAVA_TOKENS_PASSPHRASE"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Sprintf("server.transport %q is not supported (use stdio or http)", c.Server.Transport))
	}

	switch c.Tokens.Backend {
	case TokensBackendMemory:
	case TokensBackendFile:
		if c.Tokens.Path == "" {
			errs = append(errs, "tokens.path is required for the file backend")
		}
	case TokensBackendPostgres:
		if c.Tokens.DSN == "" {
			errs = append(errs, "tokens.dsn is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("tokens.backend %q is not supported", c.Tokens.Backend))
	}

	if !strings.HasPrefix(c.OAuth.CallbackPath, "/") {
		errs = append(errs, "oauth.callback_path must begin with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadCredentials reads the Strava application credentials from the
// environment. Both variables must be set together.
func LoadCredentials() (*Credentials, error) {
	rawID := os.Getenv(EnvClientID)
	secret := os.Getenv(EnvClientSecret)
	if rawID == "" || secret == "" {
		return nil, fmt.Errorf("%s and %s must both be set", EnvClientID, EnvClientSecret)
	}

	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer: %w", EnvClientID, err)
	}

	return &Credentials{ClientID: id, ClientSecret: secret}, nil
}

// HasCredentials reports whether both credential variables are set, without
// validating them.
func HasCredentials() bool {
	return os.Getenv(EnvClientID) != "" && os.Getenv(EnvClientSecret) != ""
}
