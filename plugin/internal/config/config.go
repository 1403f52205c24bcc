package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file and
// not set on the command line.
const (
	DefaultTimeout        = 3 * time.Second
	DefaultThrowOnUnknown = true
	DefaultParallel       = true
)

// Auth modes.
const (
	AuthNone   = "none"
	AuthBasic  = "basic"
	AuthBearer = "bearer"
	AuthAPIKey = "apikey"
	AuthMTLS   = "mtls"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvUsername = "P2I_USERNAME"
	EnvPassword = "P2I_PASSWORD"
)

// Config is everything the plugin needs besides the alert to check.
// Fields map 1:1 to the YAML config file.
type Config struct {
	// BaseURL is the Prometheus root URL, e.g. "http://localhost:9090/".
	// Validate appends a trailing slash when missing.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// ThrowOnUnknown surfaces failures with their detail. When false they
	// collapse to a bare UNKNOWN.
	ThrowOnUnknown bool `yaml:"throw_on_unknown"`

	// Parallel queries the rules and alerts endpoints concurrently.
	Parallel bool `yaml:"parallel"`

	Auth AuthConfig `yaml:"auth"`
	TLS  TLSConfig  `yaml:"tls"`
}

// AuthConfig specifies how the plugin authenticates to Prometheus.
type AuthConfig struct {
	// Mode is one of: none | basic | bearer | apikey | mtls.
	Mode string `yaml:"mode"`

	// Basic auth: literal username, password read from PasswordEnv.
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`

	// Bearer token read from TokenEnv.
	TokenEnv string `yaml:"token_env"`

	// API key sent in Header, value read from KeyEnv.
	Header string `yaml:"header"`
	KeyEnv string `yaml:"key_env"`

	// mTLS client certificate.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// CAFile is the CA bundle used to verify the server, for any mode.
	CAFile string `yaml:"ca_file"`
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// TLSConfig holds server verification options.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// ServerName overrides the name checked against the server certificate.
	ServerName string `yaml:"server_name"`
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		ThrowOnUnknown: DefaultThrowOnUnknown,
		Parallel:       DefaultParallel,
		Auth:           AuthConfig{Mode: AuthNone},
	}
}

// Load reads and parses the YAML config file at path on top of the defaults.
// The result is not validated; callers apply command-line overrides first and
// then call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv enables basic auth from P2I_USERNAME / P2I_PASSWORD when no other
// auth mode is configured.
func (c *Config) ApplyEnv(getenv func(string) string) {
	user := getenv(EnvUsername)
	if user == "" || (c.Auth.Mode != "" && c.Auth.Mode != AuthNone) {
		return
	}
	c.Auth.Mode = AuthBasic
	c.Auth.Username = user
	if c.Auth.PasswordEnv == "" {
		c.Auth.PasswordEnv = EnvPassword
	}
}

// Validate normalises the base URL and checks required fields and enums.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("config: base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: base_url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("config: base_url %q: missing host", c.BaseURL)
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive")
	}

	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthNone
	}
	switch c.Auth.Mode {
	case AuthNone, AuthBearer:
	case AuthBasic:
		if c.Auth.Username == "" {
			return fmt.Errorf("config: auth.username is required for basic auth")
		}
	case AuthAPIKey:
		if c.Auth.Header == "" {
			return fmt.Errorf("config: auth.header is required for apikey auth")
		}
	case AuthMTLS:
		if c.Auth.CertFile == "" || c.Auth.KeyFile == "" {
			return fmt.Errorf("config: auth.cert_file and auth.key_file are required for mtls")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}
	return nil
}
