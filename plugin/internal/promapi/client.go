package promapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/api"
	promcfg "github.com/prometheus/common/config"

	"github.com/p2i/p2i/plugin/internal/check"
	"github.com/p2i/p2i/plugin/internal/config"
)

// API endpoints, relative to the base URL.
const (
	rulesEndpoint  = "api/v1/rules"
	alertsEndpoint = "api/v1/alerts"
)

// Client queries one Prometheus instance. It is safe for concurrent use;
// the underlying connection pool is shared by all requests.
type Client struct {
	api     api.Client
	timeout time.Duration
	now     func() time.Time // injectable for certificate expiry tests
}

// New returns a Client for cfg.BaseURL using cfg's auth and TLS settings.
func New(cfg *config.Config) (*Client, error) {
	rt, err := buildRoundTripper(cfg)
	if err != nil {
		return nil, fmt.Errorf("promapi: build transport: %w", err)
	}
	return newClient(cfg.BaseURL, cfg.Timeout, rt)
}

func newClient(baseURL string, timeout time.Duration, rt http.RoundTripper) (*Client, error) {
	c, err := api.NewClient(api.Config{Address: baseURL, RoundTripper: rt})
	if err != nil {
		return nil, fmt.Errorf("promapi: %w", err)
	}
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &Client{api: c, timeout: timeout, now: time.Now}, nil
}

// apiKeyRoundTripper injects a static API key header into every request.
type apiKeyRoundTripper struct {
	base   http.RoundTripper
	header string
	key    string
}

func (t *apiKeyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(t.header, t.key)
	return t.base.RoundTrip(req)
}

// buildRoundTripper translates the plugin auth/TLS settings into a
// prometheus/common HTTP client configuration.
func buildRoundTripper(cfg *config.Config) (http.RoundTripper, error) {
	hc := promcfg.DefaultHTTPClientConfig
	hc.TLSConfig = promcfg.TLSConfig{
		CAFile:             cfg.Auth.CAFile,
		ServerName:         cfg.TLS.ServerName,
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
	}

	switch cfg.Auth.Mode {
	case config.AuthBasic:
		hc.BasicAuth = &promcfg.BasicAuth{
			Username: cfg.Auth.Username,
			Password: promcfg.Secret(cfg.Auth.Password()),
		}
	case config.AuthBearer:
		hc.Authorization = &promcfg.Authorization{
			Type:        "Bearer",
			Credentials: promcfg.Secret(cfg.Auth.Token()),
		}
	case config.AuthMTLS:
		hc.TLSConfig.CertFile = cfg.Auth.CertFile
		hc.TLSConfig.KeyFile = cfg.Auth.KeyFile
	}

	if err := hc.Validate(); err != nil {
		return nil, err
	}
	rt, err := promcfg.NewRoundTripperFromConfig(hc, "p2i")
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Mode == config.AuthAPIKey {
		rt = &apiKeyRoundTripper{base: rt, header: cfg.Auth.Header, key: cfg.Auth.Key()}
	}
	return rt, nil
}

// envelope is the common wrapper of every Prometheus API response.
type envelope struct {
	Status    string          `json:"status"`
	ErrorType string          `json:"errorType"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
}

// get performs one GET against endpoint and returns the "data" member of the
// response envelope.
func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	u := c.api.URL(endpoint, nil).String()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &check.Error{Kind: check.ErrEndpointUnreachable, Endpoint: u, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, body, err := c.api.Do(ctx, req)
	if err != nil {
		slog.Debug("promapi: request failed", "endpoint", u, "elapsed", time.Since(start), "err", err)
		return nil, c.classify(u, err)
	}
	slog.Debug("promapi: response", "endpoint", u, "status", resp.StatusCode,
		"bytes", len(body), "elapsed", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode/100 != 2 {
		cause := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if decodeErr == nil && env.Error != "" {
			cause = fmt.Errorf("unexpected status %d: %s: %s", resp.StatusCode, env.ErrorType, env.Error)
		}
		return nil, &check.Error{Kind: check.ErrEndpointUnreachable, Endpoint: u, Err: cause}
	}
	if decodeErr != nil {
		return nil, shapeError(u, fmt.Errorf("decode JSON: %w", decodeErr))
	}
	if env.Status == "error" {
		return nil, shapeError(u, fmt.Errorf("api error %s: %s", env.ErrorType, env.Error))
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, shapeError(u, missingKey("data"))
	}
	return env.Data, nil
}

// classify maps a transport error to a check error kind.
func (c *Client) classify(endpoint string, err error) error {
	if desc, ok := certificateProblem(err, c.now()); ok {
		return &check.Error{Kind: check.ErrCertificate, Endpoint: endpoint, Err: fmt.Errorf("%s: %w", desc, err)}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("no response within %s: %w", c.timeout, err)
	}
	return &check.Error{Kind: check.ErrEndpointUnreachable, Endpoint: endpoint, Err: err}
}

func shapeError(endpoint string, err error) error {
	return &check.Error{Kind: check.ErrUnexpectedShape, Endpoint: endpoint, Err: err}
}

func missingKey(path string) error {
	return fmt.Errorf("missing key %q", path)
}
