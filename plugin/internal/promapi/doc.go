// Package promapi reads alerting state from a Prometheus-compatible HTTP API.
//
// Client wraps a client_golang api.Client whose RoundTripper is built from the
// plugin configuration by prometheus/common/config (TLS trust, basic auth,
// bearer token, mTLS), plus an API-key header injector for gateways that
// expect one. Every request is a single GET bounded by the configured timeout;
// there is no retry.
//
// Client.AlertingRules queries api/v1/rules and Client.FiringAlerts queries
// api/v1/alerts. Both satisfy check.Source. Failures are *check.Error values:
// ErrEndpointUnreachable for connection failures, timeouts and non-2xx
// responses, ErrCertificate for TLS verification failures (with a description
// of the offending certificate), ErrUnexpectedShape when the JSON does not
// have the expected keys. A malformed alert entry fails the whole fetch.
package promapi
