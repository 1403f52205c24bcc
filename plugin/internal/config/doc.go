// Package config loads the plugin configuration.
//
// Top-level types:
//   - Config: base_url, timeout, throw_on_unknown, parallel, auth, tls
//   - AuthConfig: mode (none|basic|bearer|apikey|mtls), username, password_env,
//     token_env, header, key_env, cert/key/ca files; Password(), Token() and
//     Key() resolve secrets from environment variables
//   - TLSConfig: insecure_skip_verify, server_name
//
// Load(path) reads the optional YAML file on top of Default() (3s timeout,
// throw_on_unknown and parallel enabled). Command-line overrides are applied
// by the caller, then Validate normalises the base URL to end with "/" and
// checks required fields and enums.
//
// ParseLabels decodes the --labels JSON object into an ordered
// check.LabelMatchSet. Any non-empty label name is accepted, including UTF-8
// names such as "k8s.pod.name".
package config
