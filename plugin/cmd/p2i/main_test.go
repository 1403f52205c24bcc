package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2i/p2i/plugin/internal/promtest"
)

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String()
}

func diskFullServer(t *testing.T) *promtest.Server {
	t.Helper()
	srv := promtest.New(t)
	srv.AddAlertingRules("disk_full", "node_down")
	srv.SetAlerts(
		promtest.Firing("disk_full", "Disk is full", "instance", "host1", "severity", "critical"),
		promtest.Firing("disk_full", "Disk almost full", "instance", "host2", "severity", "warning"),
	)
	return srv
}

func TestRun_Critical(t *testing.T) {
	srv := diskFullServer(t)
	code, out := runCLI(t, "-b", srv.URL(), "-a", "disk_full", "-l", `{"instance":"host1"}`)

	assert.Equal(t, 2, code)
	assert.Equal(t, "CRITICAL - Disk is full | firing=2 matched=1\n", out)
}

func TestRun_WarningViaInstanceFlag(t *testing.T) {
	srv := diskFullServer(t)
	code, out := runCLI(t, "--baseurl", srv.URL(), "--alertname", "disk_full", "-i", "host2")

	assert.Equal(t, 1, code)
	assert.Equal(t, "WARNING - Disk almost full | firing=2 matched=1\n", out)
}

func TestRun_NotFiring(t *testing.T) {
	srv := diskFullServer(t)
	code, out := runCLI(t, "-b", srv.URL(), "-a", "node_down")

	assert.Equal(t, 0, code)
	assert.Equal(t, "OK - node_down is not firing | firing=0 matched=0\n", out)
}

func TestRun_NotRegistered(t *testing.T) {
	srv := diskFullServer(t)

	code, out := runCLI(t, "-b", srv.URL(), "-a", "bogus")
	assert.Equal(t, 3, code)
	assert.Contains(t, out, "UNKNOWN - alert does not exist")

	code, out = runCLI(t, "-b", srv.URL(), "-a", "bogus", "--no-throw")
	assert.Equal(t, 3, code)
	assert.Equal(t, "UNKNOWN\n", out)
}

func TestRun_Sequential(t *testing.T) {
	srv := diskFullServer(t)
	code, _ := runCLI(t, "-b", srv.URL(), "-a", "bogus", "--sequential")

	assert.Equal(t, 3, code)
	assert.Equal(t, 1, srv.Requests("api/v1/rules"))
	assert.Equal(t, 0, srv.Requests("api/v1/alerts"))
}

func TestRun_Quiet(t *testing.T) {
	srv := diskFullServer(t)
	code, out := runCLI(t, "-b", srv.URL(), "-a", "disk_full", "-q")

	assert.Equal(t, 2, code)
	assert.Empty(t, out)
}

func TestRun_Unreachable(t *testing.T) {
	code, out := runCLI(t, "-b", "http://127.0.0.1:1/", "-a", "disk_full", "-t", "0.5")

	assert.Equal(t, 3, code)
	assert.Contains(t, out, "UNKNOWN - endpoint unreachable")
}

func TestRun_ConfigFileAndOverride(t *testing.T) {
	srv := diskFullServer(t)
	path := filepath.Join(t.TempDir(), "p2i.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: \"http://127.0.0.1:1/\"\nthrow_on_unknown: false\n"), 0o600))

	// File alone points at a dead endpoint and suppresses detail.
	code, out := runCLI(t, "-c", path, "-a", "disk_full")
	assert.Equal(t, 3, code)
	assert.Equal(t, "UNKNOWN\n", out)

	// The flag wins over the file.
	code, out = runCLI(t, "-c", path, "-b", srv.URL(), "-a", "disk_full", "-i", "host1")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, "CRITICAL - Disk is full")
}

func TestRun_BasicAuthFromEnv(t *testing.T) {
	t.Setenv("P2I_USERNAME", "nagios")
	t.Setenv("P2I_PASSWORD", "s3cret")
	srv := diskFullServer(t)

	code, _ := runCLI(t, "-b", srv.URL(), "-a", "node_down")
	assert.Equal(t, 0, code)
	user, pass, ok := basicAuth(srv)
	require.True(t, ok)
	assert.Equal(t, "nagios", user)
	assert.Equal(t, "s3cret", pass)
}

func TestRun_Textfile(t *testing.T) {
	srv := diskFullServer(t)
	path := filepath.Join(t.TempDir(), "p2i.prom")

	code, _ := runCLI(t, "-b", srv.URL(), "-a", "disk_full", "-i", "host1", "--textfile", path)
	assert.Equal(t, 2, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `p2i_alert_check_status{alertname="disk_full"`)
}

func TestRun_UsageErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing alertname", []string{"-b", "http://localhost:9090/"}, "--alertname is required"},
		{"missing base url", []string{"-a", "disk_full"}, "base_url is required"},
		{"bad labels", []string{"-b", "http://localhost:9090/", "-a", "x", "-l", "[1]"}, "expected a JSON object"},
		{"conflicting instance", []string{"-b", "http://localhost:9090/", "-a", "x", "-l", `{"instance":"a"}`, "-i", "b"}, "conflicting values"},
		{"unknown flag", []string{"--bogus"}, "unknown flag: --bogus"},
		{"bad timeout", []string{"-b", "http://localhost:9090/", "-a", "x", "-t", "0"}, "timeout must be positive"},
		{"bad log level", []string{"--log-level", "loud"}, "invalid --log-level"},
		{"missing config", []string{"-c", "/nonexistent/p2i.yaml", "-a", "x"}, "read file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out := runCLI(t, tc.args...)
			assert.Equal(t, 3, code)
			assert.Contains(t, out, "UNKNOWN - ")
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestRun_HelpAndVersion(t *testing.T) {
	code, out := runCLI(t, "-h")
	assert.Equal(t, 3, code)
	assert.Contains(t, out, "Usage: p2i")
	assert.Contains(t, out, "--alertname")

	code, out = runCLI(t, "--version")
	assert.Equal(t, 3, code)
	assert.Contains(t, out, "p2i, version")
}

// basicAuth decodes the Authorization header of the server's last request.
func basicAuth(srv *promtest.Server) (string, string, bool) {
	r := &http.Request{Header: srv.LastHeader()}
	return r.BasicAuth()
}
