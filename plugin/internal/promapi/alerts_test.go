package promapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2i/p2i/plugin/internal/check"
	"github.com/p2i/p2i/plugin/internal/promtest"
)

func TestFiringAlerts(t *testing.T) {
	srv := promtest.New(t)
	srv.SetAlerts(
		promtest.Firing("disk_full", "Disk is full", "instance", "host1", "severity", "critical"),
		promtest.Firing("node_down", "", "instance", "host2"),
	)

	alerts, err := newTestClient(t, srv.URL()).FiringAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, check.FiringAlert{
		Name: "disk_full",
		Labels: model.LabelSet{
			"alertname": "disk_full",
			"instance":  "host1",
			"severity":  "critical",
		},
		Summary: "Disk is full",
	}, alerts[0])
	assert.Equal(t, "node_down", alerts[1].Name)
	assert.Equal(t, check.DefaultSummary, alerts[1].Summary)
}

func TestFiringAlerts_SkipsPending(t *testing.T) {
	srv := promtest.New(t)
	pending := promtest.Firing("disk_full", "Disk is filling", "instance", "host1", "severity", "warning")
	pending.State = "pending"
	stateless := promtest.Firing("disk_full", "Disk is full", "instance", "host2", "severity", "critical")
	stateless.State = ""
	srv.SetAlerts(pending, stateless)

	alerts, err := newTestClient(t, srv.URL()).FiringAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.LabelValue("host2"), alerts[0].Labels["instance"])
}

func TestFiringAlerts_EmptySummaryAnnotation(t *testing.T) {
	srv := promtest.New(t)
	a := promtest.Firing("disk_full", "")
	a.Annotations = map[string]string{"summary": "", "description": "long text"}
	srv.SetAlerts(a)

	alerts, err := newTestClient(t, srv.URL()).FiringAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, check.DefaultSummary, alerts[0].Summary)
}

func TestFiringAlerts_UTF8AndDashedNames(t *testing.T) {
	srv := promtest.New(t)
	srv.AddAlertingRules("disk_full", "pod_restarting")
	pod := promtest.Firing("pod_restarting", "Pod restarts", "k8s.pod.name", "p1", "severity", "warning")
	pod.Annotations["runbook-url"] = "https://runbooks.example.com/pod"
	srv.SetAlerts(
		promtest.Firing("disk_full", "Disk is full", "instance", "host1", "severity", "critical"),
		pod,
	)
	c := newTestClient(t, srv.URL())

	alerts, err := c.FiringAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, model.LabelValue("p1"), alerts[1].Labels["k8s.pod.name"])
	assert.Equal(t, "Pod restarts", alerts[1].Summary)

	target := check.Target{
		AlertName: "disk_full",
		Labels:    check.LabelMatchSet{{Name: "instance", Value: "host1"}},
	}
	res, err := check.NewResolver(c, check.DefaultOptions).Check(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, check.StatusCritical, res.Status)

	target = check.Target{
		AlertName: "pod_restarting",
		Labels:    check.LabelMatchSet{{Name: "k8s.pod.name", Value: "p1"}},
	}
	res, err = check.NewResolver(c, check.DefaultOptions).Check(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, check.StatusWarning, res.Status)
}

func TestFiringAlerts_UnexpectedShape(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"no alerts key":  {`{"status":"success","data":{}}`, `missing key "data.alerts"`},
		"no labels":      {`{"status":"success","data":{"alerts":[{"state":"firing"}]}}`, `missing key "data.alerts[0].labels"`},
		"no alertname":   {`{"status":"success","data":{"alerts":[{"labels":{"instance":"a"}}]}}`, `missing key "data.alerts[0].labels.alertname"`},
		"alerts not arr": {`{"status":"success","data":{"alerts":{}}}`, "decode alerts"},
		"not json":       {`<html></html>`, "decode JSON"},
		"label not str":  {`{"status":"success","data":{"alerts":[{"labels":{"alertname":"a","n":1}}]}}`, "decode alerts"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := promtest.New(t)
			srv.SetRaw(alertsEndpoint, http.StatusOK, tc.body)

			_, err := newTestClient(t, srv.URL()).FiringAlerts(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, check.ErrUnexpectedShape)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestClient_FeedsResolver(t *testing.T) {
	srv := promtest.New(t)
	srv.AddAlertingRules("disk_full")
	srv.SetAlerts(
		promtest.Firing("disk_full", "Disk is full", "instance", "host1", "severity", "critical"),
		promtest.Firing("disk_full", "Disk almost full", "instance", "host1", "severity", "warning"),
	)

	target := check.Target{
		AlertName: "disk_full",
		Labels:    check.LabelMatchSet{{Name: "instance", Value: "host1"}},
	}
	res, err := check.NewResolver(newTestClient(t, srv.URL()), check.DefaultOptions).
		Check(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, check.StatusCritical, res.Status)
	assert.Equal(t, "Disk is full", res.Summary)
	assert.Equal(t, 1, srv.Requests(rulesEndpoint))
	assert.Equal(t, 1, srv.Requests(alertsEndpoint))
}
