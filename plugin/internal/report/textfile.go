package report

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/p2i/p2i/plugin/internal/check"
)

const namespace = "p2i_alert_check"

// WriteTextfile writes res as a Prometheus text exposition to path, for
// pickup by node_exporter's textfile collector. The file is replaced
// atomically so a concurrent scrape never sees a partial write.
func WriteTextfile(path string, t check.Target, res check.Result, now time.Time) error {
	if err := prometheus.WriteToTextfile(path, newRegistry(t, res, now)); err != nil {
		return fmt.Errorf("report: write textfile %q: %w", path, err)
	}
	return nil
}

// newRegistry holds one check result as gauges labelled with the alert name
// and, when set, the label selector that was matched.
func newRegistry(t check.Target, res check.Result, now time.Time) *prometheus.Registry {
	constLabels := prometheus.Labels{"alertname": t.AlertName}
	if len(t.Labels) > 0 {
		constLabels["match"] = t.Labels.String()
	}
	gauge := func(name, help string, v float64) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
		g.Set(v)
		return g
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		gauge("status", "Result of the last alert check: 0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN.",
			float64(res.Status.ExitCode())),
		gauge("firing", "Firing alerts with the checked name.", float64(res.Firing)),
		gauge("matched", "Firing alerts with the checked name that carried the matched labels.",
			float64(res.Matched)),
		gauge("last_run_timestamp_seconds", "Unix time of the last alert check.", float64(now.Unix())),
	)
	return reg
}
