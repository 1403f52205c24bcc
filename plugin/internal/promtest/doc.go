// Package promtest provides an in-process fake of the two Prometheus HTTP API
// endpoints the plugin reads, for use in tests.
//
//	srv := promtest.New(t)
//	srv.AddAlertingRules("disk_full")
//	srv.SetAlerts(promtest.Firing("disk_full", "Disk is full", "instance", "host1", "severity", "critical"))
//	cfg.BaseURL = srv.URL()
//
// SetRaw replaces an endpoint's answer with a fixed status and body, SetDelay
// slows every response down, and Requests / LastHeader expose what the
// client sent.
package promtest
