// Package report renders check results.
//
// Reporter.Report prints the single status line monitoring systems parse:
// "CRITICAL - Disk is full | firing=2 matched=1". The summary is flattened to
// one line and "|" is replaced so it cannot leak into performance data.
//
// WriteTextfile additionally exposes the result as Prometheus gauges in a
// throwaway registry, written with prometheus.WriteToTextfile for
// node_exporter's textfile collector.
package report
