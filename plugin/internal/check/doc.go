// Package check resolves the monitoring status of one Prometheus alert.
//
// types.go defines the per-invocation data model: AlertRule, FiringAlert,
// LabelMatchSet and Result, plus the Status enumeration whose values equal
// the plugin exit codes (0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN).
//
// severity.go maps the "severity" label of a firing alert to a classification.
// crit|critical|page → CRITICAL, warn|warning → WARNING; CRITICAL always wins.
//
// resolver.go provides Resolver, which fetches the rule catalog and the firing
// alerts from a Source (concurrently unless Options.Parallel is false), checks
// the alert is a registered alerting rule, filters by name and label subset,
// and classifies the matches. Evaluate is the pure part of that flow and is
// used directly by tests.
//
// errors.go holds the error taxonomy. Every failure is a *Error whose Kind is
// one of the exported sentinels, so callers use errors.Is to branch on it.
package check
