package check

import (
	"strings"

	"github.com/prometheus/common/model"
)

// Status is the monitoring-plugin status of a check.
// The integer values are the process exit codes expected by Nagios/Icinga.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
	StatusUnknown
)

// String returns the status token printed on the plugin's first output line.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode returns the process exit code for s.
// Values outside the enumeration map to UNKNOWN.
func (s Status) ExitCode() int {
	if s < StatusOK || s > StatusUnknown {
		return int(StatusUnknown)
	}
	return int(s)
}

// Dominates reports whether s strictly outranks other.
// Only CRITICAL > WARNING is ordered; OK and UNKNOWN are not comparable.
// Evaluate uses it to pick the winning alert among label matches.
func (s Status) Dominates(other Status) bool {
	return s == StatusCritical && other == StatusWarning
}

// RuleKind is the type of a Prometheus rule as reported by /api/v1/rules.
type RuleKind string

const (
	RuleAlerting  RuleKind = "alerting"
	RuleRecording RuleKind = "recording"
)

// AlertRule is one rule from the rule catalog.
type AlertRule struct {
	Name string
	Kind RuleKind
}

// DefaultSummary is used when a firing alert has no summary annotation.
const DefaultSummary = "No Summary available"

// FiringAlert is one currently firing alert instance.
type FiringAlert struct {
	Name    string
	Labels  model.LabelSet
	Summary string
}

// LabelMatch is a single name=value pair that must be present on an alert.
type LabelMatch struct {
	Name  model.LabelName
	Value model.LabelValue
}

// LabelMatchSet is the ordered set of labels a firing alert must carry to be
// considered the instance being checked. The empty set matches every alert.
type LabelMatchSet []LabelMatch

// Matches reports whether every pair in s is present in labels with an equal value.
func (s LabelMatchSet) Matches(labels model.LabelSet) bool {
	for _, m := range s {
		v, ok := labels[m.Name]
		if !ok || v != m.Value {
			return false
		}
	}
	return true
}

// Get returns the value required for name, if any.
func (s LabelMatchSet) Get(name model.LabelName) (model.LabelValue, bool) {
	for _, m := range s {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

// String renders s in selector form, e.g. {instance="host1", job="node"}.
func (s LabelMatchSet) String() string {
	parts := make([]string, 0, len(s))
	for _, m := range s {
		parts = append(parts, string(m.Name)+"="+quote(string(m.Value)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// Target identifies the alert instance to check.
type Target struct {
	AlertName string
	Labels    LabelMatchSet
}

// Result is the outcome of one check.
type Result struct {
	Status  Status
	Summary string

	// Firing is the number of firing alerts whose name equals the target's.
	Firing int
	// Matched is how many of those also carried the target's labels.
	Matched int
}
