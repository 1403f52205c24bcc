package check

import (
	"strings"

	"github.com/prometheus/common/model"
)

// SeverityLabel is the alert label that carries the urgency classification.
const SeverityLabel model.LabelName = "severity"

// severity is the classification of a single firing alert.
// Precedence between classifications is decided by Status.Dominates.
type severity int

const (
	severityNone severity = iota
	severityWarning
	severityCritical
)

// severityValues maps recognised label values to a classification.
// Values are compared case-insensitively.
var severityValues = map[string]severity{
	"crit":     severityCritical,
	"critical": severityCritical,
	"page":     severityCritical,
	"warn":     severityWarning,
	"warning":  severityWarning,
}

// classify returns the classification of an alert from its labels.
// A missing or unrecognised severity label yields severityNone.
func classify(labels model.LabelSet) severity {
	v, ok := labels[SeverityLabel]
	if !ok {
		return severityNone
	}
	return severityValues[strings.ToLower(strings.TrimSpace(string(v)))]
}

// status maps a classification to the plugin status it produces.
func (s severity) status() Status {
	switch s {
	case severityCritical:
		return StatusCritical
	case severityWarning:
		return StatusWarning
	default:
		return StatusUnknown
	}
}
