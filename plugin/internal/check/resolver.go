package check

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Source supplies the two inputs of a check. promapi.Client implements it.
type Source interface {
	// AlertingRules returns the names of all rules whose type is "alerting".
	AlertingRules(ctx context.Context) ([]string, error)
	// FiringAlerts returns every currently firing alert.
	FiringAlerts(ctx context.Context) ([]FiringAlert, error)
}

// Options controls how a Resolver reports failures and schedules fetches.
type Options struct {
	// ThrowOnUnknown returns failures as errors. When false, Check logs the
	// failure and returns a bare UNKNOWN result with a nil error.
	ThrowOnUnknown bool

	// Parallel fetches rules and alerts concurrently. When false the alerts
	// endpoint is only queried after the rule check has passed.
	Parallel bool
}

// DefaultOptions matches the plugin's command-line defaults.
var DefaultOptions = Options{ThrowOnUnknown: true, Parallel: true}

// Resolver decides the status of one alert against a Source.
// A Resolver holds no state between calls and is safe for concurrent use.
type Resolver struct {
	src  Source
	opts Options
}

// NewResolver returns a Resolver reading from src.
func NewResolver(src Source, opts Options) *Resolver {
	return &Resolver{src: src, opts: opts}
}

// resolution stages, logged as the check progresses.
const (
	stageStart           = "start"
	stageRulesChecked    = "rules_checked"
	stageFilteredByName  = "filtered_by_name"
	stageLabelsEvaluated = "labels_evaluated"
	stageResolved        = "resolved"
)

// Check resolves the status of t.
//
// On failure with ThrowOnUnknown set, the returned Result is UNKNOWN with the
// error message as summary, and err is a *Error. The Result is never OK when
// err is non-nil.
func (r *Resolver) Check(ctx context.Context, t Target) (Result, error) {
	res, err := r.resolve(ctx, t)
	if err == nil {
		return res, nil
	}
	if r.opts.ThrowOnUnknown {
		return Result{Status: StatusUnknown, Summary: err.Error()}, err
	}
	slog.Warn("check: failure reported as UNKNOWN",
		"alert", t.AlertName, "labels", t.Labels.String(), "err", err)
	return Result{Status: StatusUnknown}, nil
}

func (r *Resolver) resolve(ctx context.Context, t Target) (Result, error) {
	slog.Debug("check: resolving", "stage", stageStart,
		"alert", t.AlertName, "labels", t.Labels.String(), "parallel", r.opts.Parallel)

	var (
		rules  []string
		alerts []FiringAlert
	)
	if r.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			rules, err = r.src.AlertingRules(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			alerts, err = r.src.FiringAlerts(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
		if err := requireRegistered(rules, t.AlertName); err != nil {
			return Result{}, err
		}
	} else {
		var err error
		if rules, err = r.src.AlertingRules(ctx); err != nil {
			return Result{}, err
		}
		if err := requireRegistered(rules, t.AlertName); err != nil {
			return Result{}, err
		}
		if alerts, err = r.src.FiringAlerts(ctx); err != nil {
			return Result{}, err
		}
	}
	slog.Debug("check: rule registered", "stage", stageRulesChecked,
		"alert", t.AlertName, "alerting_rules", len(rules), "firing_alerts", len(alerts))

	res, err := Evaluate(t, alerts)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("check: resolved", "stage", stageResolved,
		"alert", t.AlertName, "status", res.Status.String(), "firing", res.Firing, "matched", res.Matched)
	return res, nil
}

// requireRegistered fails with ErrAlertNotRegistered when name is not among rules.
// An alert without a rule can never fire, so its absence is a misconfiguration.
func requireRegistered(rules []string, name string) error {
	for _, r := range rules {
		if r == name {
			return nil
		}
	}
	return &Error{
		Kind: ErrAlertNotRegistered,
		Err:  fmt.Errorf("no alerting rule named %q", name),
	}
}

// Evaluate classifies alerts against t. It assumes t.AlertName is a
// registered alerting rule.
//
// Alerts with another name are ignored. Alerts with the right name but without
// t's labels count as Firing but belong to a different entity. Among the
// matching alerts, CRITICAL dominates WARNING regardless of order; the summary
// comes from the first alert carrying the winning severity. Matching alerts
// that all lack a usable severity yield ErrMissingSeverityLabel.
func Evaluate(t Target, alerts []FiringAlert) (Result, error) {
	var (
		res  Result
		best = severityNone
		top  *FiringAlert
	)
	for i := range alerts {
		a := &alerts[i]
		if a.Name != t.AlertName {
			continue
		}
		res.Firing++
		if !t.Labels.Matches(a.Labels) {
			continue
		}
		res.Matched++
		sev := classify(a.Labels)
		if sev == severityNone {
			continue
		}
		if top == nil || sev.status().Dominates(best.status()) {
			best, top = sev, a
		}
	}
	slog.Debug("check: candidates", "stage", stageFilteredByName, "alert", t.AlertName, "firing", res.Firing)
	slog.Debug("check: labels evaluated", "stage", stageLabelsEvaluated, "alert", t.AlertName, "matched", res.Matched)

	switch {
	case res.Firing == 0:
		res.Status = StatusOK
		res.Summary = fmt.Sprintf("%s is not firing", t.AlertName)
		return res, nil

	case res.Matched == 0:
		res.Status = StatusOK
		res.Summary = fmt.Sprintf("%s is not firing for %s", t.AlertName, t.Labels)
		return res, nil

	case best == severityNone:
		res.Status = StatusUnknown
		return res, &Error{
			Kind: ErrMissingSeverityLabel,
			Err: fmt.Errorf("%d firing %s alert(s) matching %s carry no usable %q label",
				res.Matched, t.AlertName, t.Labels, SeverityLabel),
		}
	}

	res.Status = best.status()
	res.Summary = top.Summary
	if res.Summary == "" {
		res.Summary = DefaultSummary
	}
	return res, nil
}
