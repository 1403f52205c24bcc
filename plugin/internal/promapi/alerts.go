package promapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/common/model"

	"github.com/p2i/p2i/plugin/internal/check"
)

// summaryAnnotation is the annotation carried as the alert's summary.
const summaryAnnotation = "summary"

// alertsData is the "data" member of GET api/v1/alerts.
type alertsData struct {
	Alerts *[]alertEntry `json:"alerts"`
}

// Labels and annotations are plain maps: model.LabelSet rejects UTF-8 and
// dashed names that servers are allowed to send.
type alertEntry struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	// State is "firing" or "pending". Older servers omit it.
	State string `json:"state"`
}

// FiringAlerts returns every firing alert reported by the server.
// Pending alerts are skipped. One malformed entry fails the whole fetch.
func (c *Client) FiringAlerts(ctx context.Context) ([]check.FiringAlert, error) {
	data, err := c.get(ctx, alertsEndpoint)
	if err != nil {
		return nil, err
	}
	alerts, err := parseAlerts(data)
	if err != nil {
		return nil, shapeError(c.api.URL(alertsEndpoint, nil).String(), err)
	}
	slog.Debug("promapi: firing alerts loaded", "firing", len(alerts))
	return alerts, nil
}

func parseAlerts(raw json.RawMessage) ([]check.FiringAlert, error) {
	var data alertsData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	if data.Alerts == nil {
		return nil, missingKey("data.alerts")
	}

	out := make([]check.FiringAlert, 0, len(*data.Alerts))
	for i, a := range *data.Alerts {
		if a.Labels == nil {
			return nil, missingKey(fmt.Sprintf("data.alerts[%d].labels", i))
		}
		name, ok := a.Labels[string(model.AlertNameLabel)]
		if !ok {
			return nil, missingKey(fmt.Sprintf("data.alerts[%d].labels.%s", i, model.AlertNameLabel))
		}
		if a.State != "" && a.State != "firing" {
			continue
		}

		summary := check.DefaultSummary
		if s, ok := a.Annotations[summaryAnnotation]; ok && s != "" {
			summary = s
		}
		out = append(out, check.FiringAlert{
			Name:    name,
			Labels:  toLabelSet(a.Labels),
			Summary: summary,
		})
	}
	return out, nil
}

// toLabelSet converts without validating label names.
func toLabelSet(m map[string]string) model.LabelSet {
	ls := make(model.LabelSet, len(m))
	for k, v := range m {
		ls[model.LabelName(k)] = model.LabelValue(v)
	}
	return ls
}
