package promapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/p2i/p2i/plugin/internal/check"
)

// rulesData is the "data" member of GET api/v1/rules.
// Pointers distinguish a missing key from an empty value.
type rulesData struct {
	Groups *[]ruleGroup `json:"groups"`
}

type ruleGroup struct {
	Name  string  `json:"name"`
	Rules *[]rule `json:"rules"`
}

type rule struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

// Rules returns every rule in the catalog, alerting and recording alike.
func (c *Client) Rules(ctx context.Context) ([]check.AlertRule, error) {
	data, err := c.get(ctx, rulesEndpoint)
	if err != nil {
		return nil, err
	}
	rules, err := parseRules(data)
	if err != nil {
		return nil, shapeError(c.api.URL(rulesEndpoint, nil).String(), err)
	}
	return rules, nil
}

// AlertingRules returns the names of rules whose type is "alerting".
// Names are not deduplicated.
func (c *Client) AlertingRules(ctx context.Context) ([]string, error) {
	rules, err := c.Rules(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, r := range rules {
		if r.Kind == check.RuleAlerting {
			names = append(names, r.Name)
		}
	}
	slog.Debug("promapi: rule catalog loaded", "rules", len(rules), "alerting", len(names))
	return names, nil
}

// parseRules walks data.groups[].rules[] and fails on the first missing key.
func parseRules(raw json.RawMessage) ([]check.AlertRule, error) {
	var data rulesData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if data.Groups == nil {
		return nil, missingKey("data.groups")
	}

	var out []check.AlertRule
	for gi, g := range *data.Groups {
		if g.Rules == nil {
			return nil, missingKey(fmt.Sprintf("data.groups[%d].rules", gi))
		}
		for ri, r := range *g.Rules {
			if r.Name == nil {
				return nil, missingKey(fmt.Sprintf("data.groups[%d].rules[%d].name", gi, ri))
			}
			if r.Type == nil {
				return nil, missingKey(fmt.Sprintf("data.groups[%d].rules[%d].type", gi, ri))
			}
			out = append(out, check.AlertRule{Name: *r.Name, Kind: check.RuleKind(*r.Type)})
		}
	}
	return out, nil
}
