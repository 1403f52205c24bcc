package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/common/model"

	"github.com/p2i/p2i/plugin/internal/check"
)

// ParseLabels decodes a JSON object such as {"instance":"host1"} into a
// LabelMatchSet, keeping the keys in the order they were written.
// An empty string yields an empty set.
func ParseLabels(s string) (check.LabelMatchSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("labels: expected a JSON object, got %v", tok)
	}

	var set check.LabelMatchSet
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
		key, _ := tok.(string)

		var value *string
		if err := dec.Decode(&value); err != nil || value == nil {
			return nil, fmt.Errorf("labels: value of %q must be a string", key)
		}

		// Any non-empty UTF-8 name is accepted, matching what servers may attach.
		if key == "" {
			return nil, fmt.Errorf("labels: label name must not be empty")
		}
		name := model.LabelName(key)
		if _, dup := set.Get(name); dup {
			return nil, fmt.Errorf("labels: duplicate label %q", key)
		}
		set = append(set, check.LabelMatch{Name: name, Value: model.LabelValue(*value)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("labels: unexpected data after JSON object")
	}
	return set, nil
}

// AddLabel appends name=value to set. It fails when set already requires a
// different value for name.
func AddLabel(set check.LabelMatchSet, name, value string) (check.LabelMatchSet, error) {
	ln := model.LabelName(name)
	if existing, ok := set.Get(ln); ok {
		if string(existing) != value {
			return nil, fmt.Errorf("labels: conflicting values for %q: %q and %q", name, existing, value)
		}
		return set, nil
	}
	return append(set, check.LabelMatch{Name: ln, Value: model.LabelValue(value)}), nil
}
