package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2i/p2i/plugin/internal/check"
)

func TestParseLabels(t *testing.T) {
	set, err := ParseLabels(`{"job":"node", "instance":"host1"}`)
	require.NoError(t, err)
	assert.Equal(t, check.LabelMatchSet{
		{Name: "job", Value: "node"},
		{Name: "instance", Value: "host1"},
	}, set, "keys keep their written order")
}

func TestParseLabels_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", "{}"} {
		set, err := ParseLabels(in)
		require.NoError(t, err, in)
		assert.Empty(t, set, in)
	}
}

func TestParseLabels_EmptyValue(t *testing.T) {
	set, err := ParseLabels(`{"instance":""}`)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, `{instance=""}`, set.String())
}

func TestParseLabels_UTF8Names(t *testing.T) {
	set, err := ParseLabels(`{"k8s.pod.name":"p1","service-name":"api"}`)
	require.NoError(t, err)
	assert.Equal(t, check.LabelMatchSet{
		{Name: "k8s.pod.name", Value: "p1"},
		{Name: "service-name", Value: "api"},
	}, set)
}

func TestParseLabels_Errors(t *testing.T) {
	cases := map[string]string{
		`[1,2]`:                           "expected a JSON object",
		`"host1"`:                         "expected a JSON object",
		`{"instance":1}`:                  `value of "instance" must be a string`,
		`{"instance":null}`:               `value of "instance" must be a string`,
		`{"a":"1","a":"2"}`:               `duplicate label "a"`,
		`{"":"x"}`:                        "label name must not be empty",
		`{"instance":"host1"} {"x":"y"}`:  "unexpected data",
		`{"instance":"host1"`:             "labels:",
		`{"instance":{"nested":"value"}}`: "must be a string",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			_, err := ParseLabels(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestAddLabel(t *testing.T) {
	set, err := AddLabel(nil, "instance", "host1")
	require.NoError(t, err)
	assert.Equal(t, check.LabelMatchSet{{Name: "instance", Value: "host1"}}, set)

	same, err := AddLabel(set, "instance", "host1")
	require.NoError(t, err)
	assert.Len(t, same, 1)

	_, err = AddLabel(set, "instance", "host2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting values")
}
