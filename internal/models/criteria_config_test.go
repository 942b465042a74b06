package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaConfigJSONPreservesOrder(t *testing.T) {
	input := `{"pe_max": 25, "market_cap_min": 1000000000, "positive_earnings": true, "roe_min": "high"}`

	var cfg CriteriaConfig
	require.NoError(t, json.Unmarshal([]byte(input), &cfg))

	assert.Equal(t, []string{"pe_max", "market_cap_min", "positive_earnings", "roe_min"}, cfg.Keys())
	v, ok := cfg.Get("positive_earnings")
	require.True(t, ok)
	assert.Equal(t, true, v)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, `{"pe_max":25,"market_cap_min":1000000000,"positive_earnings":true,"roe_min":"high"}`, string(out))
}

func TestCriteriaConfigDuplicateKeyKeepsFirstPosition(t *testing.T) {
	var cfg CriteriaConfig
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1, "b": 2, "a": 3}`), &cfg))

	assert.Equal(t, []string{"a", "b"}, cfg.Keys())
	v, _ := cfg.Get("a")
	assert.Equal(t, float64(3), v)
}

func TestCriteriaConfigRejectsNonObject(t *testing.T) {
	var cfg CriteriaConfig
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &cfg))
}

func TestCriteriaConfigMerge(t *testing.T) {
	base := CriteriaConfig{{Key: "market_cap_min", Value: 1e9}, {Key: "pe_max", Value: 25.0}}
	overlay := CriteriaConfig{{Key: "roe_min", Value: 0.15}, {Key: "pe_max", Value: 20.0}}

	merged := base.Merge(overlay)

	assert.Equal(t, []string{"market_cap_min", "pe_max", "roe_min"}, merged.Keys())
	v, _ := merged.Get("pe_max")
	assert.Equal(t, 20.0, v)

	// base is untouched
	v, _ = base.Get("pe_max")
	assert.Equal(t, 25.0, v)
}

func TestCriteriaConfigNullAndEmpty(t *testing.T) {
	var cfg CriteriaConfig
	require.NoError(t, json.Unmarshal([]byte(`null`), &cfg))
	assert.Nil(t, cfg)

	out, err := json.Marshal(CriteriaConfig{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}
