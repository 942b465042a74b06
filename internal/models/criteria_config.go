package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CriterionSetting is one criterion key with its threshold or flag.
type CriterionSetting struct {
	Key   string      `json:"key" toml:"key" yaml:"key"`
	Value interface{} `json:"value" toml:"value" yaml:"value"`
}

// CriteriaConfig is an insertion-ordered mapping of criterion key to threshold or flag.
// Evaluation order follows this order. It marshals to a JSON object with keys in order.
type CriteriaConfig []CriterionSetting

// Get returns the value for key and whether it is present.
func (c CriteriaConfig) Get(key string) (interface{}, bool) {
	for _, s := range c {
		if s.Key == key {
			return s.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of an existing key in place, or appends a new key.
func (c CriteriaConfig) Set(key string, value interface{}) CriteriaConfig {
	for i := range c {
		if c[i].Key == key {
			c[i].Value = value
			return c
		}
	}
	return append(c, CriterionSetting{Key: key, Value: value})
}

// Keys returns the keys in order.
func (c CriteriaConfig) Keys() []string {
	keys := make([]string, len(c))
	for i, s := range c {
		keys[i] = s.Key
	}
	return keys
}

// Merge overlays other onto a copy of c. Keys already in c keep their position,
// new keys are appended in the order they appear in other.
func (c CriteriaConfig) Merge(other CriteriaConfig) CriteriaConfig {
	merged := make(CriteriaConfig, len(c), len(c)+len(other))
	copy(merged, c)
	for _, s := range other {
		merged = merged.Set(s.Key, s.Value)
	}
	return merged
}

// MarshalJSON writes the settings as a JSON object in insertion order.
func (c CriteriaConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal criterion %s: %w", s.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A repeated key keeps its
// first position and takes the last value.
func (c *CriteriaConfig) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("criteria must be a JSON object")
	}

	var out CriteriaConfig
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected criteria key token %v", tok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode criterion %s: %w", key, err)
		}
		out = out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}
