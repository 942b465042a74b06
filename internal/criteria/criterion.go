package criteria

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/models"
)

// Criterion is one configured rule. Threshold is nil for flag kinds and for thresholds
// that could not be read as a number; the latter fail at evaluation time.
type Criterion struct {
	Kind      Kind        `json:"kind"`
	Threshold *float64    `json:"threshold"`
	Value     interface{} `json:"value"`
}

// Key returns the configuration key of the criterion.
func (c Criterion) Key() string {
	return string(c.Kind)
}

// Build constructs the ordered criterion list for cfg. Unknown keys are skipped with a
// warning and positive_earnings is only built when its flag is truthy. An empty or
// repeated key makes the configuration structurally invalid.
func Build(cfg models.CriteriaConfig, logger arbor.ILogger) ([]Criterion, error) {
	seen := make(map[string]bool, len(cfg))
	criteria := make([]Criterion, 0, len(cfg))

	for _, setting := range cfg {
		key := strings.TrimSpace(setting.Key)
		if key == "" {
			return nil, fmt.Errorf("criteria configuration contains an empty key")
		}
		if seen[key] {
			return nil, fmt.Errorf("criteria configuration repeats key %q", key)
		}
		seen[key] = true

		if !Known(key) {
			if logger != nil {
				logger.Warn().Str("criterion", key).Msg("Unknown criterion, skipping")
			}
			continue
		}

		kind := Kind(key)
		if kind == KindPositiveEarnings {
			if Truthy(setting.Value) {
				criteria = append(criteria, Criterion{Kind: kind, Value: setting.Value})
			}
			continue
		}

		threshold, ok := Number(setting.Value)
		if !ok && logger != nil {
			logger.Warn().
				Str("criterion", key).
				Str("value", fmt.Sprintf("%v", setting.Value)).
				Msg("Criterion threshold is not numeric, it will fail evaluation")
		}
		c := Criterion{Kind: kind, Value: setting.Value}
		if ok {
			c.Threshold = &threshold
		}
		criteria = append(criteria, c)
	}

	return criteria, nil
}

// ValidationError lists the problems found in a criteria configuration.
type ValidationError struct {
	Unknown    []string
	NonNumeric []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown criteria: "+strings.Join(e.Unknown, ", "))
	}
	if len(e.NonNumeric) > 0 {
		parts = append(parts, "non-numeric thresholds: "+strings.Join(e.NonNumeric, ", "))
	}
	return "invalid criteria configuration: " + strings.Join(parts, "; ")
}

// Validate reports unknown keys and non-numeric thresholds. It returns nil for a
// configuration Build would accept without warnings.
func Validate(cfg models.CriteriaConfig) error {
	verr := &ValidationError{}
	for _, setting := range cfg {
		key := strings.TrimSpace(setting.Key)
		if !Known(key) {
			verr.Unknown = append(verr.Unknown, key)
			continue
		}
		if Kind(key) == KindPositiveEarnings {
			continue
		}
		if _, ok := Number(setting.Value); !ok {
			verr.NonNumeric = append(verr.NonNumeric, key)
		}
	}
	if len(verr.Unknown) == 0 && len(verr.NonNumeric) == 0 {
		return nil
	}
	return verr
}

// Number reads a numeric threshold from a configuration value.
func Number(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Truthy reports whether a flag value enables its criterion.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := Number(value); ok {
		return f != 0
	}
	return true
}

// Describe maps every recognized key to its comparison.
func Describe() map[string]string {
	out := make(map[string]string, len(Kinds))
	for _, k := range Kinds {
		out[string(k)] = k.Description()
	}
	return out
}

// SortedKeys returns the recognized keys in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}
