package criteria

import (
	"errors"
	"fmt"

	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/ratios"
)

// ReasonEvaluationError replaces the reason of a criterion that failed to evaluate.
const ReasonEvaluationError = "evaluation_error"

// ErrNonNumericThreshold is returned for a criterion whose threshold is not a number.
var ErrNonNumericThreshold = errors.New("criterion threshold is not numeric")

// Outcome is the result of one criterion.
type Outcome struct {
	Key    string `json:"key"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// Description renders a failed outcome as "key: reason".
func (o Outcome) Description() string {
	return o.Key + ": " + o.Reason
}

// Evaluation aggregates the outcomes of a criteria set in configuration order.
type Evaluation struct {
	Outcomes []Outcome
	Passed   int
	Total    int
	Failures []string
	Errors   int
}

// Status is PASS when every criterion passed. An empty criteria set passes.
func (e Evaluation) Status() models.Status {
	if e.Passed == e.Total {
		return models.StatusPass
	}
	return models.StatusFail
}

// Evaluate runs every criterion against m. A criterion that errors or panics fails with
// ReasonEvaluationError and does not stop the remaining criteria.
func Evaluate(criteria []Criterion, m models.Metrics) Evaluation {
	eval := Evaluation{
		Outcomes: make([]Outcome, 0, len(criteria)),
		Total:    len(criteria),
	}

	for _, c := range criteria {
		outcome := evaluateOne(c, m)
		eval.Outcomes = append(eval.Outcomes, outcome)
		if outcome.Passed {
			eval.Passed++
			continue
		}
		if outcome.Err != nil {
			eval.Errors++
		}
		eval.Failures = append(eval.Failures, outcome.Description())
	}

	return eval
}

func evaluateOne(c Criterion, m models.Metrics) (outcome Outcome) {
	outcome.Key = c.Key()
	defer func() {
		if r := recover(); r != nil {
			outcome.Passed = false
			outcome.Reason = ReasonEvaluationError
			outcome.Err = fmt.Errorf("criterion %s panicked: %v", c.Key(), r)
		}
	}()

	passed, reason, err := check(c, m)
	if err != nil {
		outcome.Reason = ReasonEvaluationError
		outcome.Err = err
		return outcome
	}
	outcome.Passed = passed
	outcome.Reason = reason
	return outcome
}

// check is the tagged dispatch over criterion kinds.
func check(c Criterion, m models.Metrics) (bool, string, error) {
	s, ok := kindTable[c.Kind]
	if !ok {
		return false, "", fmt.Errorf("unknown criterion kind %q", c.Kind)
	}

	value := c.Kind.value(m)
	if ratios.IsAbsent(value) {
		return false, s.missing, nil
	}
	v := *value

	if s.comparison == positive {
		if v > 0 {
			return true, "", nil
		}
		return false, fmt.Sprintf("%s (%s)", s.failure, s.format(v)), nil
	}

	if c.Threshold == nil {
		return false, "", fmt.Errorf("%s: %w", c.Key(), ErrNonNumericThreshold)
	}
	t := *c.Threshold

	switch s.comparison {
	case atLeast:
		if v >= t {
			return true, "", nil
		}
		return false, fmt.Sprintf("%s (%s < %s)", s.failure, s.format(v), s.format(t)), nil
	case atMost:
		if v <= t {
			return true, "", nil
		}
		return false, fmt.Sprintf("%s (%s > %s)", s.failure, s.format(v), s.format(t)), nil
	}
	return false, "", fmt.Errorf("unsupported comparison for %s", c.Key())
}
