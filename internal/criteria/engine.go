package criteria

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/models"
)

// Engine holds an immutable criteria set built once from configuration.
type Engine struct {
	criteria []Criterion
	logger   arbor.ILogger
}

// NewEngine builds the criteria for cfg. It fails only on a structurally invalid configuration.
func NewEngine(cfg models.CriteriaConfig, logger arbor.ILogger) (*Engine, error) {
	built, err := Build(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{criteria: built, logger: logger}, nil
}

// Criteria returns a copy of the built criteria in evaluation order.
func (e *Engine) Criteria() []Criterion {
	out := make([]Criterion, len(e.criteria))
	copy(out, e.criteria)
	return out
}

// Len returns the number of built criteria.
func (e *Engine) Len() int {
	return len(e.criteria)
}

// Evaluate runs the criteria for ticker and logs criteria that failed to evaluate.
func (e *Engine) Evaluate(ticker string, m models.Metrics) Evaluation {
	eval := Evaluate(e.criteria, m)
	if e.logger != nil && eval.Errors > 0 {
		for _, o := range eval.Outcomes {
			if o.Err != nil {
				e.logger.Error().Err(o.Err).Str("ticker", ticker).Str("criterion", o.Key).Msg("Criterion evaluation failed")
			}
		}
	}
	return eval
}
