// Package criteria turns a declarative criteria configuration into an ordered list of
// tagged criteria and evaluates screening metrics against them.
package criteria

import (
	"github.com/ternarybob/screener/internal/models"
)

// Kind identifies a criterion. Its value is the configuration key.
type Kind string

const (
	KindMarketCapMin     Kind = "market_cap_min"
	KindPEMax            Kind = "pe_max"
	KindCurrentRatioMin  Kind = "current_ratio_min"
	KindDebtToEquityMax  Kind = "debt_to_equity_max"
	KindRevenueGrowthMin Kind = "revenue_growth_min"
	KindROEMin           Kind = "roe_min"
	KindPositiveEarnings Kind = "positive_earnings"
)

// Kinds lists every recognized kind in documentation order.
var Kinds = []Kind{
	KindMarketCapMin,
	KindPEMax,
	KindCurrentRatioMin,
	KindDebtToEquityMax,
	KindRevenueGrowthMin,
	KindROEMin,
	KindPositiveEarnings,
}

type comparison int

const (
	atLeast comparison = iota
	atMost
	positive
)

// kindInfo describes how a kind reads and compares its metric.
type kindInfo struct {
	field       string
	comparison  comparison
	missing     string
	failure     string
	format      func(float64) string
	description string
}

var kindTable = map[Kind]kindInfo{
	KindMarketCapMin: {
		field: "market_cap", comparison: atLeast,
		missing: "market_cap_missing", failure: "market_cap_below_min", format: FormatMoney,
		description: "market cap >= threshold",
	},
	KindPEMax: {
		field: "pe_ratio", comparison: atMost,
		missing: "pe_ratio_missing", failure: "pe_ratio_above_max", format: FormatRatio,
		description: "trailing P/E <= threshold",
	},
	KindCurrentRatioMin: {
		field: "current_ratio", comparison: atLeast,
		missing: "current_ratio_missing", failure: "current_ratio_below_min", format: FormatRatio,
		description: "current assets / current liabilities >= threshold",
	},
	KindDebtToEquityMax: {
		field: "debt_to_equity", comparison: atMost,
		missing: "debt_to_equity_missing", failure: "debt_to_equity_above_max", format: FormatRatio,
		description: "total debt / equity <= threshold",
	},
	KindRevenueGrowthMin: {
		field: "revenue_growth", comparison: atLeast,
		missing: "revenue_growth_missing", failure: "revenue_growth_below_min", format: FormatPercent,
		description: "year over year revenue growth >= threshold (decimal, 0.05 = 5%)",
	},
	KindROEMin: {
		field: "roe", comparison: atLeast,
		missing: "roe_missing", failure: "roe_below_min", format: FormatPercent,
		description: "net income / equity >= threshold (decimal, 0.15 = 15%)",
	},
	KindPositiveEarnings: {
		field: "net_income", comparison: positive,
		missing: "net_income_missing", failure: "negative_earnings", format: FormatMoney,
		description: "net income > 0 (flag, only applied when true)",
	},
}

// Known reports whether key names a recognized criterion.
func Known(key string) bool {
	_, ok := kindTable[Kind(key)]
	return ok
}

// Description returns a human readable summary of the comparison for kind.
func (k Kind) Description() string {
	return kindTable[k].description
}

// Field returns the metric name the kind reads.
func (k Kind) Field() string {
	return kindTable[k].field
}

// value returns the metric the kind compares.
func (k Kind) value(m models.Metrics) *float64 {
	switch k {
	case KindMarketCapMin:
		return m.MarketCap
	case KindPEMax:
		return m.PERatio
	case KindCurrentRatioMin:
		return m.CurrentRatio
	case KindDebtToEquityMax:
		return m.DebtToEquity
	case KindRevenueGrowthMin:
		return m.RevenueGrowth
	case KindROEMin:
		return m.ROE
	case KindPositiveEarnings:
		return m.NetIncome
	}
	return nil
}
