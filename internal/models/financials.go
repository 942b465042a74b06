// Package models holds the data shapes passed between the fetch, ratio, criteria and
// reporting layers of the screener.
package models

import (
	"math"
	"strings"
)

// Statement maps a line-item name to the value reported for one period.
// Values are whatever the vendor returned; numeric extraction happens in the ratio layer.
type Statement map[string]interface{}

// RawFinancials is the provider-agnostic fundamentals snapshot for one ticker.
// It is immutable once returned by the acquirer.
type RawFinancials struct {
	Ticker               string                 `json:"ticker"`
	CompanyName          string                 `json:"company_name"`
	MarketCap            *float64               `json:"market_cap"`
	PERatio              *float64               `json:"pe_ratio"`
	IncomeStatement      Statement              `json:"income_statement"`
	BalanceSheet         Statement              `json:"balance_sheet"`
	PriorIncomeStatement Statement              `json:"prior_income_statement,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
}

// HasStatements reports whether both current-period statements carry data.
func (r *RawFinancials) HasStatements() bool {
	return r != nil && len(r.IncomeStatement) > 0 && len(r.BalanceSheet) > 0
}

// DisplayName returns the company name, falling back to the ticker.
func (r *RawFinancials) DisplayName() string {
	if r == nil {
		return ""
	}
	if strings.TrimSpace(r.CompanyName) == "" {
		return r.Ticker
	}
	return r.CompanyName
}

// Float returns a pointer to v, or nil when v is NaN or infinite.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NormalizeTicker upper-cases and trims a ticker so it can be used as a lookup key.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
