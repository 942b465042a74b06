package models

// DerivedRatios are computed from RawFinancials on every screening and never cached.
// A nil field means the ratio could not be derived.
type DerivedRatios struct {
	CurrentRatio  *float64 `json:"current_ratio"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	ROE           *float64 `json:"roe"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	NetIncome     *float64 `json:"net_income"`
}

// Metrics is the merged evaluation record the criteria run against.
type Metrics struct {
	MarketCap     *float64 `json:"market_cap"`
	PERatio       *float64 `json:"pe_ratio"`
	CurrentRatio  *float64 `json:"current_ratio"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	ROE           *float64 `json:"roe"`
	NetIncome     *float64 `json:"net_income"`
}

// NewMetrics merges the headline values of raw with the derived ratios.
func NewMetrics(raw *RawFinancials, ratios DerivedRatios) Metrics {
	m := Metrics{
		CurrentRatio:  ratios.CurrentRatio,
		DebtToEquity:  ratios.DebtToEquity,
		RevenueGrowth: ratios.RevenueGrowth,
		ROE:           ratios.ROE,
		NetIncome:     ratios.NetIncome,
	}
	if raw != nil {
		m.MarketCap = raw.MarketCap
		m.PERatio = raw.PERatio
	}
	return m
}
