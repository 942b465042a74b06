package eodhd

// FundamentalsResponse is the subset of /fundamentals/{symbol} used by the screener.
type FundamentalsResponse struct {
	General    *GeneralInfo `json:"General"`
	Highlights *Highlights  `json:"Highlights"`
	Valuation  *Valuation   `json:"Valuation"`
	Financials *Financials  `json:"Financials"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code          string `json:"Code"`
	Type          string `json:"Type"`
	Name          string `json:"Name"`
	Exchange      string `json:"Exchange"`
	CurrencyCode  string `json:"CurrencyCode"`
	CountryName   string `json:"CountryName"`
	Sector        string `json:"Sector"`
	Industry      string `json:"Industry"`
	FiscalYearEnd string `json:"FiscalYearEnd"`
	IsDelisted    bool   `json:"IsDelisted"`
	UpdatedAt     string `json:"UpdatedAt"`
}

// Highlights contains key financial highlights. EODHD reports 0 for unknown values.
type Highlights struct {
	MarketCapitalization float64 `json:"MarketCapitalization"`
	PERatio              float64 `json:"PERatio"`
	EarningsShare        float64 `json:"EarningsShare"`
	ReturnOnEquityTTM    float64 `json:"ReturnOnEquityTTM"`
	RevenueTTM           float64 `json:"RevenueTTM"`
	MostRecentQuarter    string  `json:"MostRecentQuarter"`
}

// Valuation contains valuation metrics.
type Valuation struct {
	TrailingPE   float64 `json:"TrailingPE"`
	ForwardPE    float64 `json:"ForwardPE"`
	PriceBookMRQ float64 `json:"PriceBookMRQ"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement represents a financial statement with quarterly and yearly data,
// keyed by period end date (YYYY-MM-DD).
type FinancialStatement struct {
	Currency  string                            `json:"currency"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
	Yearly    map[string]map[string]interface{} `json:"yearly"`
}
