package eodhd

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/models"
)

// ProviderName identifies EODHD in logs and metrics
const ProviderName = "eodhd"

// Provider implements interfaces.FundamentalsProvider on the EODHD fundamentals endpoint
type Provider struct {
	client   *Client
	exchange string
	logger   arbor.ILogger
}

// NewProvider creates a provider. Tickers without an exchange resolve to exchange.
func NewProvider(client *Client, exchange string, logger arbor.ILogger) *Provider {
	if exchange == "" {
		exchange = "US"
	}
	return &Provider{client: client, exchange: exchange, logger: logger}
}

// Name implements interfaces.FundamentalsProvider
func (p *Provider) Name() string {
	return ProviderName
}

// FetchFinancials implements interfaces.FundamentalsProvider. A response without yearly
// statements is returned as-is; deciding that it is unusable is the caller's job.
func (p *Provider) FetchFinancials(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	parsed := common.ParseTicker(ticker, p.exchange)
	if parsed.Code == "" {
		return nil, fmt.Errorf("empty ticker")
	}
	symbol := parsed.EODHDSymbol()

	resp, err := p.client.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fundamentals for %s: %w", symbol, err)
	}

	raw := Adapt(models.NormalizeTicker(ticker), resp)
	raw.Metadata["symbol"] = symbol

	p.logger.Debug().
		Str("ticker", raw.Ticker).
		Str("symbol", symbol).
		Int("income_items", len(raw.IncomeStatement)).
		Int("balance_items", len(raw.BalanceSheet)).
		Msg("Fetched fundamentals")

	return raw, nil
}

// Adapt converts a fundamentals response into a RawFinancials snapshot. The most recent
// yearly period becomes the current statement and the one before it the prior income statement.
func Adapt(ticker string, resp *FundamentalsResponse) *models.RawFinancials {
	raw := &models.RawFinancials{
		Ticker:   ticker,
		Metadata: map[string]interface{}{"provider": ProviderName},
	}
	if resp == nil {
		return raw
	}

	if resp.General != nil {
		raw.CompanyName = resp.General.Name
		setMeta(raw.Metadata, "currency", resp.General.CurrencyCode)
		setMeta(raw.Metadata, "sector", resp.General.Sector)
		setMeta(raw.Metadata, "industry", resp.General.Industry)
		setMeta(raw.Metadata, "exchange", resp.General.Exchange)
	}

	if resp.Highlights != nil {
		raw.MarketCap = positive(resp.Highlights.MarketCapitalization)
		raw.PERatio = nonZero(resp.Highlights.PERatio)
	}
	if raw.PERatio == nil && resp.Valuation != nil {
		raw.PERatio = nonZero(resp.Valuation.TrailingPE)
	}

	if resp.Financials == nil {
		return raw
	}

	if periods := yearlyPeriods(resp.Financials.IncomeStatement); len(periods) > 0 {
		raw.IncomeStatement = models.Statement(resp.Financials.IncomeStatement.Yearly[periods[0]])
		raw.Metadata["period"] = periods[0]
		if len(periods) > 1 {
			raw.PriorIncomeStatement = models.Statement(resp.Financials.IncomeStatement.Yearly[periods[1]])
			raw.Metadata["prior_period"] = periods[1]
		}
	}
	if periods := yearlyPeriods(resp.Financials.BalanceSheet); len(periods) > 0 {
		raw.BalanceSheet = models.Statement(resp.Financials.BalanceSheet.Yearly[periods[0]])
	}

	return raw
}

// yearlyPeriods returns the yearly period keys with data, most recent first.
// Keys are ISO dates, so lexical order is chronological.
func yearlyPeriods(statement *FinancialStatement) []string {
	if statement == nil {
		return nil
	}
	periods := make([]string, 0, len(statement.Yearly))
	for period, items := range statement.Yearly {
		if len(items) > 0 {
			periods = append(periods, period)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return models.Float(v)
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return models.Float(v)
}

func setMeta(meta map[string]interface{}, key, value string) {
	if value != "" {
		meta[key] = value
	}
}
