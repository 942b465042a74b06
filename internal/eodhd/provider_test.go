package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/ratios"
)

const fundamentalsJSON = `{
  "General": {"Code": "AAPL", "Name": "Apple Inc", "Exchange": "NASDAQ", "CurrencyCode": "USD", "Sector": "Technology"},
  "Highlights": {"MarketCapitalization": 3000000000000, "PERatio": 0},
  "Valuation": {"TrailingPE": 29.5},
  "Financials": {
    "Income_Statement": {
      "currency": "USD",
      "yearly": {
        "2023-09-30": {"date": "2023-09-30", "totalRevenue": "383285000000.00", "netIncome": "96995000000.00"},
        "2024-09-30": {"date": "2024-09-30", "totalRevenue": "391035000000.00", "netIncome": "93736000000.00"},
        "2022-09-30": {"date": "2022-09-30", "totalRevenue": "394328000000.00", "netIncome": "99803000000.00"}
      }
    },
    "Balance_Sheet": {
      "currency": "USD",
      "yearly": {
        "2024-09-30": {"totalCurrentAssets": "152987000000.00", "totalCurrentLiabilities": "176392000000.00", "shortLongTermDebtTotal": "106629000000.00", "totalStockholderEquity": "56950000000.00"},
        "2023-09-30": {"totalCurrentAssets": "143566000000.00"}
      }
    }
  }
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	return NewProvider(client, "US", common.NewSilentLogger())
}

func TestFetchFinancials(t *testing.T) {
	var gotPath, gotToken, gotFmt string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("api_token")
		gotFmt = r.URL.Query().Get("fmt")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fundamentalsJSON))
	})

	raw, err := provider.FetchFinancials(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "/fundamentals/AAPL.US", gotPath)
	assert.Equal(t, "test-key", gotToken)
	assert.Equal(t, "json", gotFmt)

	assert.Equal(t, "AAPL", raw.Ticker)
	assert.Equal(t, "Apple Inc", raw.CompanyName)
	require.NotNil(t, raw.MarketCap)
	assert.Equal(t, 3e12, *raw.MarketCap)
	require.NotNil(t, raw.PERatio, "zero PERatio falls back to TrailingPE")
	assert.Equal(t, 29.5, *raw.PERatio)

	assert.Equal(t, "2024-09-30", raw.Metadata["period"])
	assert.Equal(t, "2023-09-30", raw.Metadata["prior_period"])
	assert.Equal(t, "AAPL.US", raw.Metadata["symbol"])
	assert.Equal(t, "391035000000.00", raw.IncomeStatement["totalRevenue"])
	assert.Equal(t, "383285000000.00", raw.PriorIncomeStatement["totalRevenue"])

	derived := ratios.Derive(raw)
	require.NotNil(t, derived.RevenueGrowth)
	assert.InDelta(t, 391035.0/383285.0-1, *derived.RevenueGrowth, 1e-9)
	require.NotNil(t, derived.CurrentRatio)
	assert.InDelta(t, 152987.0/176392.0, *derived.CurrentRatio, 1e-9)
	require.NotNil(t, derived.ROE)
	assert.InDelta(t, 93736.0/56950.0, *derived.ROE, 1e-9)
}

func TestFetchFinancialsAPIError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Ticker Not Found.", http.StatusNotFound)
	})

	_, err := provider.FetchFinancials(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/fundamentals/NOPE.US", apiErr.Endpoint)
}

func TestFetchFinancialsExchangeSuffix(t *testing.T) {
	var gotPath string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	})

	raw, err := provider.FetchFinancials(context.Background(), "BHP.AX")
	require.NoError(t, err)
	assert.Equal(t, "/fundamentals/BHP.AU", gotPath)
	assert.Equal(t, "BHP.AX", raw.Ticker)
	assert.False(t, raw.HasStatements())
}

func TestAdaptZeroHighlightsAbsent(t *testing.T) {
	raw := Adapt("XYZ", &FundamentalsResponse{
		General:    &GeneralInfo{Name: ""},
		Highlights: &Highlights{MarketCapitalization: 0, PERatio: 0},
	})
	assert.Nil(t, raw.MarketCap)
	assert.Nil(t, raw.PERatio)
	assert.Equal(t, "XYZ", raw.DisplayName())
	assert.Empty(t, raw.IncomeStatement)

	raw = Adapt("XYZ", nil)
	assert.Equal(t, "XYZ", raw.Ticker)
}

func TestAdaptSinglePeriod(t *testing.T) {
	raw := Adapt("ONE", &FundamentalsResponse{
		Financials: &Financials{
			IncomeStatement: &FinancialStatement{Yearly: map[string]map[string]interface{}{
				"2024-12-31": {"netIncome": 10.0},
				"2023-12-31": {},
			}},
		},
	})
	assert.Equal(t, 10.0, raw.IncomeStatement["netIncome"])
	assert.Nil(t, raw.PriorIncomeStatement, "empty periods are skipped")
}
