package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/models"
)

type stubFetcher map[string]*models.RawFinancials

func (f stubFetcher) Fetch(_ context.Context, ticker string) models.FetchResult {
	if data, ok := f[ticker]; ok {
		return models.FetchResult{Ticker: ticker, Data: data, Source: models.FetchSourceCache}
	}
	return models.FetchResult{Ticker: ticker, Source: models.FetchSourceNone, Err: errors.New("not found")}
}

var testFetcher = stubFetcher{
	"AAPL": {CompanyName: "Apple Inc", MarketCap: models.Float(3e12), PERatio: models.Float(29.5)},
	"TINY": {CompanyName: "Tiny Co", MarketCap: models.Float(2e8), PERatio: models.Float(8)},
}

var testBase = models.CriteriaConfig{{Key: "market_cap_min", Value: 1e9}}

func callTool(t *testing.T, args map[string]interface{}) string {
	t.Helper()
	handler := handleScreenTickers(testFetcher, testBase, common.NewSilentLogger())

	request := mcp.CallToolRequest{}
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	return result.Content[0].(mcp.TextContent).Text
}

func TestHandleScreenTickers(t *testing.T) {
	text := callTool(t, map[string]interface{}{"tickers": "aapl, tiny, gone"})

	assert.Contains(t, text, "## Screening Results (3 tickers, 1 criteria)")
	assert.Contains(t, text, "**Passed:** 1  **Failed:** 2  **Data unavailable:** 1")
	assert.Contains(t, text, "Pass rate: 1/3 tickers met all criteria.")
	assert.Contains(t, text, "| AAPL | Apple Inc |")
	assert.Contains(t, text, "| TINY | Tiny Co |")
	assert.Contains(t, text, "| GONE | GONE |")
}

func TestHandleScreenTickersInlineCriteriaAndFilter(t *testing.T) {
	text := callTool(t, map[string]interface{}{
		"tickers":       "AAPL,TINY",
		"criteria":      "pe_max=10",
		"filter_passed": true,
	})

	assert.Contains(t, text, "(2 tickers, 1 criteria)")
	assert.Contains(t, text, "| TINY | Tiny Co |")
	assert.NotContains(t, text, "| AAPL |")
}

func TestHandleScreenTickersErrors(t *testing.T) {
	assert.Equal(t, "Error: tickers parameter is required", callTool(t, map[string]interface{}{}))
	assert.Equal(t, "Error: tickers parameter is required", callTool(t, map[string]interface{}{"tickers": " , "}))

	text := callTool(t, map[string]interface{}{"tickers": "AAPL", "criteria": "pe_max=cheap"})
	assert.Contains(t, text, "Error: ")
}

func TestHandleListCriteria(t *testing.T) {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = map[string]interface{}{}

	result, err := handleListCriteria(testBase)(context.Background(), request)
	require.NoError(t, err)
	text := result.Content[0].(mcp.TextContent).Text

	assert.Contains(t, text, "| market_cap_min |")
	assert.Contains(t, text, "| pe_max |")
	assert.Contains(t, text, "- market_cap_min = 1e+09")

	empty := formatCriteria(nil)
	assert.Contains(t, empty, "None. Every stock passes unless criteria are given.")
}

func TestFormatScreenResultsEmpty(t *testing.T) {
	text := formatScreenResults(nil, 0, false)
	assert.Contains(t, text, "No results were returned. Check tickers and data availability.")
	assert.Contains(t, text, "No stocks to display.")
}
