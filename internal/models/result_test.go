package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFlattensResult(t *testing.T) {
	result := ScreeningResult{
		Ticker:      "AAPL",
		CompanyName: "Apple Inc",
		Metrics: Metrics{
			MarketCap: Float(2e12),
			PERatio:   Float(28.5),
			ROE:       Float(1.47),
		},
		PassedCriteria: 1,
		TotalCriteria:  2,
		Failures:       []string{"pe_max: pe_ratio_above_max (28.50 > 25.00)", "roe_min: roe_missing"},
		Status:         StatusFail,
	}

	record := result.Record()
	assert.Equal(t, "pe_max: pe_ratio_above_max (28.50 > 25.00), roe_min: roe_missing", record.FailedCriteria)

	values := record.Values()
	require.Len(t, values, len(RecordColumns))
	assert.Equal(t, "AAPL", values[0])
	assert.Equal(t, "2000000000000", values[2])
	assert.Equal(t, "28.5", values[3])
	assert.Equal(t, "", values[4], "absent values render empty, never zero")
	assert.Equal(t, "FAIL", values[12])
}

func TestRecordJSONFieldOrder(t *testing.T) {
	record := ScreeningResult{Ticker: "X", CompanyName: "X", Status: StatusPass}.Record()

	data, err := json.Marshal(record)
	require.NoError(t, err)

	expected := `{"ticker":"X","company_name":"X","market_cap":null,"pe_ratio":null,"current_ratio":null,` +
		`"debt_to_equity":null,"revenue_growth":null,"roe":null,"net_income":null,"passed_criteria":0,` +
		`"total_criteria":0,"failed_criteria":"","status":"PASS"}`
	assert.Equal(t, expected, string(data))
}

func TestFloatRejectsNaN(t *testing.T) {
	assert.Nil(t, Float(math.NaN()))
	assert.Nil(t, Float(math.Inf(1)))
	require.NotNil(t, Float(1.5))
	assert.Equal(t, 1.5, *Float(1.5))
}

func TestDisplayNameFallsBackToTicker(t *testing.T) {
	assert.Equal(t, "MSFT", (&RawFinancials{Ticker: "MSFT"}).DisplayName())
	assert.Equal(t, "Microsoft", (&RawFinancials{Ticker: "MSFT", CompanyName: "Microsoft"}).DisplayName())
}

func TestNewMetricsMergesHeadlineValues(t *testing.T) {
	raw := &RawFinancials{MarketCap: Float(10), PERatio: Float(5)}
	ratios := DerivedRatios{CurrentRatio: Float(2), NetIncome: Float(-1)}

	m := NewMetrics(raw, ratios)
	assert.Equal(t, 10.0, *m.MarketCap)
	assert.Equal(t, 5.0, *m.PERatio)
	assert.Equal(t, 2.0, *m.CurrentRatio)
	assert.Equal(t, -1.0, *m.NetIncome)
	assert.Nil(t, m.ROE)
}
