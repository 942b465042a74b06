package environments

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/storage/badger"
)

type stubFetcher struct {
	mu    sync.Mutex
	data  map[string]*models.RawFinancials
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, ticker string) models.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ticker)
	if data, ok := f.data[ticker]; ok {
		return models.FetchResult{Ticker: ticker, Data: data, Source: models.FetchSourceNetwork, Attempts: 1}
	}
	return models.FetchResult{Ticker: ticker, Source: models.FetchSourceNone, Attempts: 3, Err: errors.New("no data")}
}

type recordingListener struct {
	saved   []string
	deleted []string
}

func (l *recordingListener) EnvironmentSaved(env *models.Environment) { l.saved = append(l.saved, env.ID) }
func (l *recordingListener) EnvironmentDeleted(id string)           { l.deleted = append(l.deleted, id) }

func company(name string, marketCap, pe float64) *models.RawFinancials {
	return &models.RawFinancials{
		CompanyName:     name,
		MarketCap:       models.Float(marketCap),
		PERatio:         models.Float(pe),
		IncomeStatement: models.Statement{"Net Income": 2e8, "Total Revenue": 1.2e9},
		BalanceSheet: models.Statement{
			"Total Current Assets":      4e8,
			"Total Current Liabilities": 2e8,
			"Total Stockholders Equity": 1e9,
		},
		PriorIncomeStatement: models.Statement{"Total Revenue": 1e9},
	}
}

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	fetcher  *stubFetcher
	listener *recordingListener
	dir      string
	results  []models.ScreeningResult
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := common.NewSilentLogger()

	manager, err := badger.NewManager(logger, &common.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	f := &fixture{
		fetcher: &stubFetcher{data: map[string]*models.RawFinancials{
			"BIG":   company("Big Corp", 5e9, 18),
			"SMALL": company("Small Corp", 5e8, 12),
		}},
		listener: &recordingListener{},
		dir:      t.TempDir(),
	}
	base := models.CriteriaConfig{
		{Key: "market_cap_min", Value: 1e9},
		{Key: "pe_max", Value: 25.0},
	}
	writer := report.NewWriter(f.dir, nil, logger)
	f.svc = NewService(manager.EnvironmentStorage(), f.fetcher, writer, base, logger,
		WithClock(func() time.Time { return fixedNow }),
		WithResultHandler(func(r models.ScreeningResult) { f.results = append(f.results, r) }),
	)
	f.svc.Subscribe(f.listener)
	return f
}

func decodeCreate(t *testing.T, body string) CreateRequest {
	t.Helper()
	var req CreateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	env, err := f.svc.Create(ctx, decodeCreate(t, `{"name":"  ","tickers":"aapl, msft\nbhp.ax","criteria":"pe_max=20,roe_min=0.15"}`))
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, models.DefaultEnvironmentName, env.Name)
	assert.Equal(t, []string{"AAPL", "MSFT", "BHP.AX"}, env.Tickers)
	assert.Equal(t, []string{"pe_max", "roe_min"}, env.Criteria.Keys())
	assert.Equal(t, fixedNow, env.CreatedAt)
	assert.Equal(t, []string{env.ID}, f.listener.saved)

	stored, err := f.svc.Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, env.Tickers, stored.Tickers)
	assert.Equal(t, env.Criteria.Keys(), stored.Criteria.Keys())
}

func TestCreateAcceptsArraysAndObjects(t *testing.T) {
	f := newFixture(t)

	env, err := f.svc.Create(context.Background(), decodeCreate(t,
		`{"name":"Quality","tickers":["aapl"," msft "],"criteria":{"roe_min":0.2,"current_ratio_min":1.5}}`))
	require.NoError(t, err)

	assert.Equal(t, "Quality", env.Name)
	assert.Equal(t, []string{"AAPL", "MSFT"}, env.Tickers)
	assert.Equal(t, []string{"roe_min", "current_ratio_min"}, env.Criteria.Keys())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown criterion", body: `{"criteria":{"dividend_min":0.02}}`},
		{name: "non numeric threshold", body: `{"criteria":{"pe_max":"cheap"}}`},
		{name: "bad schedule", body: `{"schedule":"every tuesday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, decodeCreate(t, tt.body))
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRejectsMalformedTickers(t *testing.T) {
	var req CreateRequest
	assert.Error(t, json.Unmarshal([]byte(`{"tickers":42}`), &req))
}

func TestUpdateKeepsOmittedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	env, err := f.svc.Create(ctx, decodeCreate(t, `{"name":"Value","thesis":"cheap","tickers":"BIG","criteria":"pe_max=20"}`))
	require.NoError(t, err)

	var req UpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"thesis":"cheaper","tickers":"","criteria":""}`), &req))
	updated, err := f.svc.Update(ctx, env.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "Value", updated.Name)
	assert.Equal(t, "cheaper", updated.Thesis)
	assert.Equal(t, []string{"BIG"}, updated.Tickers)
	assert.Equal(t, []string{"pe_max"}, updated.Criteria.Keys())

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Deep Value","tickers":"BIG,SMALL","schedule":"@daily"}`), &req))
	updated, err = f.svc.Update(ctx, env.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Deep Value", updated.Name)
	assert.Equal(t, []string{"BIG", "SMALL"}, updated.Tickers)
	assert.Equal(t, "@daily", updated.Schedule)
	assert.Len(t, f.listener.saved, 3)
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "missing", UpdateRequest{})
	assert.ErrorIs(t, err, interfaces.ErrEnvironmentNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "missing"), interfaces.ErrEnvironmentNotFound)
	assert.Empty(t, f.listener.deleted)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	env, err := f.svc.Create(ctx, decodeCreate(t, `{"name":"Temp"}`))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, env.ID))
	assert.Equal(t, []string{env.ID}, f.listener.deleted)

	_, err = f.svc.Get(ctx, env.ID)
	assert.ErrorIs(t, err, interfaces.ErrEnvironmentNotFound)
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	env, err := f.svc.Create(ctx, decodeCreate(t, `{"name":"Growth","tickers":"BIG,SMALL,GONE","criteria":"pe_max=15,revenue_growth_min=0.1"}`))
	require.NoError(t, err)

	resp, err := f.svc.Run(ctx, env.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"BIG", "SMALL", "GONE"}, f.fetcher.calls)
	assert.Len(t, f.results, 3)

	assert.Equal(t, 3, resp.Summary.Total)
	assert.Equal(t, 0, resp.Summary.Passed)
	assert.Equal(t, 3, resp.Summary.Failed)
	assert.Contains(t, resp.Summary.Analysis, "Pass rate: 0/3 tickers met all criteria.")

	require.Len(t, resp.Results, 3)
	big := resp.Results[0]
	assert.Equal(t, 3, big.TotalCriteria, "base keys keep their position, new keys are appended")
	assert.Equal(t, 2, big.PassedCriteria)
	assert.Equal(t, "pe_max: pe_ratio_above_max (18.00 > 15.00)", big.FailedCriteria)

	small := resp.Results[1]
	assert.Equal(t, "market_cap_min: market_cap_below_min (500,000,000 < 1,000,000,000)", small.FailedCriteria)

	gone := resp.Results[2]
	assert.Equal(t, models.FailureDataUnavailable, gone.FailedCriteria)

	base := env.ID + "_20260601_093000"
	for _, format := range []string{"csv", "json", "html"} {
		path := resp.ReportPaths[format]
		assert.Equal(t, filepath.Join(f.dir, base+"."+format), path)
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}

	stored, err := f.svc.Get(ctx, env.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastRunAt)
	assert.True(t, fixedNow.Equal(*stored.LastRunAt))
	assert.Equal(t, resp.ReportPaths, stored.LastReport)
}

func TestRunErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Run(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrEnvironmentNotFound)

	env, err := f.svc.Create(ctx, decodeCreate(t, `{"name":"Empty"}`))
	require.NoError(t, err)

	_, err = f.svc.Run(ctx, env.ID)
	assert.ErrorIs(t, err, ErrNoTickers)
	assert.Empty(t, f.fetcher.calls)
}
