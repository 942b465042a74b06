package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/services/environments"
)

// mockEnvironmentService implements EnvironmentService for testing
type mockEnvironmentService struct {
	envs   map[string]*models.Environment
	runErr error
}

func newMockEnvironmentService() *mockEnvironmentService {
	return &mockEnvironmentService{envs: map[string]*models.Environment{}}
}

func (m *mockEnvironmentService) List(ctx context.Context) ([]*models.Environment, error) {
	var out []*models.Environment
	for _, env := range m.envs {
		out = append(out, env)
	}
	return out, nil
}

func (m *mockEnvironmentService) Get(ctx context.Context, id string) (*models.Environment, error) {
	env, ok := m.envs[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, interfaces.ErrEnvironmentNotFound)
	}
	return env, nil
}

func (m *mockEnvironmentService) Create(ctx context.Context, req environments.CreateRequest) (*models.Environment, error) {
	if req.Name == "invalid" {
		return nil, &environments.ValidationError{Err: errors.New("bad name")}
	}
	env := &models.Environment{ID: "env-1", Name: req.Name, Tickers: []string(req.Tickers)}
	m.envs[env.ID] = env
	return env, nil
}

func (m *mockEnvironmentService) Update(ctx context.Context, id string, req environments.UpdateRequest) (*models.Environment, error) {
	env, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		env.Name = *req.Name
	}
	return env, nil
}

func (m *mockEnvironmentService) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	delete(m.envs, id)
	return nil
}

func (m *mockEnvironmentService) Run(ctx context.Context, id string) (*models.RunResponse, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	env, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RunResponse{
		Environment: env,
		Summary:     models.RunSummary{Total: 1, Passed: 1},
		ReportPaths: map[string]string{"csv": "reports/env-1.csv"},
		Results:     []models.Record{{Ticker: "AAPL", Status: models.StatusPass}},
	}, nil
}

// stubFetcher returns canned fundamentals
type stubFetcher map[string]*models.RawFinancials

func (f stubFetcher) Fetch(_ context.Context, ticker string) models.FetchResult {
	if data, ok := f[ticker]; ok {
		return models.FetchResult{Ticker: ticker, Data: data, Source: models.FetchSourceNetwork, Attempts: 1}
	}
	return models.FetchResult{Ticker: ticker, Source: models.FetchSourceNone, Attempts: 1, Err: errors.New("no data")}
}

func do(handler http.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEnvironmentHandlerCRUD(t *testing.T) {
	svc := newMockEnvironmentService()
	h := NewEnvironmentHandler(svc, common.NewSilentLogger())

	rec := do(h.ListHandler, http.MethodGet, "/api/environments", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(h.CreateHandler, http.MethodPost, "/api/environments", `{"name":"Value","tickers":"aapl,msft"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Environment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "env-1", created.ID)
	assert.Equal(t, []string{"AAPL", "MSFT"}, created.Tickers)

	rec = do(h.GetHandler, http.MethodGet, "/api/environments/env-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h.UpdateHandler, http.MethodPut, "/api/environments/env-1", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decodeBody(t, rec)["name"])

	rec = do(h.DeleteHandler, http.MethodDelete, "/api/environments/env-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decodeBody(t, rec)["status"])

	rec = do(h.GetHandler, http.MethodGet, "/api/environments/env-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, decodeBody(t, rec)["error"])
}

func TestEnvironmentHandlerErrors(t *testing.T) {
	svc := newMockEnvironmentService()
	h := NewEnvironmentHandler(svc, common.NewSilentLogger())

	rec := do(h.CreateHandler, http.MethodPost, "/api/environments", `{"name":"invalid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, ErrCodeInvalidInput, body["error"])
	assert.Contains(t, body["message"], "bad name")

	rec = do(h.CreateHandler, http.MethodPost, "/api/environments", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h.GetHandler, http.MethodGet, "/api/environments/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h.RunHandler, http.MethodGet, "/api/environments/env-1/run", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(h.RunHandler, http.MethodPost, "/api/environments/missing/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.runErr = fmt.Errorf("run: %w", environments.ErrNoTickers)
	rec = do(h.RunHandler, http.MethodPost, "/api/environments/env-1/run", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeNoTickers, decodeBody(t, rec)["error"])

	svc.runErr = errors.New("disk full")
	rec = do(h.RunHandler, http.MethodPost, "/api/environments/env-1/run", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, decodeBody(t, rec)["error"])
}

func TestEnvironmentRunHandler(t *testing.T) {
	svc := newMockEnvironmentService()
	svc.envs["env-1"] = &models.Environment{ID: "env-1", Name: "Value", Tickers: []string{"AAPL"}}
	h := NewEnvironmentHandler(svc, common.NewSilentLogger())

	rec := do(h.RunHandler, http.MethodPost, "/api/environments/env-1/run", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "env-1", resp.Environment.ID)
	assert.Equal(t, 1, resp.Summary.Passed)
	assert.Equal(t, "reports/env-1.csv", resp.ReportPaths["csv"])
	require.Len(t, resp.Results, 1)
}

func screenFixture() *ScreenHandler {
	fetcher := stubFetcher{
		"BIG":   {CompanyName: "Big Corp", MarketCap: models.Float(5e9), PERatio: models.Float(18)},
		"SMALL": {CompanyName: "Small Corp", MarketCap: models.Float(5e8), PERatio: models.Float(12)},
	}
	base := models.CriteriaConfig{{Key: "market_cap_min", Value: 1e9}}
	return NewScreenHandler(fetcher, base, nil, common.NewSilentLogger())
}

func TestScreenHandler(t *testing.T) {
	var seen []string
	h := screenFixture()
	h.onResult = func(r models.ScreeningResult) { seen = append(seen, r.Ticker) }

	rec := do(h.ScreenHandler, http.MethodPost, "/api/screen", `{"tickers":["big","small","gone"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScreenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Passed)
	assert.Equal(t, 2, resp.Summary.Failed)
	assert.Contains(t, resp.Summary.Analysis, "Pass rate: 1/3 tickers met all criteria.")
	require.Len(t, resp.Results, 3)
	assert.Equal(t, models.FailureDataUnavailable, resp.Results[2].FailedCriteria)
	assert.ElementsMatch(t, []string{"BIG", "SMALL", "GONE"}, seen)
}

func TestScreenHandlerFilterAndInlineCriteria(t *testing.T) {
	h := screenFixture()

	rec := do(h.ScreenHandler, http.MethodPost, "/api/screen", `{"tickers":"BIG,SMALL","criteria":"pe_max=15","filter_passed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScreenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Passed)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "SMALL", resp.Results[0].Ticker)
}

func TestScreenHandlerErrors(t *testing.T) {
	h := screenFixture()

	rec := do(h.ScreenHandler, http.MethodPost, "/api/screen", `{"tickers":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeNoTickers, decodeBody(t, rec)["error"])

	rec = do(h.ScreenHandler, http.MethodPost, "/api/screen", `{"tickers":["BIG"],"criteria":{"pe_max":"cheap"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidInput, decodeBody(t, rec)["error"])

	rec = do(h.ScreenHandler, http.MethodGet, "/api/screen", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCriteriaHandler(t *testing.T) {
	h := screenFixture()

	rec := do(h.CriteriaHandler, http.MethodGet, "/api/criteria", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Criteria []CriterionInfo      `json:"criteria"`
		Defaults models.CriteriaConfig `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Criteria)
	assert.Equal(t, []string{"market_cap_min"}, body.Defaults.Keys())
	for _, info := range body.Criteria {
		assert.NotEmpty(t, info.Field, info.Key)
	}
}

func TestReportHandler(t *testing.T) {
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	writer := report.NewWriter(dir, nil, logger)
	h := NewReportHandler(writer, logger)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	results := []models.ScreeningResult{{Ticker: "AAPL", CompanyName: "Apple", Status: models.StatusPass}}
	paths, err := writer.WriteAll(report.New("Test", results, at), report.BaseName("env-1", at))
	require.NoError(t, err)

	rec := do(h.GetReportHandler, http.MethodGet, ReportPrefix+filepath.Base(paths["csv"]), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	expected, err := os.ReadFile(paths["csv"])
	require.NoError(t, err)
	assert.Equal(t, string(expected), rec.Body.String())

	rec = do(h.GetReportHandler, http.MethodGet, ReportPrefix+"env-1_20260102_030405.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h.GetReportHandler, http.MethodGet, ReportPrefix+"..%2Fsecret.csv", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIHandler(t *testing.T) {
	h := NewAPIHandler(nil, nil, common.NewSilentLogger())

	rec := do(h.HealthHandler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(h.VersionHandler, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.Version, decodeBody(t, rec)["version"])

	rec = do(h.NotFoundHandler, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", decodeBody(t, rec)["path"])
}

func TestWebSocketBroadcastResult(t *testing.T) {
	h := NewWebSocketHandler(common.NewSilentLogger())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello WSMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageTypeHello, hello.Type)
	assert.Equal(t, 1, h.ClientCount())

	h.BroadcastResult(models.ScreeningResult{
		Ticker:   "AAPL",
		Status:   models.StatusFail,
		Failures: []string{"pe_max: pe_above_max (30.00 > 25.00)"},
		Source:   models.FetchSourceCache,
	})

	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Ticker         string `json:"ticker"`
			Status         string `json:"status"`
			FailedCriteria string `json:"failed_criteria"`
			Source         string `json:"source"`
		} `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeResult, msg.Type)
	assert.Equal(t, "AAPL", msg.Payload.Ticker)
	assert.Equal(t, "FAIL", msg.Payload.Status)
	assert.Equal(t, "pe_max: pe_above_max (30.00 > 25.00)", msg.Payload.FailedCriteria)
	assert.Equal(t, string(models.FetchSourceCache), msg.Payload.Source)

	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
