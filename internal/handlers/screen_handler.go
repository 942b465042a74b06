package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/screener"
	"github.com/ternarybob/screener/internal/services/environments"
)

// ScreenRequest is the payload of an ad hoc screening
type ScreenRequest struct {
	Tickers      environments.TickerList   `json:"tickers"`
	Criteria     environments.CriteriaInput `json:"criteria"`
	FilterPassed bool                      `json:"filter_passed"`
}

// ScreenResponse is returned by an ad hoc screening
type ScreenResponse struct {
	Summary models.RunSummary `json:"summary"`
	Results []models.Record   `json:"results"`
}

// CriterionInfo describes one recognized criterion
type CriterionInfo struct {
	Key         string `json:"key"`
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ScreenHandler handles ad hoc screening and criteria discovery
type ScreenHandler struct {
	fetcher  screener.Fetcher
	base     models.CriteriaConfig
	onResult screener.ResultHandler
	logger   arbor.ILogger
}

// NewScreenHandler creates a new ScreenHandler. base is used when a request carries no criteria.
func NewScreenHandler(fetcher screener.Fetcher, base models.CriteriaConfig, onResult screener.ResultHandler, logger arbor.ILogger) *ScreenHandler {
	return &ScreenHandler{
		fetcher:  fetcher,
		base:     base,
		onResult: onResult,
		logger:   logger,
	}
}

// ScreenHandler handles POST /api/screen
func (h *ScreenHandler) ScreenHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ScreenRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}
	if len(req.Tickers) == 0 {
		WriteError(w, http.StatusBadRequest, ErrCodeNoTickers)
		return
	}

	cfg := models.CriteriaConfig(req.Criteria)
	if len(cfg) == 0 {
		cfg = h.base
	} else if err := criteria.Validate(cfg); err != nil {
		WriteValidationError(w, err)
		return
	}

	var opts []screener.Option
	if h.onResult != nil {
		opts = append(opts, screener.WithResultHandler(h.onResult))
	}
	results, err := screener.Screen(r.Context(), h.fetcher, cfg, req.Tickers, h.logger, opts...)
	if err != nil {
		WriteValidationError(w, err)
		return
	}

	summary := screener.Summarize(results)
	records := models.Records(results)
	analysis := report.Analyze(records)
	if req.FilterPassed {
		records = models.Records(screener.FilterPassed(results))
	}

	h.logger.Info().
		Int("tickers", len(req.Tickers)).
		Int("passed", summary.Passed).
		Msg("Ad hoc screening complete")

	WriteJSON(w, http.StatusOK, ScreenResponse{
		Summary: models.RunSummary{
			Total:    summary.Total,
			Passed:   summary.Passed,
			Failed:   summary.Failed,
			Analysis: analysis,
		},
		Results: records,
	})
}

// CriteriaHandler handles GET /api/criteria
func (h *ScreenHandler) CriteriaHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	infos := make([]CriterionInfo, 0, len(criteria.Kinds))
	for _, kind := range criteria.Kinds {
		infos = append(infos, CriterionInfo{
			Key:         string(kind),
			Field:       kind.Field(),
			Description: kind.Description(),
		})
	}

	base := h.base
	if base == nil {
		base = models.CriteriaConfig{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"criteria": infos,
		"defaults": base,
	})
}
