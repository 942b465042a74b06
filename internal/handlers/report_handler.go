package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/report"
)

// ReportPrefix is the report download route prefix
const ReportPrefix = "/api/reports/"

var reportContentTypes = map[report.Format]string{
	report.FormatCSV:      "text/csv; charset=utf-8",
	report.FormatJSON:     "application/json",
	report.FormatHTML:     "text/html; charset=utf-8",
	report.FormatMarkdown: "text/markdown; charset=utf-8",
	report.FormatPDF:      "application/pdf",
}

// ReportHandler serves generated report files
type ReportHandler struct {
	writer *report.Writer
	logger arbor.ILogger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(writer *report.Writer, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		writer: writer,
		logger: logger,
	}
}

// GetReportHandler handles GET /api/reports/{file}
func (h *ReportHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, ReportPrefix)
	path, err := h.writer.Resolve(name)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound)
		return
	}
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound)
		return
	}

	if format, ok := report.FormatFromPath(path); ok {
		w.Header().Set("Content-Type", reportContentTypes[format])
	}
	h.logger.Debug().Str("report", name).Msg("Serving report")
	http.ServeFile(w, r, path)
}
