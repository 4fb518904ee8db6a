package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/user-reports/internal/service"
)

// ReportHandler generates PDF usage reports and lists past ones.
type ReportHandler struct {
	reports *service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// GenerateReportResponse carries the report as a data URI the browser can
// open or download directly.
type GenerateReportResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// HandleGenerate builds the report from the user's full history.
//
// HTTP: GET /api/users/{id}/report
//
// This is a GET that writes: each call records a PDF_DOWNLOAD activity and a
// ledger entry, so repeated calls count as repeated downloads.
func (h *ReportHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := h.reports.Generate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateReportResponse{
		Message: "Report generated successfully",
		URL:     rep.URL,
	})
}

// HandleList returns the report ledger of a user.
//
// HTTP: GET /api/users/{id}/reports
func (h *ReportHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reports, err := h.reports.List(r.Context(), id)
	if err != nil {
		h.logger.Debug("list reports failed", slog.Int64("userID", id), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}
