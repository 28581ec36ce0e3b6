package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

func (s *Server) reportID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("INVALID_ARGUMENT", "report id must be a UUID")
	}
	if s.reports == nil {
		return uuid.Nil, common.NewAppError("NO_REPORT_STORE", errNoStore.Error(), common.ErrNotFound)
	}
	return id, nil
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, r, common.NewAppError("NO_REPORT_STORE", errNoStore.Error(), common.ErrNotFound))
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, badRequest("INVALID_ARGUMENT", "limit must be an integer"))
			return
		}
		if err := common.ValidateAndReturnError(common.NewValidator().Field("limit", n, common.IntRange(1, 500))); err != nil {
			writeError(w, r, err)
			return
		}
		limit = n
	}
	headers, err := s.reports.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": headers})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := s.reportID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.reports.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	id, err := s.reportID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	xlsx, err := s.exporter.ExportReportXLSX(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="report-`+id.String()+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
