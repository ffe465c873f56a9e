// reports.go — обработчики инцидентов.
package handlers

import (
	"net/http"

	"github.com/bigkaa/brigadas/internal/service"
)

type reportRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Priority    string `json:"priority"`
	BrigadeID   int64  `json:"brigade_id"`
}

// ListReports — GET /api/v1/reports?brigade_id=N.
func (h *APIHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	brigadeID, ok := h.queryID(w, r, "brigade_id")
	if !ok {
		return
	}
	items, err := h.svc.Reports.List(r.Context(), viewer(r), brigadeID)
	if err != nil {
		h.fail(w, r, err, "список инцидентов")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ReportStats — GET /api/v1/reports/stats.
func (h *APIHandler) ReportStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.Stats(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, r, err, "статистика инцидентов")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CreateReport — POST /api/v1/reports.
func (h *APIHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rep, err := h.svc.Reports.Create(r.Context(), viewer(r), service.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Priority:    req.Priority,
		BrigadeID:   req.BrigadeID,
	})
	if err != nil {
		h.fail(w, r, err, "создание инцидента")
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// SetReportStatus — PUT /api/v1/reports/{id}/status.
func (h *APIHandler) SetReportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Reports.SetStatus(r.Context(), viewer(r), id, req.Status); err != nil {
		h.fail(w, r, err, "статус инцидента")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReport — DELETE /api/v1/reports/{id}.
func (h *APIHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Reports.Delete(r.Context(), viewer(r), id); err != nil {
		h.fail(w, r, err, "удаление инцидента")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
