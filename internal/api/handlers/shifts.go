// shifts.go — обработчики смен.
package handlers

import (
	"net/http"

	"github.com/bigkaa/brigadas/internal/service"
)

type shiftRequest struct {
	BrigadeID int64  `json:"brigade_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
	Status    string `json:"status"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// ListShifts — GET /api/v1/shifts?brigade_id=N.
func (h *APIHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
	brigadeID, ok := h.queryID(w, r, "brigade_id")
	if !ok {
		return
	}
	items, err := h.svc.Shifts.List(r.Context(), viewer(r), brigadeID)
	if err != nil {
		h.fail(w, r, err, "список смен")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ShiftStats — GET /api/v1/shifts/stats?brigade_id=N.
func (h *APIHandler) ShiftStats(w http.ResponseWriter, r *http.Request) {
	brigadeID, ok := h.queryID(w, r, "brigade_id")
	if !ok {
		return
	}
	stats, err := h.svc.Shifts.Stats(r.Context(), viewer(r), brigadeID)
	if err != nil {
		h.fail(w, r, err, "статистика смен")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CreateShift — POST /api/v1/shifts.
func (h *APIHandler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, r, req.Date)
	if !ok {
		return
	}
	sh, err := h.svc.Shifts.Create(r.Context(), viewer(r), service.ShiftInput{
		BrigadeID: req.BrigadeID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		Notes:     req.Notes,
		Status:    req.Status,
	})
	if err != nil {
		h.fail(w, r, err, "создание смены")
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

// SetShiftStatus — PUT /api/v1/shifts/{id}/status.
func (h *APIHandler) SetShiftStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Shifts.SetStatus(r.Context(), viewer(r), id, req.Status); err != nil {
		h.fail(w, r, err, "статус смены")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteShift — DELETE /api/v1/shifts/{id}.
func (h *APIHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Shifts.Delete(r.Context(), viewer(r), id); err != nil {
		h.fail(w, r, err, "удаление смены")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
