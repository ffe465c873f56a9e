// indicators.go — обработчики показателей активностей.
package handlers

import (
	"net/http"

	"github.com/bigkaa/brigadas/internal/repository"
	"github.com/bigkaa/brigadas/internal/service"
)

type indicatorRequest struct {
	ActivityID int64   `json:"activity_id"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
}

func (req indicatorRequest) input() service.IndicatorInput {
	return service.IndicatorInput{
		ActivityID: req.ActivityID,
		Type:       req.Type,
		Value:      req.Value,
		Unit:       req.Unit,
	}
}

// ListIndicators — GET /api/v1/indicators?activity_id=N&type=T.
func (h *APIHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	activityID, ok := h.queryID(w, r, "activity_id")
	if !ok {
		return
	}
	items, err := h.svc.Indicators.List(r.Context(), viewer(r), repository.IndicatorFilter{
		ActivityID: activityID,
		Type:       r.URL.Query().Get("type"),
	})
	if err != nil {
		h.fail(w, r, err, "список показателей")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// IndicatorSummary — GET /api/v1/indicators/summary.
func (h *APIHandler) IndicatorSummary(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Indicators.Summary(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, r, err, "сводка показателей")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateIndicator — POST /api/v1/indicators.
func (h *APIHandler) CreateIndicator(w http.ResponseWriter, r *http.Request) {
	var req indicatorRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ind, err := h.svc.Indicators.Create(r.Context(), viewer(r), req.input())
	if err != nil {
		h.fail(w, r, err, "создание показателя")
		return
	}
	writeJSON(w, http.StatusCreated, ind)
}

// GetIndicator — GET /api/v1/indicators/{id}.
func (h *APIHandler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	ind, err := h.svc.Indicators.Get(r.Context(), viewer(r), id)
	if err != nil {
		h.fail(w, r, err, "получение показателя")
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// UpdateIndicator — PUT /api/v1/indicators/{id}.
func (h *APIHandler) UpdateIndicator(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req indicatorRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	ind, err := h.svc.Indicators.Update(r.Context(), viewer(r), id, req.input())
	if err != nil {
		h.fail(w, r, err, "обновление показателя")
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// DeleteIndicator — DELETE /api/v1/indicators/{id}.
func (h *APIHandler) DeleteIndicator(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Indicators.Delete(r.Context(), viewer(r), id); err != nil {
		h.fail(w, r, err, "удаление показателя")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
