// activities.go — обработчики активностей.
package handlers

import (
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/brigadas/internal/api/errors"
	"github.com/bigkaa/brigadas/internal/service"
)

const (
	dateLayout         = "2006-01-02"
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

type activityRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartsOn    string `json:"starts_on"`
	EndsOn      string `json:"ends_on"`
	Status      string `json:"status"`
	BrigadeID   int64  `json:"brigade_id"`
}

// parseDate разбирает дату YYYY-MM-DD. Пустая строка — нулевое время,
// обязательность проверяет сервис.
func (h *APIHandler) parseDate(w http.ResponseWriter, r *http.Request, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.invalid_date"))
		return time.Time{}, false
	}
	return t, true
}

func (h *APIHandler) activityInput(w http.ResponseWriter, r *http.Request) (service.ActivityInput, bool) {
	var req activityRequest
	if !h.decodeJSON(w, r, &req) {
		return service.ActivityInput{}, false
	}
	startsOn, ok := h.parseDate(w, r, req.StartsOn)
	if !ok {
		return service.ActivityInput{}, false
	}
	in := service.ActivityInput{
		Title:       req.Title,
		Description: req.Description,
		StartsOn:    startsOn,
		Status:      req.Status,
		BrigadeID:   req.BrigadeID,
	}
	if req.EndsOn != "" {
		endsOn, ok := h.parseDate(w, r, req.EndsOn)
		if !ok {
			return service.ActivityInput{}, false
		}
		in.EndsOn = &endsOn
	}
	return in, true
}

// ListActivities — GET /api/v1/activities?limit=N или ?brigade_id=N.
func (h *APIHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	brigadeID, ok := h.queryID(w, r, "brigade_id")
	if !ok {
		return
	}
	if brigadeID != nil {
		items, err := h.svc.Activities.ByBrigade(r.Context(), viewer(r), *brigadeID)
		if err != nil {
			h.fail(w, r, err, "активности бригады")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	limit := defaultRecentLimit
	if r.URL.Query().Get("limit") != "" {
		var n int
		if err := runtime.BindQueryParameter("form", true, true, "limit", r.URL.Query(), &n); err != nil || n <= 0 {
			apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.validation"))
			return
		}
		limit = min(n, maxRecentLimit)
	}

	items, err := h.svc.Activities.Recent(r.Context(), viewer(r), limit)
	if err != nil {
		h.fail(w, r, err, "последние активности")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateActivity — POST /api/v1/activities.
func (h *APIHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	in, ok := h.activityInput(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Activities.Create(r.Context(), viewer(r), in)
	if err != nil {
		h.fail(w, r, err, "создание активности")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetActivity — GET /api/v1/activities/{id}.
func (h *APIHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.svc.Activities.Get(r.Context(), viewer(r), id)
	if err != nil {
		h.fail(w, r, err, "получение активности")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateActivity — PUT /api/v1/activities/{id}.
func (h *APIHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	in, ok := h.activityInput(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Activities.Update(r.Context(), viewer(r), id, in)
	if err != nil {
		h.fail(w, r, err, "обновление активности")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteActivity — DELETE /api/v1/activities/{id}.
func (h *APIHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Activities.Delete(r.Context(), viewer(r), id); err != nil {
		h.fail(w, r, err, "удаление активности")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
