package handlers

import "net/http"

// GetDashboard — GET /api/v1/dashboard. Сводка для главной страницы.
func (h *APIHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard.Get(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, r, err, "главная страница")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type messageRequest struct {
	Markdown string `json:"markdown"`
}

// GetMessageOfDay — GET /api/v1/settings/message.
func (h *APIHandler) GetMessageOfDay(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Settings.MessageOfDay(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, r, err, "сообщение дня")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// SetMessageOfDay — PUT /api/v1/settings/message. Только администратор.
func (h *APIHandler) SetMessageOfDay(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.Settings.SetMessageOfDay(r.Context(), viewer(r), req.Markdown)
	if err != nil {
		h.fail(w, r, err, "сообщение дня")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
