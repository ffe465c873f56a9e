// brigades.go — обработчики /api/v1/brigades.
package handlers

import (
	"net/http"

	"github.com/bigkaa/brigadas/internal/service"
)

type brigadeRequest struct {
	Name        string `json:"name"`
	ActionArea  string `json:"action_area"`
	Description string `json:"description"`
	Coordinator string `json:"coordinator"`
	Color       string `json:"color"`
	TeacherID   *int64 `json:"teacher_id"`
}

func (req brigadeRequest) input() service.BrigadeInput {
	return service.BrigadeInput{
		Name:        req.Name,
		ActionArea:  req.ActionArea,
		Description: req.Description,
		Coordinator: req.Coordinator,
		Color:       req.Color,
		TeacherID:   req.TeacherID,
	}
}

// ListBrigades — GET /api/v1/brigades. Бригады, видимые сессии.
func (h *APIHandler) ListBrigades(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Brigades.List(r.Context(), viewer(r))
	if err != nil {
		h.fail(w, r, err, "список бригад")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views})
}

// CreateBrigade — POST /api/v1/brigades.
func (h *APIHandler) CreateBrigade(w http.ResponseWriter, r *http.Request) {
	var req brigadeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	b, err := h.svc.Brigades.Create(r.Context(), viewer(r), req.input())
	if err != nil {
		h.fail(w, r, err, "создание бригады")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GetBrigade — GET /api/v1/brigades/{id}.
func (h *APIHandler) GetBrigade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Brigades.Get(r.Context(), viewer(r), id)
	if err != nil {
		h.fail(w, r, err, "получение бригады")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateBrigade — PUT /api/v1/brigades/{id}.
func (h *APIHandler) UpdateBrigade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req brigadeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	b, err := h.svc.Brigades.Update(r.Context(), viewer(r), id, req.input())
	if err != nil {
		h.fail(w, r, err, "обновление бригады")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBrigade — DELETE /api/v1/brigades/{id}.
// 409 BRIGADE_HAS_MEMBERS с числом участников, если они есть.
func (h *APIHandler) DeleteBrigade(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Brigades.Delete(r.Context(), viewer(r), id); err != nil {
		h.fail(w, r, err, "удаление бригады")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBrigadeMembers — GET /api/v1/brigades/{id}/members.
func (h *APIHandler) ListBrigadeMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	users, err := h.svc.Brigades.Members(r.Context(), viewer(r), id)
	if err != nil {
		h.fail(w, r, err, "участники бригады")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users})
}

// AssignBrigadeMember — PUT /api/v1/brigades/{id}/members/{userID}.
func (h *APIHandler) AssignBrigadeMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.svc.Brigades.AssignMember(r.Context(), viewer(r), id, userID); err != nil {
		h.fail(w, r, err, "назначение в бригаду")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deputyRequest struct {
	UserID *int64 `json:"user_id"`
}

// SetBrigadeDeputy — PUT /api/v1/brigades/{id}/deputy. null снимает заместителя.
func (h *APIHandler) SetBrigadeDeputy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req deputyRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Brigades.SetDeputy(r.Context(), viewer(r), id, req.UserID); err != nil {
		h.fail(w, r, err, "назначение заместителя")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
