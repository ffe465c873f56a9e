// people.go — обработчики пользователей и списка бригадистов.
package handlers

import (
	"net/http"

	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/service"
)

type userRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	NationalID      string `json:"national_id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Phone           string `json:"phone"`
	Role            string `json:"role"`
	BrigadeID       *int64 `json:"brigade_id"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (req userRequest) input() service.UserInput {
	return service.UserInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		NationalID:      req.NationalID,
		Email:           req.Email,
		Username:        req.Username,
		Phone:           req.Phone,
		Role:            req.Role,
		BrigadeID:       req.BrigadeID,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}
}

// peopleResponse — без фильтра заполнены Teachers/Students, с фильтром — Items.
type peopleResponse struct {
	Teachers []model.User `json:"teachers,omitempty"`
	Students []model.User `json:"students,omitempty"`
	Items    []model.User `json:"items,omitempty"`
	Filtered bool         `json:"filtered"`
}

// ListPeople — GET /api/v1/people?name=&last_name=&national_id=&role=.
func (h *APIHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := rbac.PeopleFilter{
		Name:       q.Get("name"),
		LastName:   q.Get("last_name"),
		NationalID: q.Get("national_id"),
		Role:       q.Get("role"),
	}

	people, filtered, err := h.svc.Users.People(r.Context(), viewer(r), filter)
	if err != nil {
		h.fail(w, r, err, "список бригадистов")
		return
	}

	resp := peopleResponse{Filtered: !filter.Empty()}
	if resp.Filtered {
		resp.Items = filtered
		if resp.Items == nil {
			resp.Items = []model.User{}
		}
	} else {
		resp.Teachers, resp.Students = people.Teachers, people.Students
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateUser — POST /api/v1/users.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Users.Create(r.Context(), viewer(r), req.input())
	if err != nil {
		h.fail(w, r, err, "создание пользователя")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser — GET /api/v1/users/{id}.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Users.Get(r.Context(), viewer(r), id)
	if err != nil {
		h.fail(w, r, err, "получение пользователя")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUser — PUT /api/v1/users/{id}. Пароль не меняется.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req userRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.Users.Update(r.Context(), viewer(r), id, req.input())
	if err != nil {
		h.fail(w, r, err, "обновление пользователя")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type passwordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ChangePassword — PUT /api/v1/users/{id}/password.
func (h *APIHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req passwordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Users.ChangePassword(r.Context(), viewer(r), id, req.Password, req.PasswordConfirm); err != nil {
		h.fail(w, r, err, "смена пароля")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser — DELETE /api/v1/users/{id}.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(r.Context(), viewer(r), id); err != nil {
		h.fail(w, r, err, "удаление пользователя")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
