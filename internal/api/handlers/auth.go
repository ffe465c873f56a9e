// auth.go — вход, выход, текущая сессия и регистрация учреждения.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/brigadas/internal/api/errors"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/domain/rbac"
	"github.com/bigkaa/brigadas/internal/service"
)

type loginRequest struct {
	InstitutionID int64  `json:"institution_id"`
	Identifier    string `json:"identifier"`
	Password      string `json:"password"`
	// Class — форма входа: "admin", "teacher" или "any".
	Class string `json:"class"`
	// Token — выдать bearer-токен для API-клиента.
	Token bool `json:"token"`
}

type sessionResponse struct {
	Session      *model.Session    `json:"session"`
	DisplayName  string            `json:"display_name"`
	Capabilities rbac.Capabilities `json:"capabilities"`
	Token        string            `json:"token,omitempty"`
}

func newSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{
		Session:      s,
		DisplayName:  s.DisplayName(),
		Capabilities: rbac.CapabilitiesOf(s),
	}
}

// Login — POST /api/v1/auth/login.
// Проверяет учётные данные, создаёт сессию и записывает cookie-снимок.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Token && (h.tokens == nil || !h.tokens.Enabled()) {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.tokens_disabled"))
		return
	}

	user, err := h.svc.Auth.Authenticate(r.Context(), service.Credentials{
		InstitutionID: req.InstitutionID,
		Identifier:    req.Identifier,
		Password:      req.Password,
		Class:         req.Class,
	})
	if err != nil {
		h.fail(w, r, err, "вход")
		return
	}

	// Устаревший хеш пересчитывается отдельной записью; её сбой вход не отменяет.
	if err := h.svc.Users.UpgradePasswordHash(r.Context(), user, req.Password); err != nil {
		h.logger.Warn("Не удалось обновить хеш пароля",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	inst, err := h.svc.Institutions.Get(r.Context(), req.InstitutionID)
	if err != nil {
		h.fail(w, r, err, "получение учреждения")
		return
	}

	if err := h.endPreviousSession(r); err != nil {
		h.fail(w, r, err, "завершение прежней сессии")
		return
	}
	sess, err := h.svc.Sessions.Start(r.Context(), user, inst)
	if err != nil {
		h.fail(w, r, err, "создание сессии")
		return
	}
	if err := h.codec.SetCookie(w, sess); err != nil {
		h.fail(w, r, err, "запись cookie сессии")
		return
	}

	resp := newSessionResponse(sess)
	if req.Token {
		resp.Token, err = h.tokens.Issue(sess)
		if err != nil {
			h.fail(w, r, err, "выдача токена")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// endPreviousSession завершает сессию из cookie запроса при повторном входе.
// Повреждённый снимок игнорируется: он всё равно будет перезаписан.
func (h *APIHandler) endPreviousSession(r *http.Request) error {
	if h.codec == nil {
		return nil
	}
	previous, err := h.codec.FromRequest(r)
	if err != nil || previous == nil {
		return nil
	}
	return h.svc.Sessions.End(r.Context(), previous.ID)
}

// Logout — POST /api/v1/auth/logout. Завершает сессию и удаляет cookie.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := viewer(r)
	if sess != nil {
		if err := h.svc.Sessions.End(r.Context(), sess.ID); err != nil {
			h.fail(w, r, err, "завершение сессии")
			return
		}
	}
	h.codec.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me — GET /api/v1/auth/me. Текущая сессия и разрешения.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(viewer(r)))
}

type registerRequest struct {
	InstitutionName string `json:"institution_name"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	EducationLevel  string `json:"education_level"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
}

type registerResponse struct {
	Institution *model.Institution `json:"institution"`
	User        *model.User        `json:"user"`
}

// Register — POST /api/v1/auth/register.
// Создаёт учреждение, «Brigada General» и администратора.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	inst, user, err := h.svc.Auth.Register(r.Context(), service.Registration{
		InstitutionName: req.InstitutionName,
		Address:         req.Address,
		Phone:           req.Phone,
		EducationLevel:  req.EducationLevel,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            req.Role,
	})
	if err != nil {
		h.fail(w, r, err, "регистрация")
		return
	}
	h.svc.Institutions.Invalidate(inst.ID)

	writeJSON(w, http.StatusCreated, registerResponse{Institution: inst, User: user})
}
