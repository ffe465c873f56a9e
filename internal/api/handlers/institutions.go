// institutions.go — обработчики учреждений и логотипов.
package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	apierrors "github.com/bigkaa/brigadas/internal/api/errors"
	"github.com/bigkaa/brigadas/internal/service"
)

// maxLogoBytes — максимальный размер загружаемого логотипа.
const maxLogoBytes = 2 << 20

// logoExtensions — допустимые типы логотипа и расширения файлов.
var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

type institutionSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListInstitutions — GET /api/v1/institutions (публично, для формы входа).
func (h *APIHandler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Institutions.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "список учреждений")
		return
	}
	items := make([]institutionSummary, len(list))
	for i, inst := range list {
		items[i] = institutionSummary{ID: inst.ID, Name: inst.Name}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetInstitution — GET /api/v1/institution. Учреждение сессии.
func (h *APIHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Institutions.Get(r.Context(), viewer(r).InstitutionID)
	if err != nil {
		h.fail(w, r, err, "получение учреждения")
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type institutionRequest struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	EducationLevel string `json:"education_level"`
}

// UpdateInstitution — PUT /api/v1/institution. Только admin.
func (h *APIHandler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	var req institutionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	inst, err := h.svc.Institutions.Update(r.Context(), viewer(r), service.InstitutionInput{
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		EducationLevel: req.EducationLevel,
	})
	if err != nil {
		h.fail(w, r, err, "обновление учреждения")
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// DeleteInstitution — DELETE /api/v1/institutions/{id}.
// Удаляет учреждение сессии без пользователей и бригад; сессия завершается.
func (h *APIHandler) DeleteInstitution(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	sess := viewer(r)
	if err := h.svc.Institutions.Delete(r.Context(), sess, id); err != nil {
		h.fail(w, r, err, "удаление учреждения")
		return
	}
	_ = h.svc.Sessions.End(r.Context(), sess.ID)
	h.codec.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// UploadLogo — PUT /api/v1/institution/logo (multipart, поле "logo").
func (h *APIHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+64<<10)
	file, _, err := r.FormFile("logo")
	if err != nil {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.validation"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxLogoBytes {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.validation"))
		return
	}
	ext, ok := logoExtensions[http.DetectContentType(data)]
	if !ok {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.validation"))
		return
	}

	sess := viewer(r)
	name := fmt.Sprintf("inst-%d-%s%s", sess.InstitutionID, uuid.NewString(), ext)
	if err := writeFileAtomic(filepath.Join(h.logoDir, name), data); err != nil {
		h.fail(w, r, err, "сохранение логотипа")
		return
	}
	if err := h.svc.Institutions.SetLogo(r.Context(), sess, name); err != nil {
		_ = os.Remove(filepath.Join(h.logoDir, name))
		h.fail(w, r, err, "сохранение логотипа")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logo_path": name})
}

// DeleteLogo — DELETE /api/v1/institution/logo.
func (h *APIHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Institutions.SetLogo(r.Context(), viewer(r), ""); err != nil {
		h.fail(w, r, err, "удаление логотипа")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLogo — GET /api/v1/institutions/{id}/logo (публично, для формы входа).
func (h *APIHandler) GetLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	inst, err := h.svc.Institutions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "получение логотипа")
		return
	}
	if inst.LogoPath == nil {
		apierrors.NotFound(w, h.bundle.T(r.Context(), "error.not_found"))
		return
	}
	// В БД хранится только имя файла внутри каталога логотипов.
	path := filepath.Join(h.logoDir, filepath.Base(*inst.LogoPath))
	data, err := os.ReadFile(path)
	if err != nil {
		apierrors.NotFound(w, h.bundle.T(r.Context(), "error.not_found"))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = io.Copy(w, bytes.NewReader(data))
}

// writeFileAtomic пишет файл через временный и переименование.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("создание каталога логотипов: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("запись логотипа: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("запись логотипа: %w", err)
	}
	return nil
}
