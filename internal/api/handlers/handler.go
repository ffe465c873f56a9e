// handler.go — основной обработчик API.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/brigadas/internal/api/errors"
	"github.com/bigkaa/brigadas/internal/api/middleware"
	"github.com/bigkaa/brigadas/internal/api/openapi"
	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/i18n"
	"github.com/bigkaa/brigadas/internal/service"
)

// maxBodyBytes — ограничение размера JSON-тела запроса.
const maxBodyBytes = 1 << 20

// Services — сервисный слой, которым пользуются обработчики.
type Services struct {
	Auth         *service.AuthService
	Sessions     *service.SessionService
	Institutions *service.InstitutionService
	Users        *service.UserService
	Brigades     *service.BrigadeService
	Activities   *service.ActivityService
	Shifts       *service.ShiftService
	Reports      *service.ReportService
	Indicators   *service.IndicatorService
	Dashboard    *service.DashboardService
	Settings     *service.SettingsService
}

// APIHandler — основной обработчик API.
type APIHandler struct {
	health  *HealthHandler
	svc     Services
	codec   *auth.SnapshotCodec
	tokens  *auth.TokenIssuer
	bundle  *i18n.Bundle
	logoDir string
	logger  *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	svc Services,
	codec *auth.SnapshotCodec,
	tokens *auth.TokenIssuer,
	bundle *i18n.Bundle,
	logoDir string,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:  health,
		svc:     svc,
		codec:   codec,
		tokens:  tokens,
		bundle:  bundle,
		logoDir: logoDir,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — проверка живости (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — проверка готовности (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI — GET /api/v1/openapi.yaml. Контракт API для клиентов.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Spec())
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. При ошибке отвечает 400 и возвращает false.
func (h *APIHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.invalid_json"))
		return false
	}
	return true
}

// pathID разбирает числовой параметр маршрута (стиль simple). При ошибке отвечает 400.
func (h *APIHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || id <= 0 {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.invalid_id"))
		return 0, false
	}
	return id, true
}

// queryID разбирает необязательный числовой параметр запроса (стиль form).
func (h *APIHandler) queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	if r.URL.Query().Get(name) == "" {
		return nil, true
	}
	var id int64
	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &id); err != nil || id <= 0 {
		apierrors.ValidationError(w, h.bundle.T(r.Context(), "error.invalid_id"))
		return nil, false
	}
	return &id, true
}

// viewer возвращает сессию запроса, проставленную SessionAuth.
func viewer(r *http.Request) *model.Session {
	return middleware.SessionFromContext(r.Context())
}

// fail переводит ошибку сервисного слоя в HTTP-ответ.
// what — описание операции для лога.
func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	ctx := r.Context()

	var verr *service.ValidationError
	var cerr *service.ConflictError
	var blocked *service.DeleteBlockedError

	switch {
	case errors.As(err, &verr):
		apierrors.FieldValidationError(w, verr.Key, h.bundle.T(ctx, verr.Key))
	case errors.As(err, &blocked):
		apierrors.BrigadeHasMembers(w, blocked.Count, h.bundle.Tf(ctx, "error.brigade_has_members", blocked.Count))
	case errors.As(err, &cerr):
		apierrors.KeyedConflict(w, cerr.Key, h.bundle.T(ctx, cerr.Key))
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.InvalidCredentials(w, h.bundle.T(ctx, "error.invalid_credentials"))
	case errors.Is(err, service.ErrInvalidRole):
		apierrors.FieldValidationError(w, "role_invalid", h.bundle.T(ctx, "error.invalid_role"))
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, h.bundle.T(ctx, "error.validation"))
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, h.bundle.T(ctx, "error.forbidden"))
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, h.bundle.T(ctx, "error.not_found"))
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, h.bundle.T(ctx, "error.conflict"))
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("Хранилище недоступно", slog.String("op", what), slog.String("error", err.Error()))
		apierrors.StoreUnavailable(w, h.bundle.T(ctx, "error.store_unavailable"))
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("op", what), slog.String("error", err.Error()))
		apierrors.InternalError(w, h.bundle.T(ctx, "error.internal"))
	}
}
