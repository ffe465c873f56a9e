// openapi.go — проверка входящих запросов по контракту OpenAPI (kin-openapi).
// Маршруты вне контракта (/health/*, /metrics) пропускаются без проверки,
// аутентификацию выполняет SessionAuth.
package middleware

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/bigkaa/brigadas/internal/api/errors"
	"github.com/bigkaa/brigadas/internal/i18n"
)

// maxValidatedBody — предел тела, которое валидатор читает в память
// (покрывает и multipart с логотипом).
const maxValidatedBody = 4 << 20

// RequestValidator — middleware проверки запросов по контракту.
type RequestValidator struct {
	router routers.Router
	bundle *i18n.Bundle
	logger *slog.Logger
}

// NewRequestValidator строит маршрутизатор контракта. doc должен быть
// уже проверен (openapi.Load).
func NewRequestValidator(doc *openapi3.T, bundle *i18n.Bundle, logger *slog.Logger) (*RequestValidator, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	return &RequestValidator{
		router: router,
		bundle: bundle,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}, nil
}

// Middleware возвращает HTTP middleware. Нарушение контракта — 400.
func (v *RequestValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := v.router.FindRoute(r)
			if err != nil {
				// 404 и 405 отдаёт chi.
				next.ServeHTTP(w, r)
				return
			}

			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxValidatedBody)
			}

			opts := &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				// Содержимое файла проверяет UploadLogo.
				ExcludeRequestBody: isMultipart(r),
			}
			err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			})
			if err != nil {
				v.logger.Debug("Запрос не соответствует контракту",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, v.bundle.T(r.Context(), messageKey(err)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// messageKey подбирает ключ сообщения так же, как это делают обработчики.
func messageKey(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.Parameter != nil && strings.HasSuffix(strings.ToLower(reqErr.Parameter.Name), "id"):
			return "error.invalid_id"
		case reqErr.RequestBody != nil:
			return "error.invalid_json"
		}
	}
	return "error.validation"
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
