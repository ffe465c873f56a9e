// session.go — аутентификация запросов по сессии.
// Источники: bearer-токен (Authorization) или зашифрованный cookie-снимок.
// Сессия в обоих случаях должна существовать в хранилище.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/brigadas/internal/api/errors"
	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/i18n"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	contextKeySession   contextKey = "session"
	contextKeyRequestID contextKey = "request_id"
)

// SessionResolver — источник активных сессий (service.SessionService).
type SessionResolver interface {
	Current(ctx context.Context, id string) (*model.Session, error)
	Restore(ctx context.Context, snapshot *model.Session) (*model.Session, error)
}

// SessionAuth — middleware аутентификации по сессии.
type SessionAuth struct {
	sessions SessionResolver
	codec    *auth.SnapshotCodec
	tokens   *auth.TokenIssuer
	bundle   *i18n.Bundle
	logger   *slog.Logger
}

// NewSessionAuth создаёт middleware. tokens может быть nil —
// тогда принимается только cookie.
func NewSessionAuth(
	sessions SessionResolver,
	codec *auth.SnapshotCodec,
	tokens *auth.TokenIssuer,
	bundle *i18n.Bundle,
	logger *slog.Logger,
) *SessionAuth {
	return &SessionAuth{
		sessions: sessions,
		codec:    codec,
		tokens:   tokens,
		bundle:   bundle,
		logger:   logger.With(slog.String("component", "session_auth")),
	}
}

// Middleware возвращает HTTP middleware. Без действующей сессии — 401,
// при недоступном хранилище сессий — 503.
func (a *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := a.resolve(w, r)
			if err != nil {
				a.logger.Error("Хранилище сессий недоступно", slog.String("error", err.Error()))
				apierrors.StoreUnavailable(w, a.bundle.T(r.Context(), "error.store_unavailable"))
				return
			}
			if sess == nil {
				apierrors.Unauthorized(w, a.bundle.T(r.Context(), "error.unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// resolve возвращает сессию запроса; nil, nil — запрос не аутентифицирован.
func (a *SessionAuth) resolve(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || a.tokens == nil || !a.tokens.Enabled() {
			return nil, nil
		}
		claims, err := a.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			a.logger.Debug("Отклонён bearer-токен", slog.String("error", err.Error()))
			return nil, nil
		}
		return a.sessions.Current(r.Context(), claims.SessionID)
	}

	snapshot, err := a.codec.FromRequest(r)
	if err != nil {
		// Снимок повреждён или зашифрован другим ключом.
		a.codec.ClearCookie(w)
		return nil, nil
	}
	if snapshot == nil {
		return nil, nil
	}
	sess, err := a.sessions.Restore(r.Context(), snapshot)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		a.codec.ClearCookie(w)
	}
	return sess, nil
}

// WithSession помещает сессию в контекст.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, s)
}

// SessionFromContext извлекает сессию из контекста (nil, если нет).
func SessionFromContext(ctx context.Context) *model.Session {
	s, _ := ctx.Value(contextKeySession).(*model.Session)
	return s
}
