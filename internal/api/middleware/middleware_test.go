package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/i18n"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeResolver — хранилище сессий для тестов middleware.
type fakeResolver struct {
	sessions map[string]*model.Session
	err      error
	restored int
}

func (f *fakeResolver) Current(_ context.Context, id string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[id], nil
}

func (f *fakeResolver) Restore(_ context.Context, snapshot *model.Session) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.sessions[snapshot.ID]; ok {
		return s, nil
	}
	if snapshot.ID == "restorable" {
		f.restored++
		f.sessions[snapshot.ID] = snapshot
		return snapshot, nil
	}
	return nil, nil
}

func newSession(id string) *model.Session {
	now := time.Now()
	return &model.Session{
		ID:            id,
		UserID:        7,
		FirstName:     "Ana",
		Role:          model.RoleDirectivo,
		InstitutionID: 1,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Hour),
	}
}

func setupAuth(t *testing.T) (*SessionAuth, *fakeResolver, *auth.SnapshotCodec, *auth.TokenIssuer) {
	t.Helper()
	codec, err := auth.NewSnapshotCodec("clave-de-prueba", false, time.Hour)
	if err != nil {
		t.Fatalf("NewSnapshotCodec() ошибка: %v", err)
	}
	tokens := auth.NewTokenIssuer("secreto-jwt", "brigadas")
	bundle, err := i18n.Load("es", testLogger())
	if err != nil {
		t.Fatalf("i18n.Load() ошибка: %v", err)
	}
	resolver := &fakeResolver{sessions: map[string]*model.Session{"activa": newSession("activa")}}
	return NewSessionAuth(resolver, codec, tokens, bundle, testLogger()), resolver, codec, tokens
}

func cookieFor(t *testing.T, codec *auth.SnapshotCodec, s *model.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := codec.SetCookie(rec, s); err != nil {
		t.Fatalf("SetCookie() ошибка: %v", err)
	}
	return rec.Result().Cookies()[0]
}

func TestSessionAuth(t *testing.T) {
	a, resolver, codec, tokens := setupAuth(t)

	validToken, err := tokens.Issue(newSession("activa"))
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}
	endedToken, _ := tokens.Issue(newSession("завершена"))

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{"без учётных данных", func(*http.Request) {}, http.StatusUnauthorized},
		{"действующий cookie", func(r *http.Request) { r.AddCookie(cookieFor(t, codec, newSession("activa"))) }, http.StatusOK},
		{"cookie после рестарта", func(r *http.Request) { r.AddCookie(cookieFor(t, codec, newSession("restorable"))) }, http.StatusOK},
		{"cookie завершённой сессии", func(r *http.Request) { r.AddCookie(cookieFor(t, codec, newSession("cerrada"))) }, http.StatusUnauthorized},
		{"повреждённый cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "basura"})
		}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+validToken) }, http.StatusOK},
		{"bearer отозванной сессии", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+endedToken) }, http.StatusUnauthorized},
		{"bearer с чужой подписью", func(r *http.Request) {
			other, _ := auth.NewTokenIssuer("otro", "brigadas").Issue(newSession("activa"))
			r.Header.Set("Authorization", "Bearer "+other)
		}, http.StatusUnauthorized},
		{"не bearer", func(r *http.Request) { r.Header.Set("Authorization", "Basic YTpi") }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.Session
			h := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = SessionFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && got == nil {
				t.Error("сессия не помещена в контекст")
			}
		})
	}

	if resolver.restored != 1 {
		t.Errorf("восстановлено %d сессий, ожидается 1", resolver.restored)
	}
}

func TestSessionAuth_StoreUnavailable(t *testing.T) {
	a, resolver, codec, _ := setupAuth(t)
	resolver.err = errors.New("dial tcp: connection refused")

	h := a.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("обработчик не должен вызываться")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFor(t, codec, newSession("activa")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("статус = %d, ожидается 503", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("сгенерированный id = %q, заголовок %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Errorf("id = %q, ожидается переданный abc-123", seen)
	}
}

func TestMetrics_RouteLabel(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/api/v1/brigades/42", "/api/v1/brigades/{id}"},
		{"/api/v1/brigades/42/members/7", "/api/v1/brigades/{id}/members/{id}"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.path, got, tt.want)
		}
	}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	var label string
	r.Get("/api/v1/brigades/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		label = routeLabel(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/brigades/5", nil))
	if label != "/api/v1/brigades/{id}" {
		t.Errorf("метка маршрута = %q", label)
	}
}
