package i18n

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_CatalogsHaveSameKeys(t *testing.T) {
	catalogs := map[string]map[string]string{}
	for _, lang := range []string{"es", "en"} {
		data, err := LocaleFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			t.Fatalf("чтение каталога %s: %v", lang, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("разбор каталога %s: %v", lang, err)
		}
		catalogs[lang] = m
	}
	for key := range catalogs["es"] {
		if _, ok := catalogs["en"][key]; !ok {
			t.Errorf("ключ %q отсутствует в en.json", key)
		}
	}
	for key := range catalogs["en"] {
		if _, ok := catalogs["es"][key]; !ok {
			t.Errorf("ключ %q отсутствует в es.json", key)
		}
	}
}

func TestTranslate_Fallback(t *testing.T) {
	b := NewBundle("es", testLogger())
	_ = b.LoadMessages("es", []byte(`{"a": "uno", "b": "dos %d"}`))
	_ = b.LoadMessages("en", []byte(`{"a": "one"}`))

	tests := []struct {
		lang, key, want string
	}{
		{"en", "a", "one"},
		{"es", "a", "uno"},
		{"en", "b", "dos %d"},
		{"fr", "a", "uno"},
		{"en", "missing", "missing"},
	}
	for _, tt := range tests {
		if got := b.Translate(tt.lang, tt.key); got != tt.want {
			t.Errorf("Translate(%s, %s) = %q, ожидается %q", tt.lang, tt.key, got, tt.want)
		}
	}

	ctx := WithLang(context.Background(), "es")
	if got := b.Tf(ctx, "b", 3); got != "dos 3" {
		t.Errorf("Tf() = %q, ожидается %q", got, "dos 3")
	}
}

func TestMiddleware_DetectLanguage(t *testing.T) {
	b, err := Load("es", testLogger())
	if err != nil {
		t.Fatalf("Load() ошибка: %v", err)
	}

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"по умолчанию", "", "", "es"},
		{"cookie", "en", "es-CO", "en"},
		{"неизвестная cookie", "ru", "en-US,en;q=0.9", "en"},
		{"accept-language", "", "es-EC,es;q=0.9", "es"},
		{"неподдерживаемый язык", "", "de-DE", "es"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := b.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = LangFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("язык = %q, ожидается %q", got, tt.want)
			}
		})
	}
}
