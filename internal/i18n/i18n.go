// Пакет i18n — локализация сообщений API.
// Поддерживаемые языки: Español (es), English (en).
// Язык определяется middleware: cookie "lang" → Accept-Language → язык по умолчанию.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// Поддерживаемые языки
var (
	// SupportedLanguages — список поддерживаемых тегов языков.
	// Первый элемент — fallback для matcher.
	SupportedLanguages = []language.Tag{
		language.Spanish,
		language.English,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

// contextKey — тип ключа для контекста (избегаем коллизий).
type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — хранилище переводов для всех языков.
// Загружается один раз при старте приложения.
type Bundle struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string // lang → key → translation
	defaultLang string
	logger      *slog.Logger
}

// NewBundle создаёт пустой Bundle с языком по умолчанию.
func NewBundle(defaultLang string, logger *slog.Logger) *Bundle {
	if !Supported(defaultLang) {
		defaultLang = "es"
	}
	return &Bundle{
		catalogs:    make(map[string]map[string]string),
		defaultLang: defaultLang,
		logger:      logger,
	}
}

// DefaultLang возвращает язык по умолчанию.
func (b *Bundle) DefaultLang() string { return b.defaultLang }

// LoadMessages загружает JSON-каталог переводов для указанного языка.
// JSON формат: {"key": "translation", ...} (плоский).
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate возвращает перевод по ключу для указанного языка.
// Если ключ не найден — возвращает ключ как есть.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if lang != b.defaultLang {
		if msg, ok := b.catalogs[b.defaultLang][key]; ok {
			return msg
		}
	}
	return key
}

// Has сообщает, есть ли ключ в каталоге языка по умолчанию.
func (b *Bundle) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.catalogs[b.defaultLang][key]
	return ok
}

// Translatef возвращает перевод с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// T переводит ключ на язык из контекста запроса.
func (b *Bundle) T(ctx context.Context, key string) string {
	return b.Translate(b.langOf(ctx), key)
}

// Tf переводит ключ на язык из контекста с подстановкой аргументов.
func (b *Bundle) Tf(ctx context.Context, key string, args ...any) string {
	return b.Translatef(b.langOf(ctx), key, args...)
}

func (b *Bundle) langOf(ctx context.Context) string {
	if lang := LangFromContext(ctx); lang != "" {
		return lang
	}
	return b.defaultLang
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят
// из JSON-каталогов, go vet printf-проверка к ним неприменима.
//
//nolint:govet
var formatFunc = fmt.Sprintf

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста ("" если не задан).
func LangFromContext(ctx context.Context) string {
	lang, _ := ctx.Value(contextKeyLang).(string)
	return lang
}

// Supported сообщает, поддерживается ли язык.
func Supported(lang string) bool {
	return lang == "es" || lang == "en"
}

// MatchLanguage определяет лучший язык из заголовка Accept-Language.
// Возвращает "es" или "en"; fallback — fallbackLang.
func MatchLanguage(acceptLanguage, fallbackLang string) string {
	tag, _, confidence := matcher.Match(parseAccept(acceptLanguage)...)
	if confidence == language.No {
		return fallbackLang
	}
	base, _ := tag.Base()
	if lang := base.String(); Supported(lang) {
		return lang
	}
	return fallbackLang
}

func parseAccept(header string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	return tags
}
