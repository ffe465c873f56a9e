// Пакет config — загрузка и валидация конфигурации сервиса «Бригады»
// из переменных окружения с префиксом BR_.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Допустимые хранилища сессий.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 1024-65535)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Язык сообщений по умолчанию (es, en)
	DefaultLang string
	// Каталог с логотипами учреждений
	LogoDir string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Сессии ---

	// Ключ шифрования cookie-снимка сессии (пустой — случайный на процесс)
	SessionSecret string
	// Время жизни сессии
	SessionTTL time.Duration
	// Хранилище сессий: memory, redis
	SessionStore string
	// Secure-флаг cookie (true за HTTPS)
	SecureCookie bool

	// --- Redis (для SessionStore=redis) ---

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// --- Bearer-токены ---

	// Секрет HS256 (пустой — выдача токенов отключена)
	JWTSecret string
	// Issuer токенов
	JWTIssuer string

	// --- Пароли ---

	// Стоимость bcrypt
	BcryptCost int

	// --- Кэш справочника учреждений ---

	CacheSize int
	CacheTTL  time.Duration

	// --- Фоновые задачи (cron-выражения) ---

	// Автозакрытие прошедших смен
	ShiftCloseSchedule string
	// Очистка просроченных сессий в памяти
	SessionSweepSchedule string

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("BR_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("BR_PORT: %w", err)
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("BR_PORT: значение %d вне допустимого диапазона 1024-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("BR_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("BR_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("BR_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("BR_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.DefaultLang = getEnvDefault("BR_DEFAULT_LANG", "es")
	if cfg.DefaultLang != "es" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("BR_DEFAULT_LANG: недопустимое значение %q, допустимые: es, en", cfg.DefaultLang)
	}

	cfg.LogoDir = getEnvDefault("BR_LOGO_DIR", "assets/logos")

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("BR_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("BR_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("BR_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("BR_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("BR_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("BR_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("BR_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("BR_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Сессии ---

	cfg.SessionSecret = getEnvDefault("BR_SESSION_SECRET", "")

	cfg.SessionTTL, err = getEnvDuration("BR_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("BR_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL < time.Minute {
		return nil, fmt.Errorf("BR_SESSION_TTL: значение %s меньше минимума 1m", cfg.SessionTTL)
	}

	cfg.SessionStore = getEnvDefault("BR_SESSION_STORE", SessionStoreMemory)
	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStoreRedis {
		return nil, fmt.Errorf("BR_SESSION_STORE: недопустимое значение %q, допустимые: memory, redis", cfg.SessionStore)
	}

	cfg.SecureCookie, err = getEnvBool("BR_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("BR_SECURE_COOKIE: %w", err)
	}

	// --- Redis ---

	cfg.RedisAddr = getEnvDefault("BR_REDIS_ADDR", "")
	cfg.RedisPassword = getEnvDefault("BR_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("BR_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("BR_REDIS_DB: %w", err)
	}
	if cfg.SessionStore == SessionStoreRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("BR_REDIS_ADDR: обязательна при BR_SESSION_STORE=redis")
	}

	// --- Bearer-токены ---

	cfg.JWTSecret = getEnvDefault("BR_JWT_SECRET", "")
	cfg.JWTIssuer = getEnvDefault("BR_JWT_ISSUER", "brigadas")

	// --- Пароли ---

	cfg.BcryptCost, err = getEnvInt("BR_BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("BR_BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BR_BCRYPT_COST: значение %d вне допустимого диапазона %d-%d",
			cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// --- Кэш ---

	cfg.CacheSize, err = getEnvInt("BR_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("BR_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("BR_CACHE_SIZE: значение %d должно быть положительным", cfg.CacheSize)
	}

	cfg.CacheTTL, err = getEnvDuration("BR_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("BR_CACHE_TTL: %w", err)
	}

	// --- Фоновые задачи ---

	cfg.ShiftCloseSchedule = getEnvDefault("BR_SHIFT_CLOSE_SCHEDULE", "*/15 * * * *")
	if err := validateSchedule(cfg.ShiftCloseSchedule); err != nil {
		return nil, fmt.Errorf("BR_SHIFT_CLOSE_SCHEDULE: %w", err)
	}

	cfg.SessionSweepSchedule = getEnvDefault("BR_SESSION_SWEEP_SCHEDULE", "@every 5m")
	if err := validateSchedule(cfg.SessionSweepSchedule); err != nil {
		return nil, fmt.Errorf("BR_SESSION_SWEEP_SCHEDULE: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("BR_DEPHEALTH_GROUP", "brigadas")

	cfg.DephealthCheckInterval, err = getEnvDuration("BR_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BR_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("BR_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("BR_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL для golang-migrate (схема pgx5://).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// validateSchedule проверяет cron-выражение в стандартном формате
// (пять полей или дескриптор @every/@hourly).
func validateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("некорректное cron-выражение %q: %w", spec, err)
	}
	return nil
}
