// main.go — точка входа сервиса «Бригады».
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/brigadas/internal/api/handlers"
	"github.com/bigkaa/brigadas/internal/api/middleware"
	"github.com/bigkaa/brigadas/internal/api/openapi"
	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/config"
	"github.com/bigkaa/brigadas/internal/database"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/i18n"
	"github.com/bigkaa/brigadas/internal/jobs"
	"github.com/bigkaa/brigadas/internal/repository"
	"github.com/bigkaa/brigadas/internal/server"
	"github.com/bigkaa/brigadas/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Сервис «Бригады» запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("session_store", cfg.SessionStore),
	)
	if cfg.SessionSecret == "" {
		logger.Warn("BR_SESSION_SECRET не задан: cookie-снимки сессий не переживут перезапуск")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Хранилище сессий (память процесса или Redis)
	var (
		store        auth.SessionStore
		redisChecker handlers.ReadinessChecker
		rdb          *redis.Client
	)
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Error("Redis недоступен", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
			os.Exit(1)
		}
		store = auth.NewRedisStore(rdb)
		redisChecker = auth.NewRedisReadinessChecker(rdb)
		logger.Info("Сессии хранятся в Redis", slog.String("addr", cfg.RedisAddr))
	default:
		store = auth.NewMemoryStore()
	}

	// 6. Пароли, cookie-снимки, bearer-токены, каталоги сообщений
	hasher := auth.NewHasher(cfg.BcryptCost)
	codec, err := auth.NewSnapshotCodec(cfg.SessionSecret, cfg.SecureCookie, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка инициализации cookie-снимков", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer)
	if !tokens.Enabled() {
		logger.Info("BR_JWT_SECRET не задан, bearer-токены отключены")
	}
	bundle, err := i18n.Load(cfg.DefaultLang, logger)
	if err != nil {
		logger.Error("Ошибка загрузки каталогов сообщений", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	repos := repository.New(pool)
	txRunner := repository.NewTxRunner(pool)

	// 8. Services
	institutionList := service.NewCache[int, []model.Institution]("institutions", 1, cfg.CacheTTL)
	institutionByID := service.NewCache[int64, *model.Institution]("institution", cfg.CacheSize, cfg.CacheTTL)

	sessionSvc := service.NewSessionService(store, cfg.SessionTTL, logger)
	shiftSvc := service.NewShiftService(repos.Shifts, repos.Brigades, logger)
	svc := handlers.Services{
		Auth:         service.NewAuthService(repos.Users, txRunner, hasher, logger),
		Sessions:     sessionSvc,
		Institutions: service.NewInstitutionService(repos.Institutions, txRunner, institutionList, institutionByID, logger),
		Users:        service.NewUserService(repos.Users, repos.Brigades, hasher, logger),
		Brigades:     service.NewBrigadeService(repos.Brigades, repos.Users, logger),
		Activities:   service.NewActivityService(repos.Activities, repos.Brigades, logger),
		Shifts:       shiftSvc,
		Reports:      service.NewReportService(repos.Reports, repos.Brigades, repos.Users, logger),
		Indicators:   service.NewIndicatorService(repos.Indicators, repos.Activities, repos.Brigades, logger),
		Dashboard:    service.NewDashboardService(repos, logger),
		Settings:     service.NewSettingsService(repos.Settings, logger),
	}

	// 9. Фоновые задачи (cron)
	scheduler := jobs.NewScheduler(logger, time.Local)
	for _, job := range []jobs.Job{
		jobs.ShiftClose(cfg.ShiftCloseSchedule, shiftSvc),
		jobs.SessionSweep(cfg.SessionSweepSchedule, sessionSvc),
	} {
		if err := scheduler.Register(job); err != nil {
			logger.Error("Ошибка регистрации задачи", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	scheduler.Start()

	// 9.1 topologymetrics — мониторинг зависимостей (PostgreSQL, Redis сессий)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "brigadas",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL(),
		Sessions:      rdb,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Readiness checkers и API handler
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), redisChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, svc, codec, tokens, bundle, cfg.LogoDir, logger)

	// 11. Middleware авторизации по сессии и проверки запросов по контракту OpenAPI
	sessionAuth := middleware.NewSessionAuth(sessionSvc, codec, tokens, bundle, logger)
	contract, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Ошибка загрузки контракта OpenAPI", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.NewRequestValidator(contract, bundle, logger)
	if err != nil {
		logger.Error("Ошибка маршрутизатора OpenAPI", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, sessionAuth.Middleware(),
		middleware.RequestID(),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		bundle.Middleware(),
		validator.Middleware(),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	stopCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	scheduler.Stop(stopCtx)
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Сервис «Бригады» остановлен")
}
