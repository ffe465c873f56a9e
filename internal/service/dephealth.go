// dephealth.go — мониторинг зависимостей brigadas через topologymetrics SDK.
//
// Зависимости:
//   - postgresql — основная база, проверка через pgxpool (critical);
//   - redis-sessions — хранилище сессий при BR_SESSION_STORE=redis (critical).
//
// Метрики app_dependency_* публикуются на /metrics.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/contrib/redispool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	depPostgres      = "postgresql"
	depRedisSessions = "redis-sessions"
)

// DephealthConfig — параметры мониторинга.
type DephealthConfig struct {
	// ServiceID — имя вершины графа ("brigadas").
	ServiceID string
	// Group — BR_DEPHEALTH_GROUP.
	Group string
	// DB — *sql.DB поверх pgxpool (stdlib.OpenDBFromPool).
	DB *sql.DB
	// PostgresURL — URL без учётных данных, только для лейблов.
	PostgresURL string
	// Sessions — клиент Redis-хранилища сессий; nil при хранении в памяти.
	Sessions      *redis.Client
	CheckInterval time.Duration
	// Registerer — nil означает глобальный registry.
	Registerer prometheus.Registerer
}

// DephealthService — мониторинг зависимостей.
type DephealthService struct {
	dh           *dephealth.DepHealth
	dependencies []string
	logger       *slog.Logger
}

// NewDephealthService регистрирует зависимости из cfg.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	if cfg.DB == nil {
		return nil, errors.New("dephealth: не задан пул PostgreSQL")
	}

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency(depPostgres, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(cfg.DB)),
			dephealth.FromURL(cfg.PostgresURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		),
	}
	deps := []string{depPostgres}

	if cfg.Sessions != nil {
		opts = append(opts, redispool.FromClient(depRedisSessions, cfg.Sessions,
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		))
		deps = append(deps, depRedisSessions)
	}
	if cfg.Registerer != nil {
		opts = append(opts, dephealth.WithRegisterer(cfg.Registerer))
	}

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:           dh,
		dependencies: deps,
		logger:       logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Dependencies — имена зарегистрированных зависимостей.
func (ds *DephealthService) Dependencies() []string {
	return append([]string(nil), ds.dependencies...)
}

func (ds *DephealthService) Start(ctx context.Context) error {
	if err := ds.dh.Start(ctx); err != nil {
		return err
	}
	ds.logger.Info("Мониторинг зависимостей запущен", slog.Any("dependencies", ds.dependencies))
	return nil
}

func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}
