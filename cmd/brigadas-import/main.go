// main.go — перенос данных настольного приложения в PostgreSQL.
//
//	brigadas-import                 перенос из BR_LEGACY_MYSQL_DSN
//	brigadas-import -dry-run        только показать, что будет перенесено
//	brigadas-import -seed demo.yaml загрузить начальные данные из YAML
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/config"
	"github.com/bigkaa/brigadas/internal/database"
	"github.com/bigkaa/brigadas/internal/legacy"
	"github.com/bigkaa/brigadas/internal/repository"
)

func main() {
	seedPath := flag.String("seed", "", "YAML-файл начальных данных вместо переноса из MySQL")
	dryRun := flag.Bool("dry-run", false, "прочитать исходную базу и вывести итог без записи")
	flag.Parse()

	if err := run(*seedPath, *dryRun); err != nil {
		slog.Error("Перенос завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(seedPath string, dryRun bool) error {
	// 1. Конфигурация и логирование
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	logger := config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Миграции и подключение к PostgreSQL
	if !dryRun {
		if err := database.Migrate(cfg, logger); err != nil {
			return err
		}
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	txRunner := repository.NewTxRunner(pool)

	// 3a. Начальные данные из YAML
	if seedPath != "" {
		f, err := os.Open(seedPath)
		if err != nil {
			return fmt.Errorf("ошибка открытия %s: %w", seedPath, err)
		}
		defer f.Close()

		seed, err := legacy.ParseSeed(f)
		if err != nil {
			return fmt.Errorf("%s: %w", seedPath, err)
		}
		if dryRun {
			logger.Info("Файл начальных данных корректен", slog.Int("institutions", len(seed.Institutions)))
			return nil
		}

		res, err := legacy.ApplySeed(ctx, seed, txRunner, auth.NewHasher(cfg.BcryptCost), logger)
		if err != nil {
			return err
		}
		logger.Info("Начальные данные загружены",
			slog.Int("institutions", res.Institutions),
			slog.Int("brigades", res.Brigades),
			slog.Int("users", res.Users),
		)
		return nil
	}

	// 3b. Перенос из MySQL
	legacyCfg, err := config.LoadLegacy()
	if err != nil {
		return err
	}
	source, err := legacy.OpenMySQL(ctx, legacyCfg)
	if err != nil {
		return err
	}
	defer source.Close()

	res, err := legacy.NewImporter(source, txRunner, dryRun, logger).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Перенос завершён",
		slog.Bool("dry_run", dryRun),
		slog.Int("institutions", res.Institutions),
		slog.Int("brigades", res.Brigades),
		slog.Int("users", res.Users),
		slog.Int("activities", res.Activities),
		slog.Int("shifts", res.Shifts),
		slog.Int("reports", res.Reports),
		slog.Int("skipped", len(res.Skipped)),
	)
	return nil
}
