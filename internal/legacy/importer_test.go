package legacy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/brigadas/internal/auth"
	"github.com/bigkaa/brigadas/internal/config"
	"github.com/bigkaa/brigadas/internal/database"
	"github.com/bigkaa/brigadas/internal/domain/model"
	"github.com/bigkaa/brigadas/internal/repository"
)

type fakeSource struct {
	dump *Dump
	err  error
}

func (f *fakeSource) Read(context.Context) (*Dump, error) { return f.dump, f.err }

type failTx struct{ called bool }

func (f *failTx) RunInTx(context.Context, func(pgx.Tx) error) error {
	f.called = true
	return errors.New("нет соединения")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImporter_DryRun(t *testing.T) {
	tx := &failTx{}
	imp := NewImporter(&fakeSource{dump: testDump()}, tx, true, discardLogger())

	res, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() ошибка: %v", err)
	}
	if tx.called {
		t.Error("пробный запуск не должен открывать транзакцию")
	}
	if res.Institutions != 2 || res.Users != 4 || res.Shifts != 1 {
		t.Errorf("итог: %+v", res)
	}
	if len(res.Skipped) == 0 {
		t.Error("ожидаются пропущенные строки")
	}
}

func TestImporter_Errors(t *testing.T) {
	imp := NewImporter(&fakeSource{err: errors.New("MySQL недоступен")}, &failTx{}, false, discardLogger())
	if _, err := imp.Run(context.Background()); err == nil {
		t.Error("ожидается ошибка чтения источника")
	}

	tx := &failTx{}
	imp = NewImporter(&fakeSource{dump: testDump()}, tx, false, discardLogger())
	if _, err := imp.Run(context.Background()); err == nil || !tx.called {
		t.Errorf("ожидается ошибка записи, получено %v", err)
	}
}

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("brigadas_test"),
		postgres.WithUsername("brigadas"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("BR_DB_HOST", host)
	t.Setenv("BR_DB_PORT", port.Port())
	t.Setenv("BR_DB_NAME", "brigadas_test")
	t.Setenv("BR_DB_USER", "brigadas")
	t.Setenv("BR_DB_PASSWORD", "test-password")
	t.Setenv("BR_DB_SSL_MODE", "disable")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if err := database.Migrate(cfg, discardLogger()); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}
	pool, err := database.Connect(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestImporter_Integration(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	runner := repository.NewTxRunner(pool)

	imp := NewImporter(&fakeSource{dump: testDump()}, runner, false, discardLogger())
	if _, err := imp.Run(ctx); err != nil {
		t.Fatalf("Run() ошибка: %v", err)
	}
	// Повторный перенос обновляет те же строки.
	if _, err := imp.Run(ctx); err != nil {
		t.Fatalf("повторный Run() ошибка: %v", err)
	}

	repos := repository.New(pool)
	ana, err := repos.Users.FindByIdentifier(ctx, 1, "ana@example.org")
	if err != nil {
		t.Fatalf("FindByIdentifier ошибка: %v", err)
	}
	if ana.ID != 100 {
		t.Errorf("id = %d, ожидается сохранённый 100", ana.ID)
	}
	if !auth.NewHasher(4).Verify("secreto", ana.PasswordHash) {
		t.Error("старый хеш должен проверяться")
	}

	b, err := repos.Brigades.GetByID(ctx, 10)
	if err != nil {
		t.Fatalf("GetByID(brigade) ошибка: %v", err)
	}
	if b.TeacherID == nil || *b.TeacherID != 100 {
		t.Errorf("владелец = %v, ожидается 100", b.TeacherID)
	}

	// Последовательности сдвинуты за перенесённые id.
	inst := &model.Institution{Name: "Nueva"}
	if err := repos.Institutions.Create(ctx, inst); err != nil {
		t.Fatalf("Create(institution) ошибка: %v", err)
	}
	if inst.ID <= 4 {
		t.Errorf("новый id = %d, ожидается больше 4", inst.ID)
	}
}

func TestApplySeed_Integration(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seed, err := ParseSeed(strings.NewReader(validSeed))
	if err != nil {
		t.Fatal(err)
	}
	runner := repository.NewTxRunner(pool)
	hasher := auth.NewHasher(4)

	res, err := ApplySeed(ctx, seed, runner, hasher, discardLogger())
	if err != nil {
		t.Fatalf("ApplySeed() ошибка: %v", err)
	}
	if res.Institutions != 1 || res.Brigades != 1 || res.Users != 2 {
		t.Errorf("итог: %+v", res)
	}

	res, err = ApplySeed(ctx, seed, runner, hasher, discardLogger())
	if err != nil {
		t.Fatalf("повторный ApplySeed() ошибка: %v", err)
	}
	if res.Institutions != 0 || res.Brigades != 0 || res.Users != 0 {
		t.Errorf("повторный запуск не должен создавать записи: %+v", res)
	}
}
