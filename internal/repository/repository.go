// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — параметризованный SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrForeignKey — нарушение ссылочной целостности (запись используется
	// или ссылается на несуществующую).
	ErrForeignKey = errors.New("нарушение ссылочной целостности")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции.
// При ошибке fn транзакция откатывается, при успехе — коммитится.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// mapError переводит ошибки PostgreSQL в ошибки слоя.
// what — что делали, для текста обёртки.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", what, ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", what, ErrForeignKey)
		}
	}
	return fmt.Errorf("ошибка %s: %w", what, err)
}

// checkAffected возвращает ErrNotFound, если команда не затронула строк.
func checkAffected(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return mapError(err, what)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Repositories — набор репозиториев поверх одного DBTX
// (пула или транзакции).
type Repositories struct {
	Institutions InstitutionRepository
	Users        UserRepository
	Brigades     BrigadeRepository
	Activities   ActivityRepository
	Shifts       ShiftRepository
	Reports      ReportRepository
	Indicators   IndicatorRepository
	Settings     SettingRepository
}

// New создаёт все репозитории поверх db.
func New(db DBTX) *Repositories {
	return &Repositories{
		Institutions: NewInstitutionRepository(db),
		Users:        NewUserRepository(db),
		Brigades:     NewBrigadeRepository(db),
		Activities:   NewActivityRepository(db),
		Shifts:       NewShiftRepository(db),
		Reports:      NewReportRepository(db),
		Indicators:   NewIndicatorRepository(db),
		Settings:     NewSettingRepository(db),
	}
}

// InTx выполняет fn с репозиториями, привязанными к одной транзакции.
func (r *TxRunner) InTx(ctx context.Context, fn func(repos *Repositories) error) error {
	return r.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(New(tx))
	})
}
